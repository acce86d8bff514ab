package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/core/lifecycle"
	"github.com/dep2p/go-remotenet/internal/core/registry"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// BootstrapOption Bootstrap 配置选项
type BootstrapOption func(*options)

type options struct {
	factories    []registry.FactoryBinding
	participants []lifecycle.Participant
	source       interfaces.ServerInfoSource
	registerer   prometheus.Registerer
	extra        []fx.Option
}

// WithFactory 为方案注册额外的客户端工厂
//
// 与内置工厂同名时覆盖内置工厂。
func WithFactory(schema types.Schema, factory interfaces.ClientFactory) BootstrapOption {
	return func(o *options) {
		o.factories = append(o.factories, registry.FactoryBinding{Schema: schema, Factory: factory})
	}
}

// WithParticipant 加入额外的启停参与者
func WithParticipant(p lifecycle.Participant) BootstrapOption {
	return func(o *options) {
		o.participants = append(o.participants, p)
	}
}

// WithServerInfoSource 使用外部的服务器元数据来源替代内存存储
//
// 内存存储仍然存在，用于发出环境锁定事件。
func WithServerInfoSource(src interfaces.ServerInfoSource) BootstrapOption {
	return func(o *options) {
		o.source = src
	}
}

// WithRegisterer 指定 Prometheus 注册器
func WithRegisterer(reg prometheus.Registerer) BootstrapOption {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithFxOptions 追加任意 fx 选项
func WithFxOptions(opts ...fx.Option) BootstrapOption {
	return func(o *options) {
		o.extra = append(o.extra, opts...)
	}
}

// fxOptions 把选项转换为 fx 选项
func (o options) fxOptions(cfg *config.Config) fx.Option {
	var out []fx.Option

	for _, b := range o.factories {
		out = append(out, fx.Provide(
			fx.Annotate(
				func() registry.FactoryBinding { return b },
				fx.ResultTags(`group:"`+registry.FactoryGroup+`"`),
			),
		))
	}
	for _, p := range o.participants {
		out = append(out, fx.Provide(
			fx.Annotate(
				func() lifecycle.Participant { return p },
				fx.ResultTags(`group:"`+lifecycle.ParticipantGroup+`"`),
			),
		))
	}
	if o.source != nil {
		src := o.source
		out = append(out, fx.Decorate(func(interfaces.ServerInfoSource) interfaces.ServerInfoSource {
			return src
		}))
	}
	if o.registerer != nil && cfg.Metrics.Enabled {
		reg := o.registerer
		out = append(out, fx.Provide(func() prometheus.Registerer { return reg }))
	}

	out = append(out, o.extra...)
	return fx.Options(out...)
}
