package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/core/lifecycle"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// FactoryGroup fx value group 名称，传输模块把工厂绑定提供到此组
const FactoryGroup = "client_factories"

// FactoryBinding 方案与工厂的绑定
type FactoryBinding struct {
	Schema  types.Schema
	Factory interfaces.ClientFactory
}

// FactoryResult 供传输模块导出工厂绑定
type FactoryResult struct {
	fx.Out

	Binding FactoryBinding `group:"client_factories"`
}

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config `optional:"true"`

	// Source 服务器元数据来源（可选）
	Source interfaces.ServerInfoSource `optional:"true"`

	// Registerer 指标注册器（可选）
	Registerer prometheus.Registerer `optional:"true"`

	Factories []FactoryBinding `group:"client_factories"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Registry    *Registry
	Participant lifecycle.Participant `group:"lifecycle_participants"`
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	cfg := ConfigFromUnified(input.Config)

	opts := []Option{WithServerInfoSource(input.Source)}
	if input.Config == nil || input.Config.Metrics.Enabled {
		opts = append(opts, WithRegisterer(input.Registerer))
	}
	reg := New(cfg, opts...)

	for _, b := range input.Factories {
		if err := reg.RegisterFactory(b.Schema, b.Factory); err != nil {
			return ModuleOutput{}, err
		}
	}

	return ModuleOutput{
		Registry:    reg,
		Participant: lifecycle.NewParticipant("registry", cfg.Order, reg),
	}, nil
}

// Module 返回 fx 模块配置
//
// 注册表的启停由 lifecycle 模块按 Order 编排，这里不直接挂 fx 钩子。
func Module() fx.Option {
	return fx.Module("registry",
		fx.Provide(ProvideServices),
	)
}
