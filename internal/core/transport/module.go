package transport

import (
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/core/registry"
	"github.com/dep2p/go-remotenet/internal/core/transport/frame"
	"github.com/dep2p/go-remotenet/internal/core/transport/httpclient"
	"github.com/dep2p/go-remotenet/internal/core/transport/wsclient"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("core/transport")

// Config 传输工厂配置
type Config struct {
	// 方案开关
	EnableHTTP      bool
	EnableWebSocket bool
	FrameSchemes    []string

	WebSocketPath string

	DialTimeout         time.Duration
	RequestTimeout      time.Duration
	KeepAlive           time.Duration
	MaxIdleConnsPerHost int
	InsecureSkipVerify  bool
	MaxFrameSize        int
	ProbeOnConstruct    bool
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return NewConfig()
	}
	t := cfg.Transport
	return Config{
		EnableHTTP:          t.EnableHTTP,
		EnableWebSocket:     t.EnableWebSocket,
		FrameSchemes:        t.FrameSchemes,
		WebSocketPath:       t.WebSocketPath,
		DialTimeout:         t.DialTimeout.Duration(),
		RequestTimeout:      t.RequestTimeout.Duration(),
		KeepAlive:           t.KeepAlive.Duration(),
		MaxIdleConnsPerHost: t.MaxIdleConnsPerHost,
		InsecureSkipVerify:  t.InsecureSkipVerify,
		MaxFrameSize:        t.MaxFrameSize,
		ProbeOnConstruct:    t.ProbeOnConstruct,
	}
}

// NewConfig 创建默认配置
func NewConfig() Config {
	return ConfigFromUnified(config.NewConfig())
}

// HTTPOptions 转换为 HTTP 客户端选项
func (c Config) HTTPOptions() httpclient.Options {
	return httpclient.Options{
		DialTimeout:         c.DialTimeout,
		RequestTimeout:      c.RequestTimeout,
		KeepAlive:           c.KeepAlive,
		MaxIdleConnsPerHost: c.MaxIdleConnsPerHost,
		InsecureSkipVerify:  c.InsecureSkipVerify,
		Probe:               c.ProbeOnConstruct,
	}
}

// WebSocketOptions 转换为 WSS 客户端选项
func (c Config) WebSocketOptions() wsclient.Options {
	return wsclient.Options{
		Path:               c.WebSocketPath,
		DialTimeout:        c.DialTimeout,
		RequestTimeout:     c.RequestTimeout,
		KeepAlive:          c.KeepAlive,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
}

// FrameOptions 转换为帧客户端选项
func (c Config) FrameOptions() frame.Options {
	return frame.Options{
		DialTimeout:    c.DialTimeout,
		RequestTimeout: c.RequestTimeout,
		KeepAlive:      c.KeepAlive,
		MaxFrameSize:   c.MaxFrameSize,
	}
}

// Bindings 按配置生成方案与工厂的绑定
func Bindings(cfg Config) ([]registry.FactoryBinding, error) {
	var out []registry.FactoryBinding

	if cfg.EnableHTTP {
		f := httpclient.NewFactory(cfg.HTTPOptions())
		out = append(out,
			registry.FactoryBinding{Schema: types.SchemaHTTP, Factory: f},
			registry.FactoryBinding{Schema: types.SchemaHTTPS, Factory: f},
		)
	}
	if cfg.EnableWebSocket {
		out = append(out, registry.FactoryBinding{
			Schema:  types.SchemaWSS,
			Factory: wsclient.NewFactory(cfg.WebSocketOptions()),
		})
	}
	if len(cfg.FrameSchemes) > 0 {
		f := frame.NewFactory(cfg.FrameOptions())
		for _, name := range cfg.FrameSchemes {
			schema, err := types.Extension(name)
			if err != nil {
				return nil, fmt.Errorf("frame scheme: %w", err)
			}
			out = append(out, registry.FactoryBinding{Schema: schema, Factory: f})
		}
	}

	logger.Debug("内置传输工厂",
		"http", cfg.EnableHTTP,
		"websocket", cfg.EnableWebSocket,
		"frame", cfg.FrameSchemes,
		"bindings", len(out))
	return out, nil
}

// FactoriesOutput Fx 输出
type FactoriesOutput struct {
	fx.Out

	Bindings []registry.FactoryBinding `group:"client_factories,flatten"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(
			ProvideConfig,
			ProvideFactories,
		),
	)
}

// ProvideConfig 从统一配置提供传输配置
func ProvideConfig(cfg *config.Config) Config {
	return ConfigFromUnified(cfg)
}

// ProvideFactories 提供工厂绑定
func ProvideFactories(cfg Config) (FactoriesOutput, error) {
	bindings, err := Bindings(cfg)
	if err != nil {
		return FactoriesOutput{}, err
	}
	return FactoriesOutput{Bindings: bindings}, nil
}
