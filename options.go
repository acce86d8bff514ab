package remotenet

import (
	"errors"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/app"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	cfg  *config.Config
	boot []app.BootstrapOption
}

func newOptions() *options {
	return &options{cfg: config.NewConfig()}
}

func (o *options) apply(opts []Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              配置
// ════════════════════════════════════════════════════════════════════════════

// WithConfig 使用完整配置作为基础
//
// 应放在其他选项之前，之后的选项在此基础上修改。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		c := *cfg
		c.Servers = slices.Clone(cfg.Servers)
		c.Transport.FrameSchemes = slices.Clone(cfg.Transport.FrameSchemes)
		o.cfg = &c
		return nil
	}
}

// WithLogLevel 设置日志级别 debug/info/warn/error
func WithLogLevel(level string) Option {
	return func(o *options) error {
		o.cfg.Log.Level = level
		return nil
	}
}

// WithLogFile 把日志追加到文件
func WithLogFile(path string) Option {
	return func(o *options) error {
		o.cfg.Log.File = path
		return nil
	}
}

// WithEnvironment 设置当前环境
func WithEnvironment(env string) Option {
	return func(o *options) error {
		o.cfg.Environment = env
		return nil
	}
}

// WithServers 追加服务器元数据
func WithServers(servers ...ServerInfo) Option {
	return func(o *options) error {
		o.cfg.Servers = append(o.cfg.Servers, servers...)
		return nil
	}
}

// WithConstructTimeout 设置单次客户端构造的截止时间
func WithConstructTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.New("construct timeout must be positive")
		}
		o.cfg.Registry.ConstructTimeout = config.Duration(d)
		return nil
	}
}

// WithLivenessCheck 开启缓存客户端存活巡检
func WithLivenessCheck(interval, timeout time.Duration) Option {
	return func(o *options) error {
		o.cfg.Registry.LivenessInterval = config.Duration(interval)
		o.cfg.Registry.LivenessTimeout = config.Duration(timeout)
		return nil
	}
}

// WithFrameSchemes 为扩展方案启用内置的长度前缀帧传输
func WithFrameSchemes(names ...string) Option {
	return func(o *options) error {
		o.cfg.Transport.FrameSchemes = append(o.cfg.Transport.FrameSchemes, names...)
		return nil
	}
}

// WithProxyServer 启用本地 SOCKS5 代理服务器
//
// users 为空表示无认证。
func WithProxyServer(listenAddr string, users map[string]string) Option {
	return func(o *options) error {
		o.cfg.ProxyServer.Enable = true
		o.cfg.ProxyServer.ListenAddr = listenAddr
		o.cfg.ProxyServer.Users = users
		return nil
	}
}

// WithMetrics 把注册表指标注册到 reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.cfg.Metrics.Enabled = true
		o.boot = append(o.boot, app.WithRegisterer(reg))
		return nil
	}
}

// WithoutMetrics 关闭指标采集
func WithoutMetrics() Option {
	return func(o *options) error {
		o.cfg.Metrics.Enabled = false
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              扩展点
// ════════════════════════════════════════════════════════════════════════════

// WithFactory 为方案注册客户端工厂
func WithFactory(schema Schema, factory ClientFactory) Option {
	return func(o *options) error {
		if factory == nil {
			return errors.New("factory is nil")
		}
		o.boot = append(o.boot, app.WithFactory(schema, factory))
		return nil
	}
}

// WithParticipant 加入启停参与者
func WithParticipant(p Participant) Option {
	return func(o *options) error {
		if p.Component == nil {
			return errors.New("participant component is nil")
		}
		o.boot = append(o.boot, app.WithParticipant(p))
		return nil
	}
}

// WithServerInfoSource 使用外部服务器元数据来源
func WithServerInfoSource(src ServerInfoSource) Option {
	return func(o *options) error {
		o.boot = append(o.boot, app.WithServerInfoSource(src))
		return nil
	}
}

// WithFxOptions 追加 fx 选项，供高级装配使用
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.boot = append(o.boot, app.WithFxOptions(opts...))
		return nil
	}
}
