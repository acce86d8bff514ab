package registry

import (
	"time"

	"github.com/dep2p/go-remotenet/config"
)

// Config 注册表配置
type Config struct {
	// Order 启停序列位置
	Order int

	// ConstructTimeout 单次构造截止时间
	ConstructTimeout time.Duration

	// LivenessInterval 存活巡检间隔，0 关闭巡检
	LivenessInterval time.Duration

	// LivenessTimeout 单个客户端存活检查超时
	LivenessTimeout time.Duration

	// MetricsNamespace 指标命名空间
	MetricsNamespace string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(config.NewConfig())
}

// ConfigFromUnified 从统一配置创建注册表配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return Config{
		Order:            cfg.Registry.Order,
		ConstructTimeout: cfg.Registry.ConstructTimeout.Duration(),
		LivenessInterval: cfg.Registry.LivenessInterval.Duration(),
		LivenessTimeout:  cfg.Registry.LivenessTimeout.Duration(),
		MetricsNamespace: cfg.Metrics.Namespace,
	}
}
