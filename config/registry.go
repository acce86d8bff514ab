package config

import (
	"errors"
	"time"
)

// RegistryConfig 客户端注册表配置
type RegistryConfig struct {
	// Order 注册表在启停序列中的位置
	// 需大于代理服务器的 Order，保证关闭时先驱逐客户端再关闭监听
	Order int `json:"order"`

	// ConstructTimeout 单个客户端构造（连接、TLS/SOCKS 握手）的截止时间
	ConstructTimeout Duration `json:"construct_timeout"`

	// LivenessInterval 后台存活巡检间隔，0 表示关闭
	// 巡检失败的客户端会被驱逐，下次 Resolve 时重建
	LivenessInterval Duration `json:"liveness_interval,omitempty"`

	// LivenessTimeout 单个客户端存活检查超时
	LivenessTimeout Duration `json:"liveness_timeout"`
}

// DefaultRegistryConfig 返回默认注册表配置
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Order:            100,
		ConstructTimeout: Duration(10 * time.Second),
		LivenessInterval: 0,
		LivenessTimeout:  Duration(3 * time.Second),
	}
}

// Validate 验证注册表配置
func (c RegistryConfig) Validate() error {
	if c.ConstructTimeout <= 0 {
		return errors.New("construct_timeout must be positive")
	}
	if c.LivenessInterval < 0 {
		return errors.New("liveness_interval must not be negative")
	}
	if c.LivenessInterval > 0 && c.LivenessTimeout <= 0 {
		return errors.New("liveness_timeout must be positive when liveness is enabled")
	}
	return nil
}
