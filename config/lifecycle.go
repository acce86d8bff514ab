package config

import (
	"errors"
	"time"
)

// LifecycleConfig 启停编排配置
type LifecycleConfig struct {
	// StartTimeout 全部参与者启动的总超时
	StartTimeout Duration `json:"start_timeout"`

	// StopTimeout 全部参与者停止的总超时
	StopTimeout Duration `json:"stop_timeout"`
}

// DefaultLifecycleConfig 返回默认启停配置
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		StartTimeout: Duration(30 * time.Second),
		StopTimeout:  Duration(30 * time.Second),
	}
}

// Validate 验证启停配置
func (c LifecycleConfig) Validate() error {
	if c.StartTimeout <= 0 {
		return errors.New("start_timeout must be positive")
	}
	if c.StopTimeout <= 0 {
		return errors.New("stop_timeout must be positive")
	}
	return nil
}
