// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带 Default*Config() 与 Validate()
//   - 支持从 JSON 加载和保存配置
//
// 注意：配置文件的读取由应用层（cmd/*）负责，库本身不做 I/O。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Registry.ConstructTimeout = config.Duration(5 * time.Second)
//
//	data, _ := os.ReadFile("remotenet.json")
//	cfg, err := config.FromJSON(data)
package config

import (
	"encoding/json"
	"fmt"
)

// Config 是 remotenet 的完整配置结构
//
// 配置按照功能模块组织：
//   - Log: 日志
//   - Lifecycle: 启动/关闭编排
//   - Registry: 远端客户端注册表
//   - Transport: 内置传输工厂
//   - ProxyServer: 本地 SOCKS5 代理服务器
//   - Metrics: Prometheus 指标
//   - Environment / Servers: 服务器元数据（由外部协作方提供时可为空）
type Config struct {
	// Log 日志配置
	Log LogConfig `json:"log"`

	// Lifecycle 启停编排配置
	Lifecycle LifecycleConfig `json:"lifecycle"`

	// Registry 客户端注册表配置
	Registry RegistryConfig `json:"registry"`

	// Transport 传输工厂配置
	Transport TransportConfig `json:"transport"`

	// ProxyServer 代理服务器配置
	ProxyServer ProxyServerConfig `json:"proxy_server"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Environment 当前进程使用的环境标识
	Environment string `json:"environment,omitempty"`

	// Servers 服务器元数据
	Servers []ServerConfig `json:"servers,omitempty"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Log:         DefaultLogConfig(),
		Lifecycle:   DefaultLifecycleConfig(),
		Registry:    DefaultRegistryConfig(),
		Transport:   DefaultTransportConfig(),
		ProxyServer: DefaultProxyServerConfig(),
		Metrics:     DefaultMetricsConfig(),
	}
}

// FromJSON 从 JSON 加载配置
//
// 未出现的字段保留默认值。
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON 序列化为缩进 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Lifecycle.Validate(); err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	if err := c.ProxyServer.Validate(); err != nil {
		return fmt.Errorf("proxy_server: %w", err)
	}
	if err := validateServers(c.Servers); err != nil {
		return fmt.Errorf("servers: %w", err)
	}
	return nil
}
