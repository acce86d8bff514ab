package config

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enabled 是否采集注册表指标
	Enabled bool `json:"enabled"`

	// Namespace 指标命名空间
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "remotenet",
	}
}
