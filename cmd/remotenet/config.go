package main

import (
	"os"

	"github.com/dep2p/go-remotenet/config"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量
const (
	envPrefix      = "REMOTENET_"
	envLogLevel    = "LOG_LEVEL"
	envLogFile     = "LOG_FILE"
	envEnvironment = "ENVIRONMENT"
)

// loadConfig 从 JSON 文件加载配置，path 为空时使用默认配置
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.NewConfig(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}
	return config.FromJSON(data)
}

// applyEnvOverrides 应用环境变量覆盖配置
//
// 环境变量优先级高于配置文件，但低于命令行参数。
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv(envPrefix + envLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(envPrefix + envLogFile); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv(envPrefix + envEnvironment); v != "" {
		cfg.Environment = v
	}
}
