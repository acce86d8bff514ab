package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dep2p/go-remotenet/pkg/types"
)

// TransportConfig 内置传输工厂配置
type TransportConfig struct {
	// EnableHTTP 注册 HTTP/HTTPS 工厂
	EnableHTTP bool `json:"enable_http"`

	// EnableWebSocket 注册 WSS 工厂
	EnableWebSocket bool `json:"enable_websocket"`

	// WebSocketPath WSS 握手路径
	WebSocketPath string `json:"websocket_path"`

	// FrameSchemes 使用长度前缀帧传输的扩展方案标识
	// 例如 ["KAYAK", "ECIF"]；默认为空，扩展方案由外部注册工厂
	FrameSchemes []string `json:"frame_schemes,omitempty"`

	// DialTimeout TCP 拨号超时
	DialTimeout Duration `json:"dial_timeout"`

	// RequestTimeout 单次请求超时（调用方 ctx 没有截止时间时使用）
	RequestTimeout Duration `json:"request_timeout"`

	// KeepAlive TCP keepalive 周期
	KeepAlive Duration `json:"keep_alive"`

	// MaxIdleConnsPerHost HTTP 每主机空闲连接数
	MaxIdleConnsPerHost int `json:"max_idle_conns_per_host"`

	// InsecureSkipVerify 跳过 TLS 证书校验（仅测试环境）
	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty"`

	// MaxFrameSize 帧传输的最大帧长
	MaxFrameSize int `json:"max_frame_size"`

	// ProbeOnConstruct 构造 HTTP 客户端时先拨号探测可达性
	ProbeOnConstruct bool `json:"probe_on_construct"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		EnableHTTP:          true,
		EnableWebSocket:     true,
		WebSocketPath:       "/",
		DialTimeout:         Duration(5 * time.Second),
		RequestTimeout:      Duration(30 * time.Second),
		KeepAlive:           Duration(30 * time.Second),
		MaxIdleConnsPerHost: 8,
		MaxFrameSize:        4 << 20,
		ProbeOnConstruct:    true,
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if c.DialTimeout <= 0 {
		return errors.New("dial_timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.EnableWebSocket && !strings.HasPrefix(c.WebSocketPath, "/") {
		return errors.New("websocket_path must start with /")
	}
	if c.MaxFrameSize <= 0 {
		return errors.New("max_frame_size must be positive")
	}
	for _, s := range c.FrameSchemes {
		if _, err := types.Extension(s); err != nil {
			return fmt.Errorf("frame_schemes: %w", err)
		}
	}
	return nil
}
