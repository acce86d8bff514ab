package proxyserver

import (
	"time"

	"github.com/dep2p/go-remotenet/config"
)

// Config 代理服务器配置
type Config struct {
	Enable     bool
	Order      int
	ListenAddr string

	// Users 用户名 → 密码（明文或 bcrypt 哈希）；为空表示无认证
	Users map[string]string

	HandshakeTimeout time.Duration
	DialTimeout      time.Duration
	IdleTimeout      time.Duration

	// MaxConns 最大并发隧道数，0 不限制
	MaxConns int

	// BandwidthLimit 每条隧道每方向字节/秒，0 不限制
	BandwidthLimit int

	DNSCacheSize int
	DNSCacheTTL  time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return ConfigFromUnified(config.NewConfig())
}

// ConfigFromUnified 从统一配置创建代理服务器配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return DefaultConfig()
	}
	p := cfg.ProxyServer
	return Config{
		Enable:           p.Enable,
		Order:            p.Order,
		ListenAddr:       p.ListenAddr,
		Users:            p.Users,
		HandshakeTimeout: p.HandshakeTimeout.Duration(),
		DialTimeout:      p.DialTimeout.Duration(),
		IdleTimeout:      p.IdleTimeout.Duration(),
		MaxConns:         p.MaxConns,
		BandwidthLimit:   p.BandwidthLimit,
		DNSCacheSize:     p.DNSCacheSize,
		DNSCacheTTL:      p.DNSCacheTTL.Duration(),
	}
}
