package config

import (
	"errors"
	"net"
	"time"
)

// ProxyServerConfig 本地 SOCKS5 代理服务器配置
type ProxyServerConfig struct {
	// Enable 启用代理服务器
	Enable bool `json:"enable"`

	// Order 代理服务器在启停序列中的位置，需小于注册表的 Order
	Order int `json:"order"`

	// ListenAddr 监听地址
	ListenAddr string `json:"listen_addr"`

	// Users 用户名 → 密码（明文或 bcrypt 哈希）；为空表示无认证
	Users map[string]string `json:"users,omitempty"`

	// HandshakeTimeout SOCKS 握手超时
	HandshakeTimeout Duration `json:"handshake_timeout"`

	// DialTimeout 连接目标的超时
	DialTimeout Duration `json:"dial_timeout"`

	// IdleTimeout 隧道空闲超时，0 表示不限制
	IdleTimeout Duration `json:"idle_timeout,omitempty"`

	// MaxConns 最大并发隧道数，0 表示不限制
	MaxConns int `json:"max_conns,omitempty"`

	// BandwidthLimit 每条隧道每方向的字节/秒上限，0 表示不限制
	BandwidthLimit int `json:"bandwidth_limit,omitempty"`

	// DNSCacheSize 目标域名解析缓存条目数
	DNSCacheSize int `json:"dns_cache_size"`

	// DNSCacheTTL 解析缓存有效期
	DNSCacheTTL Duration `json:"dns_cache_ttl"`
}

// DefaultProxyServerConfig 返回默认代理服务器配置
func DefaultProxyServerConfig() ProxyServerConfig {
	return ProxyServerConfig{
		Enable:           false,
		Order:            -100,
		ListenAddr:       "127.0.0.1:1080",
		HandshakeTimeout: Duration(10 * time.Second),
		DialTimeout:      Duration(10 * time.Second),
		DNSCacheSize:     256,
		DNSCacheTTL:      Duration(time.Minute),
	}
}

// Validate 验证代理服务器配置
func (c ProxyServerConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return errors.New("listen_addr must be host:port")
	}
	if c.HandshakeTimeout <= 0 || c.DialTimeout <= 0 {
		return errors.New("handshake_timeout and dial_timeout must be positive")
	}
	if c.MaxConns < 0 || c.BandwidthLimit < 0 {
		return errors.New("max_conns and bandwidth_limit must not be negative")
	}
	if c.DNSCacheSize <= 0 {
		return errors.New("dns_cache_size must be positive")
	}
	for user := range c.Users {
		if user == "" || len(user) > 255 {
			return errors.New("user names must be 1-255 bytes")
		}
	}
	return nil
}
