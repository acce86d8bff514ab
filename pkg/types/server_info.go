package types

import (
	"fmt"
	"time"
)

// ProxySettings 节点的代理配置
type ProxySettings struct {
	// Address 代理地址 "host:port"
	Address string `json:"address"`

	// Version SOCKS 版本，缺省为 5
	Version int `json:"version,omitempty"`

	// Username 用户名（可选）
	Username string `json:"username,omitempty"`

	// Password 密码（可选）
	Password string `json:"password,omitempty"`
}

// ServerInfo 服务器元数据
//
// 描述一个远端 API 服务器的寻址和代理信息，按环境分组。
// 元数据的持久化由外部协作方负责，这里只定义内存结构。
type ServerInfo struct {
	// Environment 所属环境标识
	Environment string `json:"environment"`

	// Name 服务器名称
	Name string `json:"name"`

	// Host 主机
	Host string `json:"host"`

	// Port 端口
	Port uint16 `json:"port"`

	// Schema 传输方案标识（HTTP/HTTPS/WSS 或扩展标识）
	Schema string `json:"schema"`

	// Path 请求路径前缀（HTTP 族）或握手路径（WSS）
	Path string `json:"path,omitempty"`

	// Proxy 代理配置，nil 表示直连
	Proxy *ProxySettings `json:"proxy,omitempty"`

	// Headers 每次请求附带的头
	Headers map[string]string `json:"headers,omitempty"`
}

// NodeKey 返回服务器对应的节点标识
func (s ServerInfo) NodeKey() (NodeKey, error) {
	schema, err := ParseSchema(s.Schema)
	if err != nil {
		return NodeKey{}, fmt.Errorf("server %q: %w", s.Name, err)
	}
	port := s.Port
	if port == 0 {
		port = schema.DefaultPort()
	}
	return NewNodeKey(s.Host, port, schema)
}

// SocksProxy 构建代理描述符，未配置代理时返回 nil
func (s ServerInfo) SocksProxy() (*SocksProxy, error) {
	if s.Proxy == nil {
		return nil, nil
	}
	version := s.Proxy.Version
	if version == 0 {
		version = SocksV5
	}
	p, err := NewSocksProxyWithAuth(s.Proxy.Address, version, s.Proxy.Username, s.Proxy.Password)
	if err != nil {
		return nil, fmt.Errorf("server %q: %w", s.Name, err)
	}
	return &p, nil
}

// EnvironmentLocked 环境锁定事件
//
// 表示某个环境的配置在当前进程生命周期内已成为权威配置。
type EnvironmentLocked struct {
	// Environment 环境标识
	Environment string

	// Servers 该环境下的全部服务器元数据
	Servers []ServerInfo

	// LockedAt 锁定时间
	LockedAt time.Time
}
