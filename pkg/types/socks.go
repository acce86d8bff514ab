package types

import (
	"fmt"
	"net"
	"strconv"
)

// SOCKS 协议版本
const (
	SocksV4 = 4
	SocksV5 = 5
)

// SocksProxy SOCKS 隧道描述符
//
// 描述出站连接应经由哪个 SOCKS 代理建立。
// 只能通过 NewSocksProxy / NewSocksProxyWithAuth 构造，构造后不可变。
type SocksProxy struct {
	addr     string
	version  int
	username string
	password string
}

// NewSocksProxy 创建 SOCKS 代理描述符
//
// 参数:
//   - addr: 代理地址 "host:port"，不能为空
//   - version: 协议版本，4 或 5
func NewSocksProxy(addr string, version int) (SocksProxy, error) {
	return NewSocksProxyWithAuth(addr, version, "", "")
}

// NewSocksProxyWithAuth 创建带用户名/密码认证的 SOCKS 代理描述符
func NewSocksProxyWithAuth(addr string, version int, username, password string) (SocksProxy, error) {
	if addr == "" {
		return SocksProxy{}, fmt.Errorf("%w: empty address", ErrInvalidProxyAddress)
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return SocksProxy{}, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, addr)
	}
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		return SocksProxy{}, fmt.Errorf("%w: bad port in %q", ErrInvalidProxyAddress, addr)
	}
	if version != SocksV4 && version != SocksV5 {
		return SocksProxy{}, fmt.Errorf("%w: %d", ErrUnsupportedProxyVersion, version)
	}
	if username != "" && version != SocksV5 {
		return SocksProxy{}, fmt.Errorf("%w: auth requires socks5", ErrUnsupportedProxyVersion)
	}
	return SocksProxy{
		addr:     addr,
		version:  version,
		username: username,
		password: password,
	}, nil
}

// Address 返回代理地址
func (p SocksProxy) Address() string {
	return p.addr
}

// Version 返回协议版本
func (p SocksProxy) Version() int {
	return p.version
}

// Credentials 返回认证信息，未配置认证时 ok 为 false
func (p SocksProxy) Credentials() (username, password string, ok bool) {
	return p.username, p.password, p.username != ""
}

// String 返回描述符字符串（不含密码）
func (p SocksProxy) String() string {
	if p.username != "" {
		return fmt.Sprintf("socks%d://%s@%s", p.version, p.username, p.addr)
	}
	return fmt.Sprintf("socks%d://%s", p.version, p.addr)
}
