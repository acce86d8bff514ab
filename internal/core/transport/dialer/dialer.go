// Package dialer 提供内置传输共用的出站拨号
//
// 节点配置了 SOCKS 代理时，连接经由 golang.org/x/net/proxy 的 SOCKS5 拨号器建立，
// 否则直接使用 net.Dialer。
package dialer

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/proxy"

	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("core/transport/dialer")

// Func 拨号函数，签名与 http.Transport.DialContext 一致
type Func func(ctx context.Context, network, addr string) (net.Conn, error)

// New 创建拨号函数
//
// p 为 nil 时直接使用 base 拨号；否则经由 SOCKS5 代理拨号，
// base 作为到代理本身的前向拨号器。SOCKS4 描述符返回 ErrUnsupportedProxyVersion。
func New(base *net.Dialer, p *types.SocksProxy) (Func, error) {
	if base == nil {
		base = &net.Dialer{}
	}
	if p == nil {
		return base.DialContext, nil
	}
	if p.Version() != types.SocksV5 {
		return nil, fmt.Errorf("%w: socks%d dialing is not supported", types.ErrUnsupportedProxyVersion, p.Version())
	}

	var auth *proxy.Auth
	if user, pass, ok := p.Credentials(); ok {
		auth = &proxy.Auth{User: user, Password: pass}
	}

	d, err := proxy.SOCKS5("tcp", p.Address(), auth, base)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer for %s: %w", p, err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer for %s does not support context", p)
	}

	logger.Debug("使用 SOCKS5 代理拨号", "proxy", p.String())
	return cd.DialContext, nil
}
