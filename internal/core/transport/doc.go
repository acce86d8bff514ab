// Package transport 提供内置的客户端工厂
//
// 子包按传输方案实现 interfaces.RemoteClient：
//
//   - httpclient: HTTP / HTTPS
//   - wsclient: WSS
//   - frame: 4 字节长度前缀的 TCP 帧传输，可绑定到任意扩展方案
//   - dialer: 直连或 SOCKS5 拨号
//
// 所有工厂共用 dialer.New：节点配置了 SOCKS 代理时，
// 出站连接经由 golang.org/x/net/proxy 的 SOCKS5 拨号器建立。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    transport.Module(),
//	    registry.Module(),
//	)
//
// Module 按配置把工厂绑定提供到 registry.FactoryGroup。
package transport
