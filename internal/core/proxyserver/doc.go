// Package proxyserver 实现本地 SOCKS5 代理服务器
//
// 协议处理基于 github.com/things-go/go-socks5，支持的范围：
//   - RFC 1928 CONNECT，目标地址为 IPv4 / IPv6 / 域名；BIND 与 UDP ASSOCIATE 拒绝
//   - RFC 1929 用户名/密码认证（配置了用户时强制），密码可以是 bcrypt 哈希
//
// Server 同时满足 interfaces.ProxyServer 和 interfaces.LifeCycle：
// Start 内同步完成监听绑定，绑定失败直接返回错误；
// Stop 关闭监听和全部活跃隧道，并等待处理协程退出。
//
// 隧道按方向独立限速（golang.org/x/time/rate），空闲超时按整条隧道计算；
// 域名目标的解析结果缓存在 expirable LRU 中。
//
// # Fx 模块集成
//
//	app := fx.New(
//	    lifecycle.Module(),
//	    proxyserver.Module(),
//	)
//
// 代理服务器作为启停参与者注册，默认 Order 为 -100，
// 早于注册表启动、晚于注册表停止。
package proxyserver

import "github.com/dep2p/go-remotenet/pkg/lib/log"

var logger = log.Logger("core/proxyserver")
