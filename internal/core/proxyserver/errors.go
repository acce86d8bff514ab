package proxyserver

import "errors"

var (
	// ErrServerClosed 服务器已停止
	ErrServerClosed = errors.New("proxy server closed")

	// ErrCommandNotSupported 只支持 CONNECT
	ErrCommandNotSupported = errors.New("socks command not supported")

	// ErrTunnelIdle 隧道两个方向都超过空闲时间没有流量
	ErrTunnelIdle = errors.New("tunnel idle timeout")

	// errNoSession 连接未经 Server 接受
	errNoSession = errors.New("connection has no proxy session")
)
