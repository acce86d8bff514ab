package interfaces

import (
	"context"

	"github.com/dep2p/go-remotenet/pkg/types"
)

// Request 远端调用请求
//
// 各传输方案按自身语义解释字段：HTTP 族使用全部字段，
// 帧传输和 WSS 只使用 Body。
type Request struct {
	Method string
	Path   string
	Header map[string]string
	Body   []byte
}

// Response 远端调用响应
type Response struct {
	// Status HTTP 状态码，非 HTTP 方案为 0
	Status int
	Header map[string]string
	Body   []byte
}

// RemoteClient 远端节点客户端
//
// 由注册表缓存条目独占持有，调用方只借用，不得自行 Close。
type RemoteClient interface {
	// ID 返回客户端实例 ID
	ID() string

	// NodeKey 返回所连接的节点
	NodeKey() types.NodeKey

	// Call 发起一次请求
	Call(ctx context.Context, req *Request) (*Response, error)

	// Alive 检查客户端是否仍可用
	Alive(ctx context.Context) error

	// Close 释放底层传输资源
	Close() error
}

// ClientFactory 按传输方案构造客户端
//
// proxy 非 nil 时，底层连接必须经由该 SOCKS 代理建立。
// ctx 带有构造截止时间。
type ClientFactory func(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy) (RemoteClient, error)
