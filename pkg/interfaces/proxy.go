package interfaces

import "context"

// ProxyServer 监听代理服务器
//
// 最小契约只有 Start：绑定必须在 Start 内同步完成，
// 绑定失败直接返回错误，不存在"部分启动"状态。
// 需要有序关闭的实现应同时实现 LifeCycle。
type ProxyServer interface {
	Start(ctx context.Context) error
}
