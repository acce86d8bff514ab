package interfaces

import "context"

// LifeCycle 可启停组件
//
// 启动顺序不在这里表达：顺序是注册时附带的值（见 lifecycle.Participant），
// 组件本身只负责启停。
type LifeCycle interface {
	// Start 启动组件
	Start(ctx context.Context) error

	// Stop 停止组件，只会对成功启动过的组件调用
	Stop(ctx context.Context) error
}
