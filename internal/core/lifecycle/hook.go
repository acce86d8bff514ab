package lifecycle

import (
	"context"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
)

// Hook 由两个函数组成的 LifeCycle
//
// 任一函数为 nil 时对应操作为空操作。
type Hook struct {
	// OnStart 启动时调用
	OnStart func(context.Context) error

	// OnStop 停止时调用
	OnStop func(context.Context) error
}

var _ interfaces.LifeCycle = (*Hook)(nil)

// Start 实现 interfaces.LifeCycle
func (h *Hook) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

// Stop 实现 interfaces.LifeCycle
func (h *Hook) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}
