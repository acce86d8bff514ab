// Package lifecycle 提供组件启停编排
//
// 本模块的核心职责：
//  1. 为每个参与者分配确定的启动/关闭位置（Order + 注册序号）
//  2. 升序启动、降序关闭；启动失败时保留已启动列表供补偿关闭
//  3. 提供阶段 gate，让外部在序列推进到指定阶段前等待
//
// 参与者的顺序是注册时给出的值，不是组件自身的方法：
// 组件只实现 interfaces.LifeCycle，比较逻辑由 Compare 提供。
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/dep2p/go-remotenet/pkg/lib/log"
)

var logger = log.Logger("core/lifecycle")

// ============================================================================
//                              阶段定义
// ============================================================================

// Phase 启停序列阶段
type Phase int

const (
	// PhaseCreated 已创建，未启动
	PhaseCreated Phase = iota

	// PhaseStarting 正在按升序启动参与者
	PhaseStarting

	// PhaseRunning 全部参与者已启动
	PhaseRunning

	// PhaseFailed 启动过程中有参与者失败
	PhaseFailed

	// PhaseStopping 正在按降序停止参与者
	PhaseStopping

	// PhaseStopped 已停止
	PhaseStopped
)

// String 返回阶段字符串表示
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseStarting:
		return "starting"
	case PhaseRunning:
		return "running"
	case PhaseFailed:
		return "failed"
	case PhaseStopping:
		return "stopping"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

// ============================================================================
//                              阶段协调器
// ============================================================================

// coordinator 阶段协调器
//
// 追踪当前阶段，为每个阶段维护一个"到达即关闭"的信号 channel。
// 与单调推进不同，Failed 之后可以进入 Stopping，Stopped 之后不能再回到 Running。
type coordinator struct {
	mu sync.RWMutex

	phase Phase

	// 阶段到达信号：已关闭表示曾经到达过该阶段
	reached map[Phase]chan struct{}

	onPhaseChange []func(old, new Phase)
}

func newCoordinator() *coordinator {
	c := &coordinator{
		phase:   PhaseCreated,
		reached: make(map[Phase]chan struct{}),
	}
	for p := PhaseCreated; p <= PhaseStopped; p++ {
		c.reached[p] = make(chan struct{})
	}
	close(c.reached[PhaseCreated])
	return c
}

// current 返回当前阶段
func (c *coordinator) current() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// advance 切换到目标阶段并发出信号
func (c *coordinator) advance(target Phase) {
	c.mu.Lock()
	old := c.phase
	if old == target {
		c.mu.Unlock()
		return
	}
	c.phase = target
	ch := c.reached[target]
	select {
	case <-ch:
	default:
		close(ch)
	}
	callbacks := make([]func(old, new Phase), len(c.onPhaseChange))
	copy(callbacks, c.onPhaseChange)
	c.mu.Unlock()

	logger.Debug("启停阶段变更", "from", old.String(), "to", target.String())

	// 同步通知，回调不得阻塞
	for _, cb := range callbacks {
		cb(old, target)
	}
}

// waitFor 等待曾经到达指定阶段
func (c *coordinator) waitFor(ctx context.Context, phase Phase) error {
	c.mu.RLock()
	ch, ok := c.reached[phase]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("invalid phase: %d", phase)
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// subscribe 注册阶段变更回调
func (c *coordinator) subscribe(cb func(old, new Phase)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPhaseChange = append(c.onPhaseChange, cb)
}
