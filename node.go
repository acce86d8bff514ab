package remotenet

import (
	"context"
	"fmt"
	"sync"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/app"
	"github.com/dep2p/go-remotenet/internal/core/ctxstore"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("remotenet")

// ════════════════════════════════════════════════════════════════════════════
//                              节点状态
// ════════════════════════════════════════════════════════════════════════════

// NodeState 节点状态
type NodeState int

const (
	// StateIdle 已创建，未启动
	StateIdle NodeState = iota

	// StateStarting 启动中
	StateStarting

	// StateRunning 运行中
	StateRunning

	// StateStopping 停止中
	StateStopping

	// StateStopped 已停止，不能再次启动
	StateStopped
)

// String 返回状态的字符串表示
func (s NodeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              Node
// ════════════════════════════════════════════════════════════════════════════

// Node remotenet 节点
//
// Node 是门面：聚合启停编排器、客户端注册表、服务器元数据存储
// 和可选的本地代理服务器。
type Node struct {
	mu    sync.Mutex
	state NodeState

	boot *app.Bootstrap
	rt   *app.Runtime
}

// New 创建节点（不启动）
//
// 模块在此时完成组装，配置错误和依赖缺失在这里返回。
func New(opts ...Option) (*Node, error) {
	o := newOptions()
	if err := o.apply(opts); err != nil {
		return nil, err
	}

	boot := app.NewBootstrap(o.cfg, o.boot...)
	rt, err := boot.Build()
	if err != nil {
		return nil, err
	}
	return &Node{boot: boot, rt: rt}, nil
}

// Start 创建并启动节点
func Start(ctx context.Context, opts ...Option) (*Node, error) {
	n, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := n.Start(ctx); err != nil {
		return nil, err
	}
	return n, nil
}

// Start 按 Order 升序启动全部参与者
//
// 启动失败时已启动的参与者已被逆序关闭，节点进入 StateStopped。
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	switch n.state {
	case StateIdle:
	case StateStopping, StateStopped:
		n.mu.Unlock()
		return ErrNodeClosed
	default:
		n.mu.Unlock()
		return ErrAlreadyStarted
	}
	n.state = StateStarting
	n.mu.Unlock()

	if _, err := n.boot.Start(ctx); err != nil {
		_ = n.boot.Stop(context.WithoutCancel(ctx))
		n.setState(StateStopped)
		return err
	}

	n.setState(StateRunning)
	logger.Info("节点已启动", "version", Version)
	return nil
}

// Stop 按启动顺序的逆序停止
//
// 注册表先驱逐并关闭全部客户端。重复调用返回 nil。
func (n *Node) Stop(ctx context.Context) error {
	n.mu.Lock()
	switch n.state {
	case StateStopping, StateStopped:
		n.mu.Unlock()
		return nil
	case StateIdle:
		n.state = StateStopped
		n.mu.Unlock()
		return nil
	}
	n.state = StateStopping
	n.mu.Unlock()

	err := n.boot.Stop(ctx)
	n.setState(StateStopped)
	if err != nil {
		return fmt.Errorf("停止节点: %w", err)
	}
	logger.Info("节点已停止")
	return nil
}

// Close 停止节点
func (n *Node) Close() error {
	return n.Stop(context.Background())
}

// State 返回节点状态
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Config 返回节点使用的配置，不应修改
func (n *Node) Config() *config.Config {
	return n.rt.Config
}

// StartedParticipants 返回已启动的参与者名称（按启动顺序）
func (n *Node) StartedParticipants() []string {
	return n.rt.Sequencer.Started()
}

func (n *Node) setState(s NodeState) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
}

// running 检查节点是否处于运行状态
func (n *Node) running() error {
	switch n.State() {
	case StateRunning:
		return nil
	case StateStopping, StateStopped:
		return ErrNodeClosed
	default:
		return ErrNotStarted
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              类型化能力
// ════════════════════════════════════════════════════════════════════════════

// SetValue 以类型化键存放一个值，每个键只能写一次
func SetValue[T any](n *Node, key types.GenericKey[T], v T) error {
	return ctxstore.Set(n.rt.Values, key, v)
}

// Value 以类型化键读取值
//
// 节点内置能力的键名：config、sequencer、registry、serverinfo、proxy-server。
func Value[T any](n *Node, key types.GenericKey[T]) (T, bool, error) {
	return ctxstore.Get(n.rt.Values, key)
}
