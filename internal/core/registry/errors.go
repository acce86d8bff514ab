package registry

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-remotenet/pkg/types"
)

var (
	// ErrRegistryNotRunning 注册表尚未启动
	ErrRegistryNotRunning = errors.New("registry not running")

	// ErrRegistryClosed 注册表已关闭
	ErrRegistryClosed = errors.New("registry closed")

	// ErrNilFactory 注册了 nil 工厂
	ErrNilFactory = errors.New("nil client factory")

	// errNilClient 工厂返回了 nil 客户端且没有错误
	errNilClient = errors.New("factory returned nil client")

	// errEvictedDuringConstruction 构造期间节点被驱逐
	errEvictedDuringConstruction = errors.New("node evicted during construction")
)

// UnsupportedSchemeError 没有为节点的传输方案注册工厂
type UnsupportedSchemeError struct {
	Schema types.Schema
}

// Error 实现 error 接口
func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported scheme %q", e.Schema.String())
}

// Is 匹配 types.ErrUnsupportedScheme
func (e *UnsupportedSchemeError) Is(target error) bool {
	return target == types.ErrUnsupportedScheme
}

// ClientConstructionError 客户端构造失败
//
// 包括工厂返回错误、构造超时、代理配置无效，以及调用方在等待期间取消。
type ClientConstructionError struct {
	Key types.NodeKey
	Err error
}

// Error 实现 error 接口
func (e *ClientConstructionError) Error() string {
	return fmt.Sprintf("construct client for %s: %v", e.Key, e.Err)
}

// Unwrap 返回底层错误
func (e *ClientConstructionError) Unwrap() error {
	return e.Err
}

// Is 匹配 types.ErrClientConstruction
func (e *ClientConstructionError) Is(target error) bool {
	return target == types.ErrClientConstruction
}

// EvictionError 关闭被驱逐的客户端失败
type EvictionError struct {
	Key      types.NodeKey
	ClientID string
	Err      error
}

// Error 实现 error 接口
func (e *EvictionError) Error() string {
	return fmt.Sprintf("evict %s (client %s): %v", e.Key, e.ClientID, e.Err)
}

// Unwrap 返回底层错误
func (e *EvictionError) Unwrap() error {
	return e.Err
}

// Is 匹配 types.ErrEviction
func (e *EvictionError) Is(target error) bool {
	return target == types.ErrEviction
}
