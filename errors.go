package remotenet

import (
	"errors"

	"github.com/dep2p/go-remotenet/internal/core/ctxstore"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 节点生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("node closed")

	// ErrProxyDisabled 未启用本地代理服务器
	ErrProxyDisabled = errors.New("proxy server disabled")

	// ────────────────────────────────────────────────────────────────────────
	// 核心错误（与内部包共享同一哨兵）
	// ────────────────────────────────────────────────────────────────────────

	ErrBootstrapFailed         = types.ErrBootstrapFailed
	ErrDuplicateRegistration   = types.ErrDuplicateRegistration
	ErrUnsupportedScheme       = types.ErrUnsupportedScheme
	ErrClientConstruction      = types.ErrClientConstruction
	ErrEviction                = types.ErrEviction
	ErrInvalidNodeKey          = types.ErrInvalidNodeKey
	ErrUnsupportedProxyVersion = types.ErrUnsupportedProxyVersion

	// ────────────────────────────────────────────────────────────────────────
	// 能力键错误
	// ────────────────────────────────────────────────────────────────────────

	ErrKeyAlreadySet   = ctxstore.ErrKeyAlreadySet
	ErrKeyTypeMismatch = ctxstore.ErrKeyTypeMismatch
	ErrKeyNotFound     = ctxstore.ErrKeyNotFound
)
