package types

import "errors"

// ============================================================================
//                              生命周期相关错误
// ============================================================================

var (
	// ErrDuplicateRegistration 同一参与者被重复注册
	ErrDuplicateRegistration = errors.New("duplicate lifecycle registration")

	// ErrBootstrapFailed 参与者启动失败
	ErrBootstrapFailed = errors.New("bootstrap failed")
)

// ============================================================================
//                              注册表相关错误
// ============================================================================

var (
	// ErrUnsupportedScheme 没有为该传输方案注册工厂
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrClientConstruction 客户端构造失败
	ErrClientConstruction = errors.New("client construction failed")

	// ErrEviction 关闭已缓存客户端失败
	ErrEviction = errors.New("client eviction failed")
)

// ============================================================================
//                              寻址相关错误
// ============================================================================

var (
	// ErrEmptyHost 空主机名
	ErrEmptyHost = errors.New("empty host")

	// ErrInvalidPort 无效端口
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidSchema 无效传输方案标识
	ErrInvalidSchema = errors.New("invalid schema identifier")

	// ErrSchemaCollision 扩展标识与内置方案同名
	ErrSchemaCollision = errors.New("extension schema collides with builtin")

	// ErrInvalidNodeKey 无效节点标识
	ErrInvalidNodeKey = errors.New("invalid node key")
)

// ============================================================================
//                              代理相关错误
// ============================================================================

var (
	// ErrInvalidProxyAddress 代理地址为空或格式错误
	ErrInvalidProxyAddress = errors.New("invalid proxy address")

	// ErrUnsupportedProxyVersion 不支持的 SOCKS 版本
	ErrUnsupportedProxyVersion = errors.New("unsupported socks version")
)
