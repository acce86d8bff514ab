package remotenet

import (
	"github.com/dep2p/go-remotenet/internal/core/lifecycle"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// BuildInfo 构建信息（通过 ldflags 注入）
var (
	// GitCommit Git 提交哈希
	GitCommit string

	// BuildDate 构建日期
	BuildDate string
)

// VersionInfo 返回完整版本信息字符串
func VersionInfo() string {
	info := "remotenet " + Version
	if GitCommit != "" {
		info += " (" + GitCommit[:min(8, len(GitCommit))] + ")"
	}
	if BuildDate != "" {
		info += " built " + BuildDate
	}
	return info
}

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

type (
	// NodeKey 远端节点标识
	NodeKey = types.NodeKey

	// Schema 传输方案
	Schema = types.Schema

	// SocksProxy SOCKS 隧道描述符
	SocksProxy = types.SocksProxy

	// ServerInfo 服务器元数据
	ServerInfo = types.ServerInfo

	// ProxySettings 服务器元数据中的代理配置
	ProxySettings = types.ProxySettings

	// EnvironmentLocked 环境锁定事件
	EnvironmentLocked = types.EnvironmentLocked

	// Request 远端调用请求
	Request = interfaces.Request

	// Response 远端调用响应
	Response = interfaces.Response

	// RemoteClient 远端节点客户端
	RemoteClient = interfaces.RemoteClient

	// ClientFactory 客户端工厂
	ClientFactory = interfaces.ClientFactory

	// ServerInfoSource 服务器元数据来源
	ServerInfoSource = interfaces.ServerInfoSource

	// LifeCycle 可启停组件
	LifeCycle = interfaces.LifeCycle

	// Participant 带顺序的启停参与者
	Participant = lifecycle.Participant
)

// 内置与预留方案
var (
	SchemaHTTP  = types.SchemaHTTP
	SchemaHTTPS = types.SchemaHTTPS
	SchemaWSS   = types.SchemaWSS

	SchemaKAYAK = types.SchemaKAYAK
	SchemaECIF  = types.SchemaECIF
	SchemaGXP   = types.SchemaGXP
)

// ParseNodeKey 解析 "schema://host:port"
func ParseNodeKey(s string) (NodeKey, error) {
	return types.ParseNodeKey(s)
}

// NewNodeKey 创建并校验节点标识
func NewNodeKey(host string, port uint16, schema Schema) (NodeKey, error) {
	return types.NewNodeKey(host, port, schema)
}

// Extension 创建扩展方案
func Extension(name string) (Schema, error) {
	return types.Extension(name)
}

// NewParticipant 创建启停参与者，order 越小越先启动
func NewParticipant(name string, order int, component LifeCycle) Participant {
	return lifecycle.NewParticipant(name, order, component)
}

// NewKey 创建类型化能力键，用于 Node.SetValue / Value
func NewKey[T any](name string) types.GenericKey[T] {
	return types.NewGenericKey[T](name)
}
