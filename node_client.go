package remotenet

import (
	"context"
	"net"
	"time"

	"github.com/dep2p/go-remotenet/internal/core/registry"
)

// ClientStats 缓存客户端快照
type ClientStats = registry.EntryStats

// ════════════════════════════════════════════════════════════════════════════
//                              客户端
// ════════════════════════════════════════════════════════════════════════════

// Resolve 返回节点的客户端，首次访问时构造
//
// 同一节点的并发首访只构造一次；构造失败不缓存，下次 Resolve 重新构造。
// 返回的客户端由节点持有，调用方不要 Close。
func (n *Node) Resolve(ctx context.Context, key NodeKey) (RemoteClient, error) {
	if err := n.running(); err != nil {
		return nil, err
	}
	return n.rt.Registry.Resolve(ctx, key)
}

// ResolveString 解析 "schema://host:port" 后 Resolve
func (n *Node) ResolveString(ctx context.Context, s string) (RemoteClient, error) {
	key, err := ParseNodeKey(s)
	if err != nil {
		return nil, err
	}
	return n.Resolve(ctx, key)
}

// Call 向节点发起一次请求
//
// 失败不自动重试；客户端损坏时由存活巡检或 Evict 清理。
func (n *Node) Call(ctx context.Context, key NodeKey, req *Request) (*Response, error) {
	client, err := n.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	return client.Call(ctx, req)
}

// Evict 移除并关闭节点的客户端
func (n *Node) Evict(key NodeKey) error {
	if err := n.running(); err != nil {
		return err
	}
	return n.rt.Registry.Evict(key)
}

// EvictAll 移除并关闭全部客户端
func (n *Node) EvictAll() error {
	if err := n.running(); err != nil {
		return err
	}
	return n.rt.Registry.EvictAll()
}

// Clients 返回缓存客户端快照
func (n *Node) Clients() []ClientStats {
	return n.rt.Registry.Snapshot()
}

// RegisterFactory 为方案注册或替换客户端工厂
//
// 已缓存的客户端不受影响。
func (n *Node) RegisterFactory(schema Schema, factory ClientFactory) error {
	return n.rt.Registry.RegisterFactory(schema, factory)
}

// Schemes 返回已注册的方案标识
func (n *Node) Schemes() []string {
	return n.rt.Registry.Schemes().Schemes()
}

// ════════════════════════════════════════════════════════════════════════════
//                              服务器元数据
// ════════════════════════════════════════════════════════════════════════════

// PutServer 写入服务器元数据，已锁定的环境不能修改
func (n *Node) PutServer(info ServerInfo) error {
	if info.Environment == "" {
		info.Environment = n.rt.Config.Environment
	}
	return n.rt.ServerInfo.Put(info)
}

// LockEnvironment 锁定环境
//
// 锁定的元数据成为权威配置；该环境下代理配置变化或已下线节点的客户端被驱逐。
func (n *Node) LockEnvironment(env string) (EnvironmentLocked, error) {
	return n.rt.ServerInfo.Lock(env)
}

// LockedEnvironments 返回注册表已应用的环境锁定
func (n *Node) LockedEnvironments() map[string]time.Time {
	return n.rt.Registry.LockedEnvironments()
}

// ════════════════════════════════════════════════════════════════════════════
//                              代理服务器
// ════════════════════════════════════════════════════════════════════════════

// ProxyAddr 返回本地代理服务器的监听地址
func (n *Node) ProxyAddr() (net.Addr, error) {
	if n.rt.ProxyServer == nil {
		return nil, ErrProxyDisabled
	}
	if err := n.running(); err != nil {
		return nil, err
	}
	return n.rt.ProxyServer.Addr(), nil
}
