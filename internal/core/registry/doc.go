// Package registry 实现远端节点客户端注册表
//
// 注册表以 types.NodeKey 为键缓存 interfaces.RemoteClient：
//
//   - 命中缓存无锁（sync.Map）
//   - 未命中时按传输方案查找工厂，同一节点的并发构造通过 singleflight 合并为一次
//   - 构造失败不缓存，后续 Resolve 会重新构造
//   - Evict/EvictAll 同步关闭底层客户端
//
// 节点的代理配置来自 interfaces.ServerInfoSource，
// 以及通过 EnvironmentLocked 收到的锁定环境服务器列表（优先）。
//
// 注册表本身是启停序列的参与者：Start 之前和 Stop 之后 Resolve 都会失败，
// Stop 会驱逐全部缓存客户端。
package registry

import (
	"github.com/dep2p/go-remotenet/pkg/lib/log"
)

var logger = log.Logger("core/registry")
