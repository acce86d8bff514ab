// Package interfaces 定义 remotenet 的公共接口
//
// 扁平组织，一个接口文件对应一个实现目录：
//   - lifecycle.go   - LifeCycle 启停契约（internal/core/lifecycle）
//   - client.go      - RemoteClient 远端客户端与 ClientFactory（internal/core/registry, internal/core/transport）
//   - proxy.go       - ProxyServer 代理服务器契约（internal/core/proxyserver）
//   - serverinfo.go  - ServerInfoSource 元数据读取（internal/core/serverinfo）
//
// 接口只依赖 pkg/types。
package interfaces
