// Package types 定义 remotenet 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 remotenet 内部包。
// 所有类型都是不可变的纯值类型，可以直接比较，可以作为 map 键。
//
// # 文件组织
//
// 寻址类型:
//   - schema.go      - Schema 传输方案（内置枚举 + 扩展标识）
//   - node_key.go    - NodeKey 远端节点标识（host, port, schema）
//   - socks.go       - SocksProxy 隧道代理描述符
//
// 上下文类型:
//   - generic_key.go - GenericKey[T] 类型化能力键
//
// 元数据类型:
//   - server_info.go - ServerInfo 服务器元数据, EnvironmentLocked 环境锁定事件
//
// 错误:
//   - errors.go      - 公共错误定义
package types
