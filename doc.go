// Package remotenet 提供远端节点客户端注册表与有序启停编排
//
// remotenet 是远程调用框架的核心：调用方以节点标识（方案 + 主机 + 端口）
// 向注册表请求客户端，注册表按节点缓存，同一节点同时只构造一次；
// 传输方案分为内置（HTTP/HTTPS/WSS）与扩展（任意字符串标识）两层；
// 出站连接可经由 SOCKS5 代理；全部组件按 Order 升序启动、逆序关闭。
//
// # 快速开始
//
//	import "github.com/dep2p/go-remotenet"
//
//	node, err := remotenet.Start(ctx,
//	    remotenet.WithFactory(remotenet.SchemaKAYAK, kayakFactory),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	key, _ := remotenet.ParseNodeKey("HTTPS://api.example:443")
//	client, err := node.Resolve(ctx, key)
//	resp, err := client.Call(ctx, &remotenet.Request{Path: "/v1/ping"})
//
// # 启停顺序
//
//	┌──────────────────────────────────────────────────────────┐
//	│  Order -100  proxy-server   本地 SOCKS5 代理（可选）        │
//	│  Order    0  用户参与者      WithParticipant               │
//	│  Order  100  registry       客户端注册表                    │
//	└──────────────────────────────────────────────────────────┘
//
// 关闭时注册表先驱逐并关闭全部缓存客户端，代理服务器最后关闭监听。
//
// # 文件组织
//
//	remotenet/
//	├── doc.go        # 包文档
//	├── remotenet.go  # 版本信息、公共类型别名
//	├── node.go       # Node 结构、New/Start/Stop
//	├── node_client.go # Resolve、Evict、环境锁定
//	├── options.go    # WithXxx 配置选项
//	└── errors.go     # 错误定义
package remotenet
