package interfaces

import "github.com/dep2p/go-remotenet/pkg/types"

// ServerInfoSource 服务器元数据读取接口
//
// 由持久化协作方实现，核心只读取。
type ServerInfoSource interface {
	// ServerInfo 查找节点对应的服务器元数据
	ServerInfo(key types.NodeKey) (types.ServerInfo, bool)
}
