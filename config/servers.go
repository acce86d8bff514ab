package config

import (
	"fmt"

	"github.com/dep2p/go-remotenet/pkg/types"
)

// ServerConfig 服务器元数据配置项
//
// 与 types.ServerInfo 同构，Environment 为空时继承 Config.Environment。
type ServerConfig = types.ServerInfo

// ServerInfos 返回补全环境标识后的服务器元数据
func (c *Config) ServerInfos() []types.ServerInfo {
	out := make([]types.ServerInfo, 0, len(c.Servers))
	for _, s := range c.Servers {
		if s.Environment == "" {
			s.Environment = c.Environment
		}
		out = append(out, s)
	}
	return out
}

func validateServers(servers []ServerConfig) error {
	seen := make(map[string]struct{}, len(servers))
	for i, s := range servers {
		key, err := s.NodeKey()
		if err != nil {
			return fmt.Errorf("#%d: %w", i, err)
		}
		if _, err := s.SocksProxy(); err != nil {
			return fmt.Errorf("#%d: %w", i, err)
		}
		id := s.Environment + "|" + key.String()
		if _, dup := seen[id]; dup {
			return fmt.Errorf("#%d: duplicate server %s in environment %q", i, key, s.Environment)
		}
		seen[id] = struct{}{}
	}
	return nil
}
