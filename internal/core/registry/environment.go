package registry

import (
	"maps"
	"sort"
	"time"

	"github.com/dep2p/go-remotenet/pkg/types"
)

// EnvironmentLocked 处理环境锁定通知
//
// 锁定的服务器列表成为该环境的权威元数据，替换此前收到的同环境覆盖。
// 属于该环境的缓存客户端中，代理配置发生变化或节点已不在列表中的会被驱逐；
// 其他环境（或构造时没有元数据）的缓存客户端，若节点出现在锁定列表中且代理不同，
// 同样被驱逐。下次 Resolve 时按新配置重建。返回被驱逐的节点。
func (r *Registry) EnvironmentLocked(evt types.EnvironmentLocked) []types.NodeKey {
	next := make(map[types.NodeKey]types.ServerInfo, len(evt.Servers))
	for _, s := range evt.Servers {
		if s.Environment == "" {
			s.Environment = evt.Environment
		}
		key, err := s.NodeKey()
		if err != nil {
			logger.Warn("忽略无效的服务器元数据", "environment", evt.Environment, "server", s.Name, "error", err)
			continue
		}
		next[key] = s
	}

	r.overridesMu.Lock()
	for key, s := range r.overrides {
		if s.Environment == evt.Environment {
			delete(r.overrides, key)
		}
	}
	for key, s := range next {
		r.overrides[key] = s
	}
	r.locked[evt.Environment] = evt.LockedAt
	r.overridesMu.Unlock()

	var evicted []types.NodeKey
	r.entries.Range(func(k, v any) bool {
		key, e := k.(types.NodeKey), v.(*entry)
		if e.environment != evt.Environment {
			if _, listed := next[key]; !listed {
				return true
			}
		}
		if !stale(key, e, next) {
			return true
		}
		if err := r.evict(key, reasonEnvironment); err != nil {
			logger.Warn("环境锁定驱逐失败", "node", key.String(), "error", err)
		}
		evicted = append(evicted, key)
		return true
	})

	sort.Slice(evicted, func(i, j int) bool {
		return evicted[i].String() < evicted[j].String()
	})

	logger.Info("环境已锁定",
		"environment", evt.Environment,
		"servers", len(next),
		"evicted", len(evicted))
	return evicted
}

// LockedEnvironments 返回已锁定的环境及锁定时间
func (r *Registry) LockedEnvironments() map[string]time.Time {
	r.overridesMu.RLock()
	defer r.overridesMu.RUnlock()
	return maps.Clone(r.locked)
}

// stale 判断缓存条目在新元数据下是否失效
func stale(key types.NodeKey, e *entry, next map[types.NodeKey]types.ServerInfo) bool {
	s, ok := next[key]
	if !ok {
		return true
	}
	p, err := s.SocksProxy()
	if err != nil {
		return true
	}
	return !sameProxy(p, e.proxy)
}

func sameProxy(a, b *types.SocksProxy) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
