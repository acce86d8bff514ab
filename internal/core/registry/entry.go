package registry

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// entry 缓存条目，独占持有客户端
type entry struct {
	client      interfaces.RemoteClient
	proxy       *types.SocksProxy
	environment string
	createdAt   time.Time

	lastUsed atomic.Int64 // UnixNano
	uses     atomic.Uint64
}

func newEntry(client interfaces.RemoteClient, proxy *types.SocksProxy, env string, now time.Time) *entry {
	e := &entry{
		client:      client,
		proxy:       proxy,
		environment: env,
		createdAt:   now,
	}
	e.lastUsed.Store(now.UnixNano())
	return e
}

func (e *entry) touch(now time.Time) {
	e.lastUsed.Store(now.UnixNano())
	e.uses.Add(1)
}

// EntryStats 缓存条目统计
type EntryStats struct {
	Key         types.NodeKey
	ClientID    string
	Environment string
	Proxied     bool
	CreatedAt   time.Time
	LastUsed    time.Time
	Uses        uint64
}

// Snapshot 返回当前缓存条目的统计，按节点标识排序
func (r *Registry) Snapshot() []EntryStats {
	var out []EntryStats
	r.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		out = append(out, EntryStats{
			Key:         k.(types.NodeKey),
			ClientID:    e.client.ID(),
			Environment: e.environment,
			Proxied:     e.proxy != nil,
			CreatedAt:   e.createdAt,
			LastUsed:    time.Unix(0, e.lastUsed.Load()),
			Uses:        e.uses.Load(),
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
