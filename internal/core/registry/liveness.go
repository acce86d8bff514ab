package registry

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-remotenet/pkg/types"
)

// CheckLiveness 检查全部缓存客户端，驱逐 Alive 失败的客户端
//
// 返回被驱逐的节点。
func (r *Registry) CheckLiveness(ctx context.Context) []types.NodeKey {
	type candidate struct {
		key types.NodeKey
		e   *entry
	}
	var all []candidate
	r.entries.Range(func(k, v any) bool {
		all = append(all, candidate{key: k.(types.NodeKey), e: v.(*entry)})
		return true
	})

	var evicted []types.NodeKey
	for _, c := range all {
		if ctx.Err() != nil {
			break
		}
		cctx, cancel := context.WithTimeout(ctx, r.cfg.LivenessTimeout)
		err := c.e.client.Alive(cctx)
		cancel()
		if err == nil {
			continue
		}

		// 检查期间条目可能已被替换
		if cur, ok := r.lookup(c.key); !ok || cur != c.e {
			continue
		}
		logger.Info("客户端存活检查失败，驱逐", "node", c.key.String(), "client", c.e.client.ID(), "error", err)
		if err := r.evict(c.key, reasonLiveness); err != nil {
			logger.Warn("驱逐失败", "node", c.key.String(), "error", err)
		}
		evicted = append(evicted, c.key)
	}
	return evicted
}

// livenessLoop 后台巡检
func (r *Registry) livenessLoop(ctx context.Context, ticker *clock.Ticker) {
	defer close(r.loopDone)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.CheckLiveness(ctx); len(evicted) > 0 {
				logger.Debug("存活巡检完成", "evicted", len(evicted))
			}
		}
	}
}
