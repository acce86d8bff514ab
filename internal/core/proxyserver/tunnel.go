package proxyserver

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// copyBufferSize 单次读取缓冲区
const copyBufferSize = 32 * 1024

// tunnel 一条客户端到目标的隧道
type tunnel struct {
	id     string
	client net.Conn

	// lastActive 任一方向最近一次有流量的时间（UnixNano）
	lastActive  atomic.Int64
	established atomic.Bool

	mu     sync.Mutex
	target net.Conn
	closed bool
}

// attach 关联目标连接，隧道已关闭时关闭目标并返回 false
func (t *tunnel) attach(target net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		_ = target.Close()
		return false
	}
	t.target = target
	return true
}

// close 关闭两端连接
func (t *tunnel) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	_ = t.client.Close()
	if t.target != nil {
		_ = t.target.Close()
	}
}

func (t *tunnel) touch() {
	t.lastActive.Store(time.Now().UnixNano())
}

func (t *tunnel) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, t.lastActive.Load()))
}

// pipe 双向转发直到两个方向都结束
//
// in 是客户端方向的读端（握手解析可能已缓冲了部分数据）。
// 一个方向读到 EOF 时半关闭对端写方向；任一方向出错时关闭整条隧道。
// 空闲按整条隧道计算：只要任一方向有流量，两个方向都不会超时。
func (s *Server) pipe(t *tunnel, in io.Reader) (up, down int64, err error) {
	g, ctx := errgroup.WithContext(s.ctx)
	stop := context.AfterFunc(ctx, t.close)
	defer stop()

	t.touch()
	var idle atomic.Bool
	if d := s.cfg.IdleTimeout; d > 0 {
		done := make(chan struct{})
		defer close(done)
		go watchIdle(t, d, done, &idle)
	}

	g.Go(func() error {
		n, err := s.copyWithLimit(ctx, t, t.target, in)
		up = n
		closeWrite(t.target)
		return err
	})
	g.Go(func() error {
		n, err := s.copyWithLimit(ctx, t, t.client, t.target)
		down = n
		closeWrite(t.client)
		return err
	})

	err = g.Wait()
	if idle.Load() {
		err = ErrTunnelIdle
	}
	return up, down, err
}

// watchIdle 隧道空闲超过 d 时关闭隧道
func watchIdle(t *tunnel, d time.Duration, done <-chan struct{}, idle *atomic.Bool) {
	ticker := time.NewTicker(max(d/4, 10*time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			if t.idleFor(now) >= d {
				idle.Store(true)
				t.close()
				return
			}
		}
	}
}

// copyWithLimit 带限速的复制，每次读写都刷新隧道活跃时间，正常 EOF 返回 nil
func (s *Server) copyWithLimit(ctx context.Context, t *tunnel, dst io.Writer, src io.Reader) (int64, error) {
	var limiter *rate.Limiter
	bufSize := copyBufferSize
	if bw := s.cfg.BandwidthLimit; bw > 0 {
		limiter = rate.NewLimiter(rate.Limit(bw), bw)
		// 单次读取不能超过令牌桶容量，否则 WaitN 直接失败
		bufSize = min(bufSize, bw)
	}

	buf := make([]byte, bufSize)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			t.touch()
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					return total, err
				}
			}
			written, werr := dst.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			t.touch()
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return total, nil
			}
			return total, rerr
		}
	}
}

// closeWrite 半关闭写方向
func closeWrite(c net.Conn) {
	if cw, ok := c.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
}
