package proxyserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/things-go/go-socks5"
	"github.com/things-go/go-socks5/statute"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
)

var (
	_ interfaces.ProxyServer = (*Server)(nil)
	_ interfaces.LifeCycle   = (*Server)(nil)
)

// ============================================================================
//                              Server 实现
// ============================================================================

// Server SOCKS5 代理服务器
type Server struct {
	cfg      Config
	resolver *resolver
	dialer   *net.Dialer
	socks    *socks5.Server

	mu sync.Mutex
	ln net.Listener
	// tunnels 按客户端远端地址索引
	tunnels map[string]*tunnel

	running atomic.Bool
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	active atomic.Int64
	stats  counters
}

// counters 统计计数
type counters struct {
	accepted     atomic.Uint64
	rejected     atomic.Uint64
	authFailures atomic.Uint64
	tunnels      atomic.Uint64
	failed       atomic.Uint64
	bytesUp      atomic.Uint64
	bytesDown    atomic.Uint64
}

// Stats 服务器统计
type Stats struct {
	// Accepted 接受的连接数
	Accepted uint64

	// Rejected 因并发上限被拒绝的连接数
	Rejected uint64

	// AuthFailures 认证失败次数
	AuthFailures uint64

	// Tunnels 成功建立的隧道总数
	Tunnels uint64

	// Failed 握手或连接目标失败次数
	Failed uint64

	// ActiveTunnels 当前活跃隧道
	ActiveTunnels int

	// BytesUp 客户端 → 目标 字节数
	BytesUp uint64

	// BytesDown 目标 → 客户端 字节数
	BytesDown uint64

	// CachedHosts 解析缓存条目数
	CachedHosts int
}

// New 创建代理服务器
func New(cfg Config) *Server {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	s := &Server{
		cfg:      cfg,
		resolver: newResolver(cfg.DNSCacheSize, cfg.DNSCacheTTL),
		dialer:   &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second},
		tunnels:  make(map[string]*tunnel),
	}
	s.socks = s.newSocks()
	return s
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 绑定监听地址并开始接受连接
//
// 绑定在返回前同步完成，失败时返回错误且不会留下任何后台协程。
func (s *Server) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.ListenAddr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("proxy server listen %s: %w", s.cfg.ListenAddr, err)
	}

	// 内部 ctx 随服务器存活，不能使用 Start 的 ctx
	s.mu.Lock()
	s.ln = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)

	logger.Info("代理服务器已启动",
		"addr", ln.Addr().String(),
		"auth", len(s.cfg.Users) > 0,
		"maxConns", s.cfg.MaxConns,
		"bandwidthLimit", s.cfg.BandwidthLimit)
	return nil
}

// Stop 关闭监听和全部隧道，等待处理协程退出或 ctx 结束
func (s *Server) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	ln, cancel := s.ln, s.cancel
	tunnels := make([]*tunnel, 0, len(s.tunnels))
	for _, t := range s.tunnels {
		tunnels = append(tunnels, t)
	}
	s.mu.Unlock()

	if !s.running.Load() || ln == nil {
		return nil
	}

	var err error
	if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = cerr
	}
	cancel()
	for _, t := range tunnels {
		t.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("等待隧道退出超时", "active", s.active.Load())
		return errors.Join(err, ctx.Err())
	}

	s.running.Store(false)
	logger.Info("代理服务器已停止", "tunnels", s.stats.tunnels.Load())
	return err
}

// Addr 返回实际监听地址，未启动时返回 nil
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Stats 返回统计信息
func (s *Server) Stats() Stats {
	return Stats{
		Accepted:      s.stats.accepted.Load(),
		Rejected:      s.stats.rejected.Load(),
		AuthFailures:  s.stats.authFailures.Load(),
		Tunnels:       s.stats.tunnels.Load(),
		Failed:        s.stats.failed.Load(),
		ActiveTunnels: int(s.active.Load()),
		BytesUp:       s.stats.bytesUp.Load(),
		BytesDown:     s.stats.bytesDown.Load(),
		CachedHosts:   s.resolver.cached(),
	}
}

// ============================================================================
//                              连接处理
// ============================================================================

// acceptLoop 接受循环
func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.closed.Load() {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			logger.Warn("接受连接失败", "error", err)
			return
		}

		if limit := s.cfg.MaxConns; limit > 0 && s.active.Load() >= int64(limit) {
			s.stats.rejected.Add(1)
			logger.Debug("超过并发上限，拒绝连接", "remote", conn.RemoteAddr().String(), "max", limit)
			_ = conn.Close()
			continue
		}

		s.stats.accepted.Add(1)
		s.active.Add(1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.active.Add(-1)
			s.handle(conn)
		}()
	}
}

// handle 处理一个客户端连接
//
// 握手和请求解析由 socks5.Server 完成，CONNECT 回到 handleConnect。
func (s *Server) handle(conn net.Conn) {
	t := &tunnel{id: uuid.NewString(), client: conn}
	if !s.track(t) {
		_ = conn.Close()
		return
	}
	defer s.untrack(t)
	defer t.close()

	_ = conn.SetDeadline(time.Now().Add(s.cfg.HandshakeTimeout))

	err := s.socks.ServeConn(conn)
	if err != nil && !t.established.Load() {
		s.stats.failed.Add(1)
		logger.Debug("SOCKS 握手失败", "session", log.TruncateID(t.id, 8), "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// handleConnect 连接目标、回复客户端并转发数据
func (s *Server) handleConnect(_ context.Context, w io.Writer, req *socks5.Request) error {
	t := s.session(req.RemoteAddr)
	if t == nil {
		_ = socks5.SendReply(w, statute.RepServerFailure, nil)
		return errNoSession
	}
	id := log.TruncateID(t.id, 8)
	addr := destination(req)

	dialCtx, cancel := context.WithTimeout(s.ctx, s.cfg.DialTimeout)
	target, err := s.dialer.DialContext(dialCtx, "tcp", addr)
	cancel()
	if err != nil {
		if fqdn := req.DestAddr.FQDN; fqdn != "" {
			s.resolver.forget(fqdn)
		}
		_ = socks5.SendReply(w, replyCode(err), nil)
		logger.Debug("连接目标失败", "session", id, "target", addr, "error", err)
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	if !t.attach(target) {
		return ErrServerClosed
	}

	if err := socks5.SendReply(w, statute.RepSuccess, target.LocalAddr()); err != nil {
		return err
	}
	_ = t.client.SetDeadline(time.Time{})
	t.established.Store(true)

	s.stats.tunnels.Add(1)
	logger.Debug("隧道已建立", "session", id, "target", addr)

	up, down, err := s.pipe(t, req.Reader)
	s.stats.bytesUp.Add(uint64(up))
	s.stats.bytesDown.Add(uint64(down))

	logger.Debug("隧道关闭",
		"session", id,
		"target", addr,
		"up", up,
		"down", down,
		"error", err)
	return err
}

func (s *Server) track(t *tunnel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.tunnels[t.client.RemoteAddr().String()] = t
	return true
}

func (s *Server) untrack(t *tunnel) {
	s.mu.Lock()
	delete(s.tunnels, t.client.RemoteAddr().String())
	s.mu.Unlock()
}

// session 按客户端地址找回隧道
func (s *Server) session(remote net.Addr) *tunnel {
	if remote == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tunnels[remote.String()]
}
