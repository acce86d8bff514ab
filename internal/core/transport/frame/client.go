package frame

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-remotenet/internal/core/transport/dialer"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("core/transport/frame")

// ErrClosed 客户端已关闭
var ErrClosed = errors.New("frame client closed")

// errBroken 连接在之前的 I/O 中出错
var errBroken = errors.New("frame connection broken")

// Options 帧客户端选项
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	KeepAlive      time.Duration
	MaxFrameSize   int
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		DialTimeout:    5 * time.Second,
		RequestTimeout: 30 * time.Second,
		KeepAlive:      30 * time.Second,
		MaxFrameSize:   DefaultMaxFrameSize,
	}
}

// Client 帧传输客户端
type Client struct {
	id      string
	key     types.NodeKey
	opts    Options
	conn    net.Conn
	mu      sync.Mutex // 串行化请求/响应
	closed  atomic.Bool
	broken  atomic.Bool
	closeMu sync.Once
	err     error
}

var _ interfaces.RemoteClient = (*Client)(nil)

// NewFactory 返回帧传输客户端工厂，可绑定到任意方案
func NewFactory(opts Options) interfaces.ClientFactory {
	return func(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy) (interfaces.RemoteClient, error) {
		return Dial(ctx, key, proxy, opts)
	}
}

// Dial 连接节点并创建客户端
func Dial(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy, opts Options) (*Client, error) {
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = DefaultMaxFrameSize
	}

	dial, err := dialer.New(&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: opts.KeepAlive}, proxy)
	if err != nil {
		return nil, err
	}
	conn, err := dial(ctx, "tcp", key.Address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", key.Address(), err)
	}

	c := &Client{
		id:   uuid.NewString(),
		key:  key,
		opts: opts,
		conn: conn,
	}
	logger.Debug("帧客户端已连接", "node", key.String(), "client", log.TruncateID(c.id, 8), "proxied", proxy != nil)
	return c, nil
}

// ID 返回客户端实例 ID
func (c *Client) ID() string {
	return c.id
}

// NodeKey 返回所连接的节点
func (c *Client) NodeKey() types.NodeKey {
	return c.key
}

// Call 写入请求帧并读取一帧响应
//
// 任何 I/O 错误都会把连接标记为损坏，Alive 随后失败，
// 注册表的存活巡检据此驱逐并重建客户端。
func (c *Client) Call(ctx context.Context, req *interfaces.Request) (*interfaces.Response, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken.Load() {
		return nil, errBroken
	}

	deadline, ok := ctx.Deadline()
	if !ok && c.opts.RequestTimeout > 0 {
		deadline = time.Now().Add(c.opts.RequestTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	var body []byte
	if req != nil {
		body = req.Body
	}
	if err := WriteFrame(c.conn, body, c.opts.MaxFrameSize); err != nil {
		if !errors.Is(err, ErrFrameTooLarge) {
			c.broken.Store(true)
		}
		return nil, err
	}
	data, err := ReadFrame(c.conn, c.opts.MaxFrameSize)
	if err != nil {
		c.broken.Store(true)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return &interfaces.Response{Body: data}, nil
}

// Alive 检查连接状态
func (c *Client) Alive(context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.broken.Load() {
		return errBroken
	}
	return nil
}

// Close 关闭连接
func (c *Client) Close() error {
	c.closeMu.Do(func() {
		c.closed.Store(true)
		c.err = c.conn.Close()
		logger.Debug("帧客户端已关闭", "node", c.key.String(), "client", log.TruncateID(c.id, 8))
	})
	return c.err
}
