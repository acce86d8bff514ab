// Package wsclient 实现 WSS 方案的远端客户端
//
// 每个客户端持有一条 WebSocket 连接，Call 以二进制消息发送请求体并读取一条回复。
// 同一客户端上的 Call 串行执行。
package wsclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dep2p/go-remotenet/internal/core/transport/dialer"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("core/transport/ws")

var (
	// ErrClosed 客户端已关闭
	ErrClosed = errors.New("websocket client closed")

	// ErrNotWSSchema 节点方案不是 WSS
	ErrNotWSSchema = errors.New("schema is not WSS")

	// ErrBroken 连接在之前的读写中出错，gorilla 连接出错后不可再用
	ErrBroken = errors.New("websocket connection broken")
)

// Options WSS 客户端选项
type Options struct {
	// Path 握手路径
	Path string

	DialTimeout    time.Duration
	RequestTimeout time.Duration
	KeepAlive      time.Duration

	// Header 握手请求头
	Header http.Header

	TLSConfig          *tls.Config
	InsecureSkipVerify bool
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		Path:           "/",
		DialTimeout:    5 * time.Second,
		RequestTimeout: 30 * time.Second,
		KeepAlive:      30 * time.Second,
	}
}

// Client WSS 远端客户端
type Client struct {
	id      string
	key     types.NodeKey
	timeout time.Duration

	mu     sync.Mutex // 串行化 Call
	conn   *websocket.Conn
	closed atomic.Bool
	broken atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

var _ interfaces.RemoteClient = (*Client)(nil)

// NewFactory 返回 WSS 客户端工厂
func NewFactory(opts Options) interfaces.ClientFactory {
	return func(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy) (interfaces.RemoteClient, error) {
		return Dial(ctx, key, proxy, opts)
	}
}

// Dial 建立 WebSocket 连接并创建客户端
func Dial(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy, opts Options) (*Client, error) {
	if key.Schema.Builtin() != types.BuiltinWSS {
		return nil, fmt.Errorf("%w: %s", ErrNotWSSchema, key.Schema)
	}

	dial, err := dialer.New(&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: opts.KeepAlive}, proxy)
	if err != nil {
		return nil, err
	}

	tlsCfg := opts.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	} else {
		tlsCfg = tlsCfg.Clone()
	}
	if opts.InsecureSkipVerify {
		tlsCfg.InsecureSkipVerify = true
	}

	d := websocket.Dialer{
		NetDialContext:   dial,
		TLSClientConfig:  tlsCfg,
		HandshakeTimeout: opts.DialTimeout,
	}

	path := opts.Path
	if path == "" {
		path = "/"
	}
	url := key.URL(path)

	conn, resp, err := d.DialContext(ctx, url, opts.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket handshake %s: %w", url, err)
	}

	c := &Client{
		id:      uuid.NewString(),
		key:     key,
		timeout: opts.RequestTimeout,
		conn:    conn,
	}
	logger.Debug("WSS 客户端已连接", "node", key.String(), "client", log.TruncateID(c.id, 8), "proxied", proxy != nil)
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

// Call 发送一条二进制消息并等待一条回复
func (c *Client) Call(ctx context.Context, req *interfaces.Request) (*interfaces.Response, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken.Load() {
		return nil, ErrBroken
	}

	deadline, ctxDeadline := ctx.Deadline()
	if !ctxDeadline && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	// ctx 取消时打断阻塞的读
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	var body []byte
	if req != nil {
		body = req.Body
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, body); err != nil {
		c.broken.Store(true)
		return nil, fmt.Errorf("write message: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		// 被打断或超时的读也会使连接永久失效
		c.broken.Store(true)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// 读截止时间与 ctx 截止时间相同，计时器可能先于 ctx 触发
		var ne net.Error
		if ctxDeadline && errors.As(err, &ne) && ne.Timeout() {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read message: %w", err)
	}
	return &interfaces.Response{Body: data}, nil
}

// Alive 检查连接状态并发送 Ping 控制帧
func (c *Client) Alive(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.broken.Load() {
		return ErrBroken
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Second)
	}
	// WriteControl 可与其他写方法并发调用
	if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		c.broken.Store(true)
		return err
	}
	return nil
}

// Close 发送关闭帧并关闭连接，正在阻塞的 Call 会立即返回
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.closeErr = c.conn.Close()
		logger.Debug("WSS 客户端已关闭", "node", c.key.String(), "client", log.TruncateID(c.id, 8))
	})
	return c.closeErr
}
