// Package httpclient 实现 HTTP / HTTPS 方案的远端客户端
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-remotenet/internal/core/transport/dialer"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
	"github.com/dep2p/go-remotenet/pkg/types"
)

var logger = log.Logger("core/transport/http")

var (
	// ErrClosed 客户端已关闭
	ErrClosed = errors.New("http client closed")

	// ErrNotHTTPSchema 节点方案不属于 HTTP/HTTPS
	ErrNotHTTPSchema = errors.New("schema is not HTTP or HTTPS")
)

// maxBodySize 单个响应体上限
const maxBodySize = 32 << 20

// Options HTTP 客户端选项
type Options struct {
	DialTimeout         time.Duration
	RequestTimeout      time.Duration
	KeepAlive           time.Duration
	MaxIdleConnsPerHost int

	// TLSConfig 可选，nil 时使用默认配置
	TLSConfig *tls.Config

	// InsecureSkipVerify 跳过证书校验
	InsecureSkipVerify bool

	// Probe 构造时先拨号一次确认可达
	Probe bool
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		DialTimeout:         5 * time.Second,
		RequestTimeout:      30 * time.Second,
		KeepAlive:           30 * time.Second,
		MaxIdleConnsPerHost: 8,
		Probe:               true,
	}
}

// Client HTTP 族远端客户端
type Client struct {
	id      string
	key     types.NodeKey
	proxied bool
	dial    dialer.Func

	transport *http.Transport
	http      *http.Client
	timeout   time.Duration

	closed atomic.Bool
}

var _ interfaces.RemoteClient = (*Client)(nil)

// NewFactory 返回 HTTP/HTTPS 客户端工厂
func NewFactory(opts Options) interfaces.ClientFactory {
	return func(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy) (interfaces.RemoteClient, error) {
		return New(ctx, key, proxy, opts)
	}
}

// New 创建客户端
func New(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy, opts Options) (*Client, error) {
	switch key.Schema.Builtin() {
	case types.BuiltinHTTP, types.BuiltinHTTPS:
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotHTTPSchema, key.Schema)
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

	tr := &http.Transport{
		DialContext:         dial,
		TLSClientConfig:     tlsCfg,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: opts.DialTimeout,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		id:        uuid.NewString(),
		key:       key,
		proxied:   proxy != nil,
		dial:      dial,
		transport: tr,
		http:      &http.Client{Transport: tr},
		timeout:   opts.RequestTimeout,
	}

	if opts.Probe {
		if err := c.Alive(ctx); err != nil {
			tr.CloseIdleConnections()
			return nil, fmt.Errorf("probe %s: %w", key.Address(), err)
		}
	}

	logger.Debug("HTTP 客户端已创建", "node", key.String(), "client", log.TruncateID(c.id, 8), "proxied", c.proxied)
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

// Call 发起一次 HTTP 请求
//
// Method 为空时，有 Body 用 POST，否则用 GET。
// 调用方 ctx 没有截止时间时使用 RequestTimeout。
func (c *Client) Call(ctx context.Context, req *interfaces.Request) (*interfaces.Response, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if req == nil {
		req = &interfaces.Request{}
	}
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
		if len(req.Body) > 0 {
			method = http.MethodPost
		}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, c.key.URL(req.Path), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range req.Header {
		hreq.Header.Set(k, v)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	header := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		header[k] = resp.Header.Get(k)
	}
	return &interfaces.Response{Status: resp.StatusCode, Header: header, Body: data}, nil
}

// Alive 拨号一次节点地址确认可达
func (c *Client) Alive(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	conn, err := c.dial(ctx, "tcp", c.key.Address())
	if err != nil {
		return err
	}
	return conn.Close()
}

// Close 关闭空闲连接，之后的调用返回 ErrClosed
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.transport.CloseIdleConnections()
	logger.Debug("HTTP 客户端已关闭", "node", c.key.String(), "client", log.TruncateID(c.id, 8))
	return nil
}
