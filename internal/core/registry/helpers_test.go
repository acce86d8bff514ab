package registry

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// ============================================================================
//                              测试替身
// ============================================================================

type fakeClient struct {
	id       string
	key      types.NodeKey
	proxy    *types.SocksProxy
	closeErr error
	closed   atomic.Int32

	mu       sync.Mutex
	aliveErr error
}

func (c *fakeClient) ID() string             { return c.id }
func (c *fakeClient) NodeKey() types.NodeKey { return c.key }

func (c *fakeClient) Call(context.Context, *interfaces.Request) (*interfaces.Response, error) {
	return &interfaces.Response{Status: 200}, nil
}

func (c *fakeClient) Alive(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aliveErr
}

func (c *fakeClient) setAlive(err error) {
	c.mu.Lock()
	c.aliveErr = err
	c.mu.Unlock()
}

func (c *fakeClient) Close() error {
	c.closed.Add(1)
	return c.closeErr
}

// countingFactory 计数工厂
type countingFactory struct {
	calls atomic.Int32

	mu       sync.Mutex
	clients  []*fakeClient
	proxies  []*types.SocksProxy
	failWith error
	closeErr error

	// gate 非 nil 时，工厂阻塞直到 gate 关闭或 ctx 结束
	gate chan struct{}
}

func (f *countingFactory) factory() interfaces.ClientFactory {
	return func(ctx context.Context, key types.NodeKey, proxy *types.SocksProxy) (interfaces.RemoteClient, error) {
		n := f.calls.Add(1)

		if f.gate != nil {
			select {
			case <-f.gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.proxies = append(f.proxies, proxy)
		if f.failWith != nil {
			return nil, f.failWith
		}
		c := &fakeClient{
			id:       "client-" + strconv.Itoa(int(n)),
			key:      key,
			proxy:    proxy,
			closeErr: f.closeErr,
		}
		f.clients = append(f.clients, c)
		return c, nil
	}
}

func (f *countingFactory) setFail(err error) {
	f.mu.Lock()
	f.failWith = err
	f.mu.Unlock()
}

func (f *countingFactory) lastProxy() *types.SocksProxy {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.proxies) == 0 {
		return nil
	}
	return f.proxies[len(f.proxies)-1]
}

// mapSource 内存元数据来源
type mapSource map[types.NodeKey]types.ServerInfo

func (m mapSource) ServerInfo(key types.NodeKey) (types.ServerInfo, bool) {
	s, ok := m[key]
	return s, ok
}

var errBoom = errors.New("boom")

// ============================================================================
//                              辅助函数
// ============================================================================

func mustKey(t *testing.T, s string) types.NodeKey {
	t.Helper()
	k, err := types.ParseNodeKey(s)
	require.NoError(t, err)
	return k
}

// newRunning 创建并启动注册表，测试结束时停止
func newRunning(t *testing.T, cfg Config, opts ...Option) *Registry {
	t.Helper()
	r := New(cfg, opts...)
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(func() { _ = r.Stop(context.Background()) })
	return r
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MetricsNamespace = "test"
	return cfg
}
