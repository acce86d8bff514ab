package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-remotenet/pkg/types"
)

func server(env, host string, port uint16, proxyAddr string) types.ServerInfo {
	s := types.ServerInfo{Environment: env, Name: host, Host: host, Port: port, Schema: "HTTP"}
	if proxyAddr != "" {
		s.Proxy = &types.ProxySettings{Address: proxyAddr, Version: 5}
	}
	return s
}

func TestEnvironmentLocked_EvictsStaleEntries(t *testing.T) {
	keyA := mustKey(t, "http://10.0.0.1:80")
	keyB := mustKey(t, "http://10.0.0.2:80")
	keyC := mustKey(t, "http://10.0.0.3:80")
	keyD := mustKey(t, "http://10.0.0.4:80")

	src := mapSource{
		keyA: server("uat", "10.0.0.1", 80, "127.0.0.1:1080"),
		keyB: server("uat", "10.0.0.2", 80, ""),
		keyC: server("uat", "10.0.0.3", 80, "127.0.0.1:1080"),
		keyD: server("prod", "10.0.0.4", 80, ""),
	}

	f := &countingFactory{}
	r := newRunning(t, testConfig(), WithServerInfoSource(src))
	require.NoError(t, r.RegisterFactory(types.SchemaHTTP, f.factory()))

	for _, k := range []types.NodeKey{keyA, keyB, keyC, keyD} {
		_, err := r.Resolve(context.Background(), k)
		require.NoError(t, err)
	}

	evicted := r.EnvironmentLocked(types.EnvironmentLocked{
		Environment: "uat",
		Servers: []types.ServerInfo{
			server("", "10.0.0.1", 80, "127.0.0.1:2080"), // 代理变化
			server("", "10.0.0.3", 80, "127.0.0.1:1080"), // 未变
			// B 已移除
		},
		LockedAt: time.Unix(1700000000, 0),
	})

	assert.Equal(t, []types.NodeKey{keyA, keyB}, evicted)
	assert.Equal(t, 2, r.Len())
	assert.Contains(t, r.LockedEnvironments(), "uat")

	// 重建时使用锁定的元数据
	_, err := r.Resolve(context.Background(), keyA)
	require.NoError(t, err)
	want, err := types.NewSocksProxy("127.0.0.1:2080", types.SocksV5)
	require.NoError(t, err)
	require.NotNil(t, f.lastProxy())
	assert.Equal(t, want, *f.lastProxy())

	for _, s := range r.Snapshot() {
		if s.Key == keyA {
			assert.Equal(t, "uat", s.Environment)
			assert.True(t, s.Proxied)
		}
	}
}

func TestEnvironmentLocked_OtherEnvironmentUntouched(t *testing.T) {
	keyD := mustKey(t, "http://10.0.0.4:80")
	src := mapSource{keyD: server("prod", "10.0.0.4", 80, "")}

	f := &countingFactory{}
	r := newRunning(t, testConfig(), WithServerInfoSource(src))
	require.NoError(t, r.RegisterFactory(types.SchemaHTTP, f.factory()))

	_, err := r.Resolve(context.Background(), keyD)
	require.NoError(t, err)

	evicted := r.EnvironmentLocked(types.EnvironmentLocked{Environment: "uat"})
	assert.Empty(t, evicted)
	assert.Equal(t, 1, r.Len())
}

func TestEnvironmentLocked_ReplacesPreviousOverrides(t *testing.T) {
	key := mustKey(t, "http://10.0.0.1:80")
	f := &countingFactory{}
	r := newRunning(t, testConfig())
	require.NoError(t, r.RegisterFactory(types.SchemaHTTP, f.factory()))

	r.EnvironmentLocked(types.EnvironmentLocked{
		Environment: "uat",
		Servers:     []types.ServerInfo{server("", "10.0.0.1", 80, "127.0.0.1:1080")},
	})
	_, err := r.Resolve(context.Background(), key)
	require.NoError(t, err)
	assert.NotNil(t, f.lastProxy())

	// 再次锁定后节点不在列表中：驱逐，重建时直连
	evicted := r.EnvironmentLocked(types.EnvironmentLocked{Environment: "uat"})
	assert.Equal(t, []types.NodeKey{key}, evicted)

	_, err = r.Resolve(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, f.lastProxy())
}

func TestEnvironmentLocked_EvictsEntriesBuiltWithoutMetadata(t *testing.T) {
	keyA := mustKey(t, "http://10.0.0.9:80")
	keyB := mustKey(t, "http://10.0.0.10:80")
	keyC := mustKey(t, "http://10.0.0.11:80")
	src := mapSource{
		keyB: server("uat", "10.0.0.10", 80, ""),
		keyC: server("uat", "10.0.0.11", 80, ""),
	}

	f := &countingFactory{}
	r := newRunning(t, testConfig(), WithServerInfoSource(src))
	require.NoError(t, r.RegisterFactory(types.SchemaHTTP, f.factory()))

	// A 没有任何元数据，B、C 来自 uat
	for _, k := range []types.NodeKey{keyA, keyB, keyC} {
		_, err := r.Resolve(context.Background(), k)
		require.NoError(t, err)
		assert.Nil(t, f.lastProxy())
	}

	evicted := r.EnvironmentLocked(types.EnvironmentLocked{
		Environment: "prod",
		Servers: []types.ServerInfo{
			server("", "10.0.0.9", 80, "127.0.0.1:1080"),
			server("", "10.0.0.10", 80, "127.0.0.1:1080"),
			server("", "10.0.0.11", 80, ""), // 代理相同
		},
	})
	assert.Equal(t, []types.NodeKey{keyB, keyA}, evicted)
	assert.Equal(t, 1, r.Len())

	_, err := r.Resolve(context.Background(), keyA)
	require.NoError(t, err)
	assert.EqualValues(t, 4, f.calls.Load())
	require.NotNil(t, f.lastProxy())
	assert.Equal(t, "127.0.0.1:1080", f.lastProxy().Address())
}
