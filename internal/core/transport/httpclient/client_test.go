package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-remotenet/internal/core/proxyserver"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

func keyFor(t *testing.T, srv *httptest.Server, schema types.Schema) types.NodeKey {
	t.Helper()
	addr := srv.Listener.Addr().(*net.TCPAddr)
	k, err := types.NewNodeKey("127.0.0.1", uint16(addr.Port), schema)
	require.NoError(t, err)
	return k
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Path", r.URL.Path)
		w.Header().Set("X-Token", r.Header.Get("X-Token"))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	})
}

func TestClient_HTTPCall(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	c, err := New(context.Background(), keyFor(t, srv, types.SchemaHTTP), nil, DefaultOptions())
	require.NoError(t, err)
	defer c.Close()
	assert.NotEmpty(t, c.ID())

	resp, err := c.Call(context.Background(), &interfaces.Request{
		Path:   "api/v1/ping",
		Header: map[string]string{"X-Token": "t1"},
		Body:   []byte("payload"),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, "POST", resp.Header["X-Method"])
	assert.Equal(t, "/api/v1/ping", resp.Header["X-Path"])
	assert.Equal(t, "t1", resp.Header["X-Token"])
	assert.Equal(t, "payload", string(resp.Body))

	resp, err = c.Call(context.Background(), &interfaces.Request{Method: http.MethodDelete, Path: "/x"})
	require.NoError(t, err)
	assert.Equal(t, "DELETE", resp.Header["X-Method"])
}

func TestClient_HTTPS(t *testing.T) {
	srv := httptest.NewTLSServer(echoHandler())
	defer srv.Close()

	opts := DefaultOptions()
	opts.InsecureSkipVerify = true
	c, err := New(context.Background(), keyFor(t, srv, types.SchemaHTTPS), nil, opts)
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Call(context.Background(), &interfaces.Request{Path: "/secure"})
	require.NoError(t, err)
	assert.Equal(t, "GET", resp.Header["X-Method"])
}

func TestClient_ProbeFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	key, err := types.NewNodeKey("127.0.0.1", uint16(port), types.SchemaHTTP)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.DialTimeout = time.Second
	_, err = New(context.Background(), key, nil, opts)
	assert.Error(t, err)

	// 关闭探测时构造成功，调用失败
	opts.Probe = false
	c, err := New(context.Background(), key, nil, opts)
	require.NoError(t, err)
	_, err = c.Call(context.Background(), &interfaces.Request{})
	assert.Error(t, err)
	assert.Error(t, c.Alive(context.Background()))
}

func TestClient_Close(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	c, err := New(context.Background(), keyFor(t, srv, types.SchemaHTTP), nil, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, c.Alive(context.Background()))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Call(context.Background(), &interfaces.Request{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Alive(context.Background()), ErrClosed)
}

func TestClient_WrongSchema(t *testing.T) {
	key, err := types.NewNodeKey("127.0.0.1", 9000, types.SchemaKAYAK)
	require.NoError(t, err)
	_, err = New(context.Background(), key, nil, DefaultOptions())
	assert.ErrorIs(t, err, ErrNotHTTPSchema)
}

func TestClient_ThroughProxy(t *testing.T) {
	srv := httptest.NewServer(echoHandler())
	defer srv.Close()

	pcfg := proxyserver.DefaultConfig()
	pcfg.ListenAddr = "127.0.0.1:0"
	ps := proxyserver.New(pcfg)
	require.NoError(t, ps.Start(context.Background()))
	defer ps.Stop(context.Background())

	p, err := types.NewSocksProxy(ps.Addr().String(), types.SocksV5)
	require.NoError(t, err)

	factory := NewFactory(DefaultOptions())
	client, err := factory(context.Background(), keyFor(t, srv, types.SchemaHTTP), &p)
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Call(context.Background(), &interfaces.Request{Path: "/via-proxy"})
	require.NoError(t, err)
	assert.Equal(t, "/via-proxy", resp.Header["X-Path"])

	// 探测 + 请求各建立一条隧道
	assert.Eventually(t, func() bool { return ps.Stats().Tunnels >= 2 }, time.Second, 5*time.Millisecond)
}
