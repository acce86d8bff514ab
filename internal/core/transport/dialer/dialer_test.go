package dialer

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-remotenet/internal/core/proxyserver"
	"github.com/dep2p/go-remotenet/pkg/types"
)

func echo(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer c.Close()
				_, _ = io.Copy(c, c)
			}()
		}
	}()
	return ln.Addr().String()
}

func exchange(t *testing.T, conn net.Conn) {
	t.Helper()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	_, err := conn.Write([]byte("abc"))
	require.NoError(t, err)
	buf := make([]byte, 3)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf))
}

func TestNew_Direct(t *testing.T) {
	dial, err := New(nil, nil)
	require.NoError(t, err)

	conn, err := dial(context.Background(), "tcp", echo(t))
	require.NoError(t, err)
	defer conn.Close()
	exchange(t, conn)
}

func TestNew_Socks4Rejected(t *testing.T) {
	p, err := types.NewSocksProxy("127.0.0.1:1080", types.SocksV4)
	require.NoError(t, err)

	_, err = New(nil, &p)
	assert.ErrorIs(t, err, types.ErrUnsupportedProxyVersion)
}

func TestNew_ThroughSocks5(t *testing.T) {
	cfg := proxyserver.DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Users = map[string]string{"u": "p"}
	srv := proxyserver.New(cfg)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	p, err := types.NewSocksProxyWithAuth(srv.Addr().String(), types.SocksV5, "u", "p")
	require.NoError(t, err)

	dial, err := New(&net.Dialer{Timeout: time.Second}, &p)
	require.NoError(t, err)

	conn, err := dial(context.Background(), "tcp", echo(t))
	require.NoError(t, err)
	defer conn.Close()
	exchange(t, conn)

	assert.Eventually(t, func() bool { return srv.Stats().Tunnels == 1 }, time.Second, 5*time.Millisecond)
}
