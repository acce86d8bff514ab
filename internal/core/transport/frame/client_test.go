package frame

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// frameEcho 帧回显服务，收到 "drop" 时直接断开
func frameEcho(t *testing.T) types.NodeKey {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				for {
					data, err := ReadFrame(conn, DefaultMaxFrameSize)
					if err != nil {
						return
					}
					if string(data) == "drop" {
						return
					}
					if err := WriteFrame(conn, append([]byte("re:"), data...), DefaultMaxFrameSize); err != nil {
						return
					}
				}
			}()
		}
	}()

	key, err := types.NewNodeKey("127.0.0.1", uint16(ln.Addr().(*net.TCPAddr).Port), types.SchemaKAYAK)
	require.NoError(t, err)
	return key
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.RequestTimeout = 2 * time.Second
	opts.MaxFrameSize = 1024
	return opts
}

func TestClient_Call(t *testing.T) {
	key := frameEcho(t)

	c, err := Dial(context.Background(), key, nil, testOptions())
	require.NoError(t, err)
	defer c.Close()

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, key, c.NodeKey())

	for _, msg := range []string{"x", "yy", "zzz"} {
		resp, err := c.Call(context.Background(), &interfaces.Request{Body: []byte(msg)})
		require.NoError(t, err)
		assert.Equal(t, "re:"+msg, string(resp.Body))
	}
	assert.NoError(t, c.Alive(context.Background()))
}

func TestClient_OversizeRequestKeepsConnection(t *testing.T) {
	key := frameEcho(t)

	c, err := Dial(context.Background(), key, nil, testOptions())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Call(context.Background(), &interfaces.Request{Body: make([]byte, 2048)})
	assert.ErrorIs(t, err, ErrFrameTooLarge)
	assert.NoError(t, c.Alive(context.Background()))

	resp, err := c.Call(context.Background(), &interfaces.Request{Body: []byte("ok")})
	require.NoError(t, err)
	assert.Equal(t, "re:ok", string(resp.Body))
}

func TestClient_BrokenAfterPeerClose(t *testing.T) {
	key := frameEcho(t)

	c, err := Dial(context.Background(), key, nil, testOptions())
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Call(context.Background(), &interfaces.Request{Body: []byte("drop")})
	require.Error(t, err)

	assert.ErrorIs(t, c.Alive(context.Background()), errBroken)
	_, err = c.Call(context.Background(), &interfaces.Request{Body: []byte("again")})
	assert.ErrorIs(t, err, errBroken)
}

func TestClient_DialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	key, err := types.NewNodeKey("127.0.0.1", uint16(port), types.SchemaECIF)
	require.NoError(t, err)

	_, err = Dial(context.Background(), key, nil, testOptions())
	assert.Error(t, err)
}

func TestClient_Close(t *testing.T) {
	key := frameEcho(t)

	c, err := Dial(context.Background(), key, nil, testOptions())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	_ = c.Close()

	_, err = c.Call(context.Background(), &interfaces.Request{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Alive(context.Background()), ErrClosed)
}
