package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSocksProxy(t *testing.T) {
	p, err := NewSocksProxy("127.0.0.1:1080", SocksV5)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1080", p.Address())
	assert.Equal(t, 5, p.Version())
	_, _, ok := p.Credentials()
	assert.False(t, ok)

	q, err := NewSocksProxy("127.0.0.1:1080", SocksV5)
	require.NoError(t, err)
	assert.Equal(t, p, q, "描述符应可按值比较")
}

func TestNewSocksProxy_Invalid(t *testing.T) {
	_, err := NewSocksProxy("", SocksV5)
	assert.ErrorIs(t, err, ErrInvalidProxyAddress)

	_, err = NewSocksProxy("no-port", SocksV5)
	assert.ErrorIs(t, err, ErrInvalidProxyAddress)

	_, err = NewSocksProxy("127.0.0.1:0", SocksV5)
	assert.ErrorIs(t, err, ErrInvalidProxyAddress)

	_, err = NewSocksProxy("127.0.0.1:1080", 3)
	assert.ErrorIs(t, err, ErrUnsupportedProxyVersion)

	_, err = NewSocksProxyWithAuth("127.0.0.1:1080", SocksV4, "u", "p")
	assert.ErrorIs(t, err, ErrUnsupportedProxyVersion)
}

func TestSocksProxy_String(t *testing.T) {
	p, err := NewSocksProxyWithAuth("proxy.local:1080", SocksV5, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "socks5://alice@proxy.local:1080", p.String())
	assert.NotContains(t, p.String(), "secret")
}
