package proxyserver

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/things-go/go-socks5/statute"
	"golang.org/x/crypto/bcrypt"
)

func TestCredentials_Valid(t *testing.T) {
	var stats counters
	c := &credentials{users: map[string]string{"bob": "pw"}, stats: &stats}

	assert.True(t, c.Valid("bob", "pw", "127.0.0.1:5000"))
	assert.False(t, c.Valid("bob", "px", "127.0.0.1:5000"))
	assert.False(t, c.Valid("eve", "pw", "127.0.0.1:5000"))
	assert.EqualValues(t, 2, stats.authFailures.Load())
}

func TestCredentials_BcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	var stats counters
	c := &credentials{users: map[string]string{"ops": string(hash)}, stats: &stats}

	assert.True(t, c.Valid("ops", "s3cret", ""))
	// 哈希本身不能当作明文密码使用
	assert.False(t, c.Valid("ops", string(hash), ""))
}

func TestReplyCode(t *testing.T) {
	assert.EqualValues(t, statute.RepSuccess, replyCode(nil))
	assert.EqualValues(t, statute.RepHostUnreachable, replyCode(&net.DNSError{Err: "nx", Name: "x"}))
	assert.EqualValues(t, statute.RepConnectionRefused, replyCode(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
	assert.EqualValues(t, statute.RepServerFailure, replyCode(errors.New("other")))
}

func TestResolver_CacheAndForget(t *testing.T) {
	r := newResolver(8, 0)
	calls := 0
	r.lookupIP = func(_ context.Context, _, host string) ([]net.IP, error) {
		calls++
		return []net.IP{net.ParseIP("10.0.0.7"), net.ParseIP("10.0.0.8")}, nil
	}

	for range 2 {
		_, ip, err := r.Resolve(context.Background(), "svc.internal")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.7", ip.String())
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, r.cached())

	r.forget("svc.internal")
	_, _, err := r.Resolve(context.Background(), "svc.internal")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestResolver_NoAddresses(t *testing.T) {
	r := newResolver(8, 0)
	r.lookupIP = func(context.Context, string, string) ([]net.IP, error) {
		return nil, nil
	}

	_, _, err := r.Resolve(context.Background(), "empty.internal")
	var dnsErr *net.DNSError
	require.ErrorAs(t, err, &dnsErr)
	assert.True(t, dnsErr.IsNotFound)
	assert.Zero(t, r.cached())
}
