package registry

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-remotenet/pkg/types"
)

func TestCheckLiveness_EvictsDeadClients(t *testing.T) {
	f := &countingFactory{}
	r := newRunning(t, testConfig())
	require.NoError(t, r.RegisterFactory(types.SchemaHTTP, f.factory()))

	alive := mustKey(t, "http://10.0.0.1:80")
	dead := mustKey(t, "http://10.0.0.2:80")
	_, err := r.Resolve(context.Background(), alive)
	require.NoError(t, err)
	c, err := r.Resolve(context.Background(), dead)
	require.NoError(t, err)
	c.(*fakeClient).setAlive(errBoom)

	evicted := r.CheckLiveness(context.Background())
	assert.Equal(t, []types.NodeKey{dead}, evicted)
	assert.Equal(t, 1, r.Len())
	assert.EqualValues(t, 1, c.(*fakeClient).closed.Load())
}

func TestLivenessLoop_UsesClock(t *testing.T) {
	mock := clock.NewMock()
	cfg := testConfig()
	cfg.LivenessInterval = time.Minute

	f := &countingFactory{}
	r := newRunning(t, cfg, WithClock(mock))
	require.NoError(t, r.RegisterFactory(types.SchemaHTTP, f.factory()))

	c, err := r.Resolve(context.Background(), mustKey(t, "http://10.0.0.1:80"))
	require.NoError(t, err)
	c.(*fakeClient).setAlive(errBoom)

	mock.Add(30 * time.Second)
	assert.Equal(t, 1, r.Len())

	mock.Add(30 * time.Second)
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSnapshot_TracksUsage(t *testing.T) {
	mock := clock.NewMock()
	start := mock.Now()

	f := &countingFactory{}
	r := newRunning(t, testConfig(), WithClock(mock))
	require.NoError(t, r.RegisterFactory(types.SchemaHTTP, f.factory()))
	key := mustKey(t, "http://10.0.0.1:80")

	_, err := r.Resolve(context.Background(), key)
	require.NoError(t, err)
	mock.Add(5 * time.Second)
	_, err = r.Resolve(context.Background(), key)
	require.NoError(t, err)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, key, snap[0].Key)
	assert.Equal(t, "client-1", snap[0].ClientID)
	assert.False(t, snap[0].Proxied)
	assert.EqualValues(t, 2, snap[0].Uses)
	assert.True(t, snap[0].CreatedAt.Equal(start))
	assert.True(t, snap[0].LastUsed.Equal(start.Add(5*time.Second)))
}
