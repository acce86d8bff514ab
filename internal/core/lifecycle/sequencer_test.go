package lifecycle

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-remotenet/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeComponent struct {
	name     string
	rec      *recorder
	startErr error
	stopErr  error
}

func (f *fakeComponent) Start(context.Context) error {
	f.rec.add("start:" + f.name)
	return f.startErr
}

func (f *fakeComponent) Stop(context.Context) error {
	f.rec.add("stop:" + f.name)
	return f.stopErr
}

func newFake(rec *recorder, name string) *fakeComponent {
	return &fakeComponent{name: name, rec: rec}
}

// ============================================================================
//                              排序
// ============================================================================

func TestSequencer_StartStopOrder(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()

	require.NoError(t, seq.Register(NewParticipant("P1", 10, newFake(rec, "P1"))))
	require.NoError(t, seq.Register(NewParticipant("P2", -5, newFake(rec, "P2"))))
	require.NoError(t, seq.Register(NewParticipant("P3", 0, newFake(rec, "P3"))))

	require.NoError(t, seq.StartAll(context.Background()))
	assert.Equal(t, []string{"start:P2", "start:P3", "start:P1"}, rec.list())
	assert.Equal(t, []string{"P2", "P3", "P1"}, seq.Started())
	assert.Equal(t, PhaseRunning, seq.Phase())

	require.NoError(t, seq.StopAll(context.Background()))
	assert.Equal(t, []string{
		"start:P2", "start:P3", "start:P1",
		"stop:P1", "stop:P3", "stop:P2",
	}, rec.list())
	assert.Equal(t, PhaseStopped, seq.Phase())
}

func TestSequencer_EqualOrderKeepsRegistrationOrder(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()

	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		require.NoError(t, seq.Register(NewParticipant(n, 7, newFake(rec, n))))
	}

	require.NoError(t, seq.StartAll(context.Background()))
	assert.Equal(t, names, seq.Started())
}

// TestSequencer_RandomOrders 任意注册序列：启动顺序按 Order 非递减，相同 Order 按注册顺序；停止严格逆序
func TestSequencer_RandomOrders(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		rec := &recorder{}
		seq := NewSequencer()
		orders := make(map[string]int)
		regIndex := make(map[string]int)

		n := 1 + r.Intn(12)
		for i := 0; i < n; i++ {
			name := "p" + strconv.Itoa(i)
			order := r.Intn(5) - 2
			orders[name] = order
			regIndex[name] = i
			require.NoError(t, seq.Register(NewParticipant(name, order, newFake(rec, name))))
		}

		require.NoError(t, seq.StartAll(context.Background()))
		started := seq.Started()
		require.Len(t, started, n)
		for i := 1; i < len(started); i++ {
			prev, cur := started[i-1], started[i]
			require.LessOrEqual(t, orders[prev], orders[cur])
			if orders[prev] == orders[cur] {
				require.Less(t, regIndex[prev], regIndex[cur])
			}
		}

		require.NoError(t, seq.StopAll(context.Background()))
		events := rec.list()
		stops := events[n:]
		for i, name := range started {
			assert.Equal(t, "stop:"+name, stops[len(stops)-1-i])
		}
	}
}

func TestCompare(t *testing.T) {
	a := Participant{Order: 1, seq: 5}
	b := Participant{Order: 2, seq: 0}
	c := Participant{Order: 1, seq: 6}

	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Negative(t, Compare(a, c))
	assert.Zero(t, Compare(a, a))
}

// ============================================================================
//                              注册
// ============================================================================

func TestSequencer_DuplicateRegistration(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()
	c := newFake(rec, "x")

	require.NoError(t, seq.Register(NewParticipant("x", 0, c)))

	err := seq.Register(NewParticipant("other-name", 1, c))
	assert.ErrorIs(t, err, types.ErrDuplicateRegistration)

	err = seq.Register(NewParticipant("x", 1, newFake(rec, "x2")))
	assert.ErrorIs(t, err, types.ErrDuplicateRegistration)

	assert.Equal(t, 1, seq.Len())
}

func TestSequencer_HookInstancesAreDistinct(t *testing.T) {
	seq := NewSequencer()
	require.NoError(t, seq.Register(NewParticipant("", 0, &Hook{})))
	require.NoError(t, seq.Register(NewParticipant("", 0, &Hook{})))
	assert.Equal(t, 2, seq.Len())
}

func TestSequencer_RegisterNil(t *testing.T) {
	seq := NewSequencer()
	assert.ErrorIs(t, seq.Register(Participant{Name: "nil"}), ErrNilParticipant)
}

func TestSequencer_RegisterAfterStart(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()
	require.NoError(t, seq.StartAll(context.Background()))

	assert.ErrorIs(t, seq.Register(NewParticipant("late", 0, newFake(rec, "late"))), ErrSequencerStarted)
	assert.ErrorIs(t, seq.StartAll(context.Background()), ErrSequencerStarted)
}

// ============================================================================
//                              失败处理
// ============================================================================

func TestSequencer_BootstrapFailure(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()
	boom := errors.New("bind: address in use")

	bad := newFake(rec, "bad")
	bad.startErr = boom

	require.NoError(t, seq.Register(NewParticipant("first", -1, newFake(rec, "first"))))
	require.NoError(t, seq.Register(NewParticipant("second", 0, newFake(rec, "second"))))
	require.NoError(t, seq.Register(NewParticipant("bad", 1, bad)))
	require.NoError(t, seq.Register(NewParticipant("never", 2, newFake(rec, "never"))))

	err := seq.StartAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrBootstrapFailed)
	assert.ErrorIs(t, err, boom)

	var failure *BootstrapFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "bad", failure.Failed)
	assert.Equal(t, []string{"first", "second"}, failure.Started)
	assert.Equal(t, PhaseFailed, seq.Phase())
	assert.NotContains(t, rec.list(), "start:never")

	// 补偿关闭只覆盖已启动部分
	require.NoError(t, seq.StopAll(context.Background()))
	assert.Equal(t, []string{
		"start:first", "start:second", "start:bad",
		"stop:second", "stop:first",
	}, rec.list())
}

func TestSequencer_StopErrorsAreAggregated(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()

	a := newFake(rec, "a")
	a.stopErr = errors.New("a failed")
	b := newFake(rec, "b")
	c := newFake(rec, "c")
	c.stopErr = errors.New("c failed")

	for i, f := range []*fakeComponent{a, b, c} {
		require.NoError(t, seq.Register(NewParticipant(f.name, i, f)))
	}
	require.NoError(t, seq.StartAll(context.Background()))

	err := seq.StopAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, a.stopErr)
	assert.ErrorIs(t, err, c.stopErr)
	assert.Equal(t, []string{"start:a", "start:b", "start:c", "stop:c", "stop:b", "stop:a"}, rec.list())

	// 再次调用不重复停止
	require.NoError(t, seq.StopAll(context.Background()))
	assert.Len(t, rec.list(), 6)
}

func TestSequencer_StartCanceledContext(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()
	require.NoError(t, seq.Register(NewParticipant("a", 0, newFake(rec, "a"))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := seq.StartAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.list())
}

// blockingComponent 启动时阻塞直到 release 关闭
type blockingComponent struct {
	*fakeComponent
	entered chan struct{}
	release chan struct{}
}

func (b *blockingComponent) Start(ctx context.Context) error {
	close(b.entered)
	<-b.release
	return b.fakeComponent.Start(ctx)
}

func TestSequencer_StopWaitsForStartInProgress(t *testing.T) {
	rec := &recorder{}
	seq := NewSequencer()
	slow := &blockingComponent{
		fakeComponent: newFake(rec, "slow"),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	require.NoError(t, seq.Register(NewParticipant("a", 0, newFake(rec, "a"))))
	require.NoError(t, seq.Register(NewParticipant("slow", 1, slow)))
	require.NoError(t, seq.Register(NewParticipant("c", 2, newFake(rec, "c"))))

	startErr := make(chan error, 1)
	go func() { startErr <- seq.StartAll(context.Background()) }()
	<-slow.entered

	// 等待超时：不停止任何参与者
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := seq.StopAll(ctx)
	assert.ErrorIs(t, err, ErrStartInProgress)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"start:a"}, rec.list())

	stopErr := make(chan error, 1)
	go func() { stopErr <- seq.StopAll(context.Background()) }()

	close(slow.release)
	require.NoError(t, <-startErr)
	require.NoError(t, <-stopErr)

	// 快照之后启动的参与者同样被停止
	assert.Equal(t, []string{"start:a", "start:slow", "start:c", "stop:c", "stop:slow", "stop:a"}, rec.list())
	assert.Empty(t, seq.Started())
	assert.Equal(t, PhaseStopped, seq.Phase())
}

func TestSequencer_StopBeforeStart(t *testing.T) {
	seq := NewSequencer()
	assert.NoError(t, seq.StopAll(context.Background()))
	assert.Equal(t, PhaseCreated, seq.Phase())
}

// ============================================================================
//                              阶段 gate
// ============================================================================

func TestSequencer_WaitFor(t *testing.T) {
	seq := NewSequencer()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- seq.WaitFor(ctx, PhaseRunning)
	}()

	require.NoError(t, seq.StartAll(context.Background()))
	assert.NoError(t, <-done)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, seq.WaitFor(ctx, PhaseStopped), context.DeadlineExceeded)
}

func TestSequencer_OnPhaseChange(t *testing.T) {
	seq := NewSequencer()
	var got []string
	seq.OnPhaseChange(func(_, p Phase) { got = append(got, p.String()) })

	require.NoError(t, seq.StartAll(context.Background()))
	require.NoError(t, seq.StopAll(context.Background()))

	assert.Equal(t, []string{"starting", "running", "stopping", "stopped"}, got)
}

func TestHook_NilFuncs(t *testing.T) {
	h := &Hook{}
	assert.NoError(t, h.Start(context.Background()))
	assert.NoError(t, h.Stop(context.Background()))
}
