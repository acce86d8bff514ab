package lifecycle

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-remotenet/pkg/interfaces"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// Sequencer 启停编排器
//
// 收集全部参与者，StartAll 按 (Order, 注册序号) 升序启动，
// StopAll 按实际启动顺序的逆序停止。
//
// 使用示例:
//
//	seq := lifecycle.NewSequencer()
//	_ = seq.Register(lifecycle.NewParticipant("proxy", -100, proxySrv))
//	_ = seq.Register(lifecycle.NewParticipant("registry", 100, reg))
//	if err := seq.StartAll(ctx); err != nil {
//	    _ = seq.StopAll(context.Background()) // 补偿关闭已启动部分
//	}
type Sequencer struct {
	mu sync.Mutex

	pending []Participant
	started []Participant
	nextSeq uint64
	begun   bool

	// startDone StartAll 返回时关闭
	startDone chan struct{}

	coord *coordinator
}

// NewSequencer 创建编排器
func NewSequencer() *Sequencer {
	return &Sequencer{
		coord: newCoordinator(),
	}
}

// Register 注册参与者
//
// 同一组件实例（或同名参与者）重复注册返回 ErrDuplicateRegistration。
// StartAll 之后不能再注册。
func (s *Sequencer) Register(p Participant) error {
	if p.Component == nil {
		return ErrNilParticipant
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.begun {
		return ErrSequencerStarted
	}

	for _, existing := range s.pending {
		if sameInstance(existing.Component, p.Component) {
			return fmt.Errorf("%w: %s", types.ErrDuplicateRegistration, p.displayName())
		}
		if p.Name != "" && existing.Name == p.Name {
			return fmt.Errorf("%w: name %q", types.ErrDuplicateRegistration, p.Name)
		}
	}

	p.seq = s.nextSeq
	s.nextSeq++
	s.pending = append(s.pending, p)

	logger.Debug("注册启停参与者", "name", p.displayName(), "order", p.Order, "seq", p.seq)
	return nil
}

// StartAll 升序启动全部参与者
//
// 任一参与者启动失败时停止推进，返回 *BootstrapFailure，
// 已启动的参与者保留在记录中，可由 StopAll 补偿关闭。
func (s *Sequencer) StartAll(ctx context.Context) error {
	s.mu.Lock()
	if s.begun {
		s.mu.Unlock()
		return ErrSequencerStarted
	}
	s.begun = true
	done := make(chan struct{})
	s.startDone = done
	ordered := slices.Clone(s.pending)
	s.mu.Unlock()
	defer close(done)

	s.coord.advance(PhaseStarting)

	slices.SortStableFunc(ordered, Compare)

	logger.Info("开始启动参与者", "count", len(ordered))

	for _, p := range ordered {
		begin := time.Now()
		err := ctx.Err()
		if err == nil {
			err = p.Component.Start(ctx)
		}
		if err != nil {
			s.mu.Lock()
			names := participantNames(s.started)
			s.mu.Unlock()

			logger.Error("参与者启动失败",
				"name", p.displayName(),
				"order", p.Order,
				"started", len(names),
				"error", err)

			s.coord.advance(PhaseFailed)
			return &BootstrapFailure{Failed: p.displayName(), Started: names, Err: err}
		}

		s.mu.Lock()
		s.started = append(s.started, p)
		s.mu.Unlock()

		logger.Debug("参与者已启动", "name", p.displayName(), "order", p.Order, "elapsed", time.Since(begin))
	}

	s.coord.advance(PhaseRunning)
	logger.Info("全部参与者已启动", "count", len(ordered))
	return nil
}

// StopAll 逆序停止已成功启动的参与者
//
// 停止错误不会中断流程：每个参与者都会被尝试停止，错误聚合后返回。
// 重复调用时已停止的参与者不会被再次停止。
// StartAll 仍在进行时先等待其返回；等待期间 ctx 结束返回 ErrStartInProgress，不停止任何参与者。
func (s *Sequencer) StopAll(ctx context.Context) error {
	s.mu.Lock()
	startDone := s.startDone
	s.mu.Unlock()
	if startDone != nil {
		select {
		case <-startDone:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrStartInProgress, ctx.Err())
		}
	}

	s.mu.Lock()
	started := s.started
	s.started = nil
	phase := s.coord.current()
	s.mu.Unlock()

	if phase == PhaseCreated || phase == PhaseStopped {
		return nil
	}

	s.coord.advance(PhaseStopping)
	logger.Info("开始停止参与者", "count", len(started))

	var errs error
	for i := len(started) - 1; i >= 0; i-- {
		p := started[i]
		if err := p.Component.Stop(ctx); err != nil {
			logger.Warn("参与者停止失败", "name", p.displayName(), "error", err)
			errs = multierr.Append(errs, fmt.Errorf("stop %s: %w", p.displayName(), err))
			continue
		}
		logger.Debug("参与者已停止", "name", p.displayName())
	}

	s.coord.advance(PhaseStopped)
	return errs
}

// Phase 返回当前阶段
func (s *Sequencer) Phase() Phase {
	return s.coord.current()
}

// WaitFor 阻塞直到序列到达过指定阶段或 ctx 结束
func (s *Sequencer) WaitFor(ctx context.Context, phase Phase) error {
	return s.coord.waitFor(ctx, phase)
}

// OnPhaseChange 注册阶段变更回调
//
// 回调在阶段切换的 goroutine 中同步执行，不得阻塞。
func (s *Sequencer) OnPhaseChange(cb func(old, new Phase)) {
	s.coord.subscribe(cb)
}

// Started 返回当前已启动且尚未停止的参与者名称（按启动顺序）
func (s *Sequencer) Started() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return participantNames(s.started)
}

// Ordered 返回按启动顺序排列的全部已注册参与者名称
func (s *Sequencer) Ordered() []string {
	s.mu.Lock()
	ordered := slices.Clone(s.pending)
	s.mu.Unlock()
	slices.SortStableFunc(ordered, Compare)
	return participantNames(ordered)
}

// Len 返回已注册参与者数量
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ============================================================================
//                              辅助函数
// ============================================================================

func participantNames(ps []Participant) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.displayName()
	}
	return names
}

// sameInstance 判断两个组件是否为同一实例
//
// 不可比较的动态类型（例如值类型里带 func 字段）永远视为不同实例。
func sameInstance(a, b interfaces.LifeCycle) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
