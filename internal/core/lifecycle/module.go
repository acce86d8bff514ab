package lifecycle

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"go.uber.org/fx"
	"go.uber.org/multierr"
)

// ParticipantGroup fx value group 名称
//
// 其他模块把 Participant 提供到此组，由本模块统一注册到 Sequencer。
const ParticipantGroup = "lifecycle_participants"

// ParticipantResult 供其他模块导出参与者
//
//	func provideParticipant(reg *Registry) lifecycle.ParticipantResult {
//	    return lifecycle.ParticipantResult{
//	        Participant: lifecycle.NewParticipant("registry", 100, reg),
//	    }
//	}
type ParticipantResult struct {
	fx.Out

	Participant Participant `group:"lifecycle_participants"`
}

// Module 返回 Fx 模块
//
// 提供 *Sequencer 单例，注册组内全部参与者，
// 并把 StartAll/StopAll 绑定到一个 fx 生命周期钩子上。
func Module() fx.Option {
	return fx.Module("lifecycle",
		fx.Provide(NewSequencer),
		fx.Invoke(registerParticipants),
	)
}

// sequencerParams 注册参数
type sequencerParams struct {
	fx.In

	Lifecycle    fx.Lifecycle
	Sequencer    *Sequencer
	Participants []Participant `group:"lifecycle_participants"`
}

// registerParticipants 注册参与者并挂接生命周期钩子
func registerParticipants(p sequencerParams) error {
	// fx value group 不保证顺序，先按 (Order, Name) 排好再注册，注册序号因此确定
	ps := slices.Clone(p.Participants)
	slices.SortStableFunc(ps, func(a, b Participant) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for _, part := range ps {
		if err := p.Sequencer.Register(part); err != nil {
			return err
		}
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := p.Sequencer.StartAll(ctx)
			var failure *BootstrapFailure
			if errors.As(err, &failure) {
				// 补偿关闭已启动部分；fx 不会为失败的钩子调用 OnStop
				return multierr.Append(err, p.Sequencer.StopAll(context.WithoutCancel(ctx)))
			}
			return err
		},
		OnStop: func(ctx context.Context) error {
			return p.Sequencer.StopAll(ctx)
		},
	})
	return nil
}
