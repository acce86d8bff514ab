package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dep2p/go-remotenet/pkg/types"
)

var (
	// ErrNilParticipant 参与者组件为 nil
	ErrNilParticipant = errors.New("nil lifecycle participant")

	// ErrSequencerStarted 序列已经启动，不能再注册或重复启动
	ErrSequencerStarted = errors.New("sequencer already started")

	// ErrStartInProgress StopAll 等待进行中的 StartAll 时 ctx 结束
	ErrStartInProgress = errors.New("sequencer start still in progress")
)

// BootstrapFailure 启动失败
//
// Started 按启动顺序列出已经成功启动的参与者，调用方可据此决定是否补偿关闭
// （Sequencer.StopAll 只会停止这些参与者）。
type BootstrapFailure struct {
	// Failed 启动失败的参与者
	Failed string

	// Started 失败前已成功启动的参与者
	Started []string

	// Err 失败原因
	Err error
}

// Error 实现 error 接口
func (e *BootstrapFailure) Error() string {
	return fmt.Sprintf("bootstrap failed at %q (started: [%s]): %v",
		e.Failed, strings.Join(e.Started, ", "), e.Err)
}

// Unwrap 同时暴露哨兵错误和失败原因
func (e *BootstrapFailure) Unwrap() []error {
	return []error{types.ErrBootstrapFailed, e.Err}
}
