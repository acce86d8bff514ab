package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Run 启动应用，等待 ctx 结束或收到 SIGINT/SIGTERM 后停止
//
// 启动失败时已启动部分已经补偿关闭，直接返回错误。
func Run(ctx context.Context, b *Bootstrap, ready func(*Runtime)) error {
	rt, err := b.Start(ctx)
	if err != nil {
		_ = b.Stop(context.Background())
		return err
	}
	if ready != nil {
		ready(rt)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info("收到退出信号，正在停止")
	return b.Stop(context.WithoutCancel(ctx))
}
