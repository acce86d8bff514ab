// Package app 提供 remotenet 应用编排层
//
// app 包负责：
//   - fx 模块组装
//   - 跨模块接线（环境锁定通知 → 注册表）
//   - 启停超时与日志初始化
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
)

var logger = log.Logger("app")

// ErrNotBuilt Bootstrap 尚未构建
var ErrNotBuilt = errors.New("bootstrap not built")

// Bootstrap 应用引导程序
//
// Bootstrap 负责：
//   - 解析配置
//   - 组装 fx 模块
//   - 管理应用生命周期
type Bootstrap struct {
	config *config.Config
	opts   options

	mu      sync.Mutex
	fxApp   *fx.App
	runtime *Runtime
	logFile io.Closer
	stopped bool
}

// NewBootstrap 创建引导程序
//
// cfg 为 nil 时使用默认配置。
func NewBootstrap(cfg *config.Config, opts ...BootstrapOption) *Bootstrap {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	b := &Bootstrap{config: cfg}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

// Build 组装模块（不启动）
//
// 重复调用返回同一个 Runtime。
func (b *Bootstrap) Build() (*Runtime, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.runtime != nil {
		return b.runtime, nil
	}

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}

	// 日志配置必须在所有模块初始化之前
	if err := b.setupLogging(); err != nil {
		return nil, fmt.Errorf("设置日志失败: %w", err)
	}

	var rt *Runtime
	fxApp := fx.New(
		fx.WithLogger(b.fxLogger),
		fx.Options(b.setupModules()...),
		fx.Invoke(func(p wireParams) {
			rt = wire(p)
		}),
	)
	if err := fxApp.Err(); err != nil {
		b.closeLog()
		return nil, fmt.Errorf("组装模块失败: %w", err)
	}

	b.fxApp = fxApp
	b.runtime = rt
	return rt, nil
}

// Start 构建并启动
//
// 参与者按 Order 升序启动；任一失败时已启动部分按逆序补偿关闭，
// 返回的错误满足 errors.Is(err, types.ErrBootstrapFailed)。
func (b *Bootstrap) Start(ctx context.Context) (*Runtime, error) {
	rt, err := b.Build()
	if err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, b.config.Lifecycle.StartTimeout.Duration())
	defer cancel()

	if err := b.fxApp.Start(startCtx); err != nil {
		return nil, fmt.Errorf("启动应用失败: %w", err)
	}

	logger.Info("remotenet 已启动",
		"participants", rt.Sequencer.Started(),
		"schemes", rt.Registry.Schemes().Schemes())
	return rt, nil
}

// Stop 停止应用
//
// 参与者按启动顺序的逆序停止，错误聚合返回。
func (b *Bootstrap) Stop(ctx context.Context) error {
	b.mu.Lock()
	fxApp := b.fxApp
	if fxApp == nil || b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.mu.Unlock()

	stopCtx, cancel := context.WithTimeout(ctx, b.config.Lifecycle.StopTimeout.Duration())
	defer cancel()

	err := fxApp.Stop(stopCtx)
	logger.Info("remotenet 已停止")
	return multierr.Append(err, b.closeLog())
}

// Runtime 返回已构建的运行时
func (b *Bootstrap) Runtime() (*Runtime, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.runtime == nil {
		return nil, ErrNotBuilt
	}
	return b.runtime, nil
}

// Config 返回使用的配置
func (b *Bootstrap) Config() *config.Config {
	return b.config
}

// setupModules 组装所有 fx 模块
func (b *Bootstrap) setupModules() []fx.Option {
	return []fx.Option{
		// 配置（Tier 0）
		fx.Supply(b.config),

		// 启停编排 + 元数据（Tier 1）
		FoundationModules(),

		// 注册表 + 内置传输工厂（Tier 2）
		ClientModules(),

		// 代理服务器（Tier 3，可选）
		b.setupProxyLayer(),

		// 调用方扩展
		b.opts.fxOptions(b.config),
	}
}

// setupProxyLayer 代理服务器模块
func (b *Bootstrap) setupProxyLayer() fx.Option {
	if !b.config.ProxyServer.Enable {
		return fx.Options()
	}
	return ProxyModules()
}

// setupLogging 按配置设置日志级别、格式和输出
//
// 指定了 Log.File 时把日志追加到文件，Stop 时关闭。
func (b *Bootstrap) setupLogging() error {
	lvl, err := log.ParseLevel(b.config.Log.Level)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if b.config.Log.File != "" {
		file, err := os.OpenFile(b.config.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		w = file
		b.logFile = file
	}

	if err := log.Configure(w, lvl, b.config.Log.Format); err != nil {
		b.closeLog()
		return err
	}
	if b.logFile != nil {
		logger.Info("日志文件初始化成功", "path", b.config.Log.File)
	}
	return nil
}

func (b *Bootstrap) closeLog() error {
	if b.logFile == nil {
		return nil
	}
	f := b.logFile
	b.logFile = nil
	// 之后的日志回到 stderr
	lvl, _ := log.ParseLevel(b.config.Log.Level)
	_ = log.Configure(os.Stderr, lvl, b.config.Log.Format)
	return f.Close()
}

// fxLogger fx 事件日志
//
// 默认静默；Log.FxEvents 打开时使用 zap 开发模式输出依赖注入过程。
func (b *Bootstrap) fxLogger() fxevent.Logger {
	if !b.config.Log.FxEvents {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	zl, err := zap.NewDevelopment()
	if err != nil {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	return &fxevent.ZapLogger{Logger: zl.Named("fx")}
}
