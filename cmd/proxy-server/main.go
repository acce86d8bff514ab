// Package main 提供独立的 SOCKS5 代理服务器
//
// 代理服务器供 remotenet 节点的出站连接使用，支持用户名/密码认证
// 和每条隧道的带宽限制。
//
// 使用方法:
//
//	proxy-server -listen 0.0.0.0:1080 -user alice -password secret -rate 1048576
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dep2p/go-remotenet/internal/core/lifecycle"
	"github.com/dep2p/go-remotenet/internal/core/proxyserver"
	"github.com/dep2p/go-remotenet/pkg/lib/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	listen := flag.String("listen", "127.0.0.1:1080", "监听地址")
	user := flag.String("user", "", "用户名，空表示无认证")
	password := flag.String("password", "", "密码")
	rate := flag.Int("rate", 0, "每条隧道每方向的字节/秒上限，0 不限制")
	maxConns := flag.Int("max-conns", 0, "最大并发隧道数，0 不限制")
	logLevel := flag.String("log-level", "info", "日志级别")
	flag.Parse()

	lvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	if err := log.Configure(os.Stderr, lvl, log.FormatText); err != nil {
		return err
	}

	cfg := proxyserver.DefaultConfig()
	cfg.Enable = true
	cfg.ListenAddr = *listen
	cfg.BandwidthLimit = *rate
	cfg.MaxConns = *maxConns
	if *user != "" {
		cfg.Users = map[string]string{*user: *password}
	}

	srv := proxyserver.New(cfg)

	seq := lifecycle.NewSequencer()
	if err := seq.Register(lifecycle.NewParticipant("proxy-server", cfg.Order, srv)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seq.StartAll(ctx); err != nil {
		_ = seq.StopAll(context.Background())
		return fmt.Errorf("启动代理服务器失败: %w", err)
	}

	fmt.Println("╔══════════════════════════════════════════════════════╗")
	fmt.Println("║              remotenet SOCKS5 代理                    ║")
	fmt.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Printf("监听地址: %s\n", srv.Addr())
	fmt.Printf("认证: %v\n", *user != "")
	fmt.Println("按 Ctrl+C 停止服务器")

	go reportStats(ctx, srv)

	<-ctx.Done()
	fmt.Println("\n正在关闭代理服务器...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return seq.StopAll(stopCtx)
}

// reportStats 定期报告统计信息
func reportStats(ctx context.Context, srv *proxyserver.Server) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := srv.Stats()
			fmt.Printf("[Stats] 活跃隧道: %d 累计: %d 失败: %d 上行: %d 下行: %d\n",
				st.ActiveTunnels, st.Tunnels, st.Failed, st.BytesUp, st.BytesDown)
		}
	}
}
