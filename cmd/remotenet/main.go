// Package main 提供 remotenet 客户端节点
//
// 启动注册表与内置传输工厂，可选地启用本地 SOCKS5 代理，
// 在 -metrics-addr 上暴露 Prometheus 指标。
//
// 使用方法:
//
//	remotenet -config remotenet.json -lock-env uat
//	remotenet -node HTTPS://api.example:443 -path /v1/ping
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-remotenet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "JSON 配置文件")
	nodeKey := flag.String("node", "", "启动后请求一次的节点，如 HTTPS://host:443")
	path := flag.String("path", "/", "请求路径")
	body := flag.String("body", "", "请求体")
	logLevel := flag.String("log-level", "", "日志级别 debug/info/warn/error")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus 指标监听地址，空表示关闭")
	lockEnv := flag.String("lock-env", "", "启动后锁定的环境")
	proxyListen := flag.String("proxy-listen", "", "启用本地 SOCKS5 代理并监听此地址")
	showVersion := flag.Bool("version", false, "打印版本")
	flag.Parse()

	if *showVersion {
		fmt.Println(remotenet.VersionInfo())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	applyEnvOverrides(cfg)
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *proxyListen != "" {
		cfg.ProxyServer.Enable = true
		cfg.ProxyServer.ListenAddr = *proxyListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	node, err := remotenet.Start(ctx, remotenet.WithConfig(cfg), remotenet.WithMetrics(reg))
	if err != nil {
		return fmt.Errorf("启动节点失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	var metricsSrv *http.Server
	if *metricsAddr != "" {
		metricsSrv = serveMetrics(*metricsAddr, reg)
	}

	printNodeInfo(node)

	if *lockEnv != "" {
		evt, err := node.LockEnvironment(*lockEnv)
		if err != nil {
			return fmt.Errorf("锁定环境失败: %w", err)
		}
		fmt.Printf("环境 %s 已锁定，服务器 %d 个\n", evt.Environment, len(evt.Servers))
	}

	if *nodeKey != "" {
		if err := callOnce(ctx, node, *nodeKey, *path, *body); err != nil {
			return err
		}
	}

	<-ctx.Done()
	fmt.Println("\n正在关闭...")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return node.Stop(context.Background())
}

// callOnce 解析节点并发起一次请求
func callOnce(ctx context.Context, node *remotenet.Node, s, path, body string) error {
	key, err := remotenet.ParseNodeKey(s)
	if err != nil {
		return err
	}

	req := &remotenet.Request{Path: path}
	if body != "" {
		req.Body = []byte(body)
	}

	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := node.Call(callCtx, key, req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", key, err)
	}
	fmt.Printf("%s -> status=%d bytes=%d\n", key, resp.Status, len(resp.Body))
	fmt.Println(string(resp.Body))
	return nil
}

// serveMetrics 在后台暴露 /metrics
func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "指标服务退出: %v\n", err)
		}
	}()
	fmt.Printf("指标地址: http://%s/metrics\n", addr)
	return srv
}

// printNodeInfo 打印节点信息
func printNodeInfo(node *remotenet.Node) {
	fmt.Println("╔══════════════════════════════════════════════════════╗")
	fmt.Println("║                  remotenet 节点                       ║")
	fmt.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Printf("版本: %s\n", remotenet.VersionInfo())
	fmt.Printf("方案: %v\n", node.Schemes())
	fmt.Printf("参与者: %v\n", node.StartedParticipants())
	if addr, err := node.ProxyAddr(); err == nil {
		fmt.Printf("SOCKS5 代理: %s\n", addr)
	}
	fmt.Println("按 Ctrl+C 停止")
}
