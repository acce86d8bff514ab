package app

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/core/ctxstore"
	"github.com/dep2p/go-remotenet/internal/core/lifecycle"
	"github.com/dep2p/go-remotenet/internal/core/proxyserver"
	"github.com/dep2p/go-remotenet/internal/core/registry"
	"github.com/dep2p/go-remotenet/internal/core/serverinfo"
	"github.com/dep2p/go-remotenet/pkg/types"
)

// 运行时能力键
var (
	KeyConfig      = types.NewGenericKey[*config.Config]("config")
	KeySequencer   = types.NewGenericKey[*lifecycle.Sequencer]("sequencer")
	KeyRegistry    = types.NewGenericKey[*registry.Registry]("registry")
	KeyServerInfo  = types.NewGenericKey[*serverinfo.Store]("serverinfo")
	KeyProxyServer = types.NewGenericKey[*proxyserver.Server]("proxy-server")
)

// Runtime 已通过 fx 组装完成的运行时
type Runtime struct {
	Config     *config.Config
	Sequencer  *lifecycle.Sequencer
	Registry   *registry.Registry
	ServerInfo *serverinfo.Store

	// ProxyServer 未启用时为 nil
	ProxyServer *proxyserver.Server

	// Values 以类型化键存放的全部能力
	Values *ctxstore.Store
}

// wireParams 跨模块接线参数
type wireParams struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Config      *config.Config
	Sequencer   *lifecycle.Sequencer
	Registry    *registry.Registry
	ServerInfo  *serverinfo.Store
	ProxyServer *proxyserver.Server `optional:"true"`
}

// wire 订阅环境锁定事件并收集运行时句柄
func wire(p wireParams) *Runtime {
	unsubscribe := p.ServerInfo.Subscribe(func(evt types.EnvironmentLocked) {
		evicted := p.Registry.EnvironmentLocked(evt)
		logger.Debug("环境锁定已应用到注册表", "environment", evt.Environment, "evicted", len(evicted))
	})
	p.Lifecycle.Append(fx.StopHook(unsubscribe))

	values := ctxstore.New()
	// 每个键只在这里写入一次，不会冲突
	_ = ctxstore.Set(values, KeyConfig, p.Config)
	_ = ctxstore.Set(values, KeySequencer, p.Sequencer)
	_ = ctxstore.Set(values, KeyRegistry, p.Registry)
	_ = ctxstore.Set(values, KeyServerInfo, p.ServerInfo)
	if p.ProxyServer != nil {
		_ = ctxstore.Set(values, KeyProxyServer, p.ProxyServer)
	}

	return &Runtime{
		Config:      p.Config,
		Sequencer:   p.Sequencer,
		Registry:    p.Registry,
		ServerInfo:  p.ServerInfo,
		ProxyServer: p.ProxyServer,
		Values:      values,
	}
}
