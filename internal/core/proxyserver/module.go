package proxyserver

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/core/lifecycle"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	Server      *Server
	ProxyServer interfaces.ProxyServer
	Participant lifecycle.Participant `group:"lifecycle_participants"`
}

// ProvideServices 提供模块服务
func ProvideServices(input ModuleInput) ModuleOutput {
	cfg := ConfigFromUnified(input.Config)
	srv := New(cfg)
	return ModuleOutput{
		Server:      srv,
		ProxyServer: srv,
		Participant: lifecycle.NewParticipant("proxy-server", cfg.Order, srv),
	}
}

// Module 返回 fx 模块配置
//
// 只有配置启用时才需要引入本模块；引入后服务器随启停序列启动。
func Module() fx.Option {
	return fx.Module("proxyserver",
		fx.Provide(ProvideServices),
	)
}
