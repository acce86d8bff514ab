package app

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/internal/core/lifecycle"
	"github.com/dep2p/go-remotenet/internal/core/proxyserver"
	"github.com/dep2p/go-remotenet/internal/core/registry"
	"github.com/dep2p/go-remotenet/internal/core/serverinfo"
	"github.com/dep2p/go-remotenet/internal/core/transport"
)

// FoundationModules 基础层模块
//
// Tier 1: lifecycle, serverinfo
func FoundationModules() fx.Option {
	return fx.Options(
		lifecycle.Module(),
		serverinfo.Module(),
	)
}

// ClientModules 客户端层模块
//
// Tier 2: registry, transport
func ClientModules() fx.Option {
	return fx.Options(
		registry.Module(),
		transport.Module(),
	)
}

// ProxyModules 代理服务器模块
//
// Tier 3: proxyserver
func ProxyModules() fx.Option {
	return proxyserver.Module()
}
