package serverinfo

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/pkg/interfaces"
)

// ModuleInput 模块输入
type ModuleInput struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// ModuleOutput 模块输出
//
// 同时以 interfaces.ServerInfoSource 导出，供注册表读取。
type ModuleOutput struct {
	fx.Out

	Store  *Store
	Source interfaces.ServerInfoSource
}

// ProvideStore 从统一配置创建存储
func ProvideStore(input ModuleInput) (ModuleOutput, error) {
	cfg := input.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	store, err := New(cfg.ServerInfos(), WithEnvironment(cfg.Environment))
	if err != nil {
		return ModuleOutput{}, err
	}
	logger.Debug("服务器元数据已加载", "environments", len(store.Environments()), "active", cfg.Environment)
	return ModuleOutput{Store: store, Source: store}, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("serverinfo",
		fx.Provide(ProvideStore),
	)
}
