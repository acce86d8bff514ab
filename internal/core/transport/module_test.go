package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-remotenet/config"
	"github.com/dep2p/go-remotenet/internal/core/registry"
	"github.com/dep2p/go-remotenet/pkg/types"
)

func schemasOf(bindings []registry.FactoryBinding) []types.Schema {
	out := make([]types.Schema, len(bindings))
	for i, b := range bindings {
		out[i] = b.Schema
	}
	return out
}

func TestBindings_Defaults(t *testing.T) {
	bindings, err := Bindings(NewConfig())
	require.NoError(t, err)
	assert.Equal(t,
		[]types.Schema{types.SchemaHTTP, types.SchemaHTTPS, types.SchemaWSS},
		schemasOf(bindings))
	for _, b := range bindings {
		assert.NotNil(t, b.Factory)
	}
}

func TestBindings_FrameSchemes(t *testing.T) {
	cfg := NewConfig()
	cfg.EnableHTTP = false
	cfg.EnableWebSocket = false
	cfg.FrameSchemes = []string{"KAYAK", "ECIF"}

	bindings, err := Bindings(cfg)
	require.NoError(t, err)
	assert.Equal(t, []types.Schema{types.SchemaKAYAK, types.SchemaECIF}, schemasOf(bindings))
}

func TestBindings_InvalidFrameScheme(t *testing.T) {
	cfg := NewConfig()
	cfg.FrameSchemes = []string{"HTTP"}

	_, err := Bindings(cfg)
	assert.ErrorIs(t, err, types.ErrSchemaCollision)
}

func TestConfigFromUnified(t *testing.T) {
	ucfg := config.NewConfig()
	ucfg.Transport.WebSocketPath = "/rpc"
	ucfg.Transport.ProbeOnConstruct = false

	cfg := ConfigFromUnified(ucfg)
	assert.Equal(t, "/rpc", cfg.WebSocketOptions().Path)
	assert.False(t, cfg.HTTPOptions().Probe)
	assert.Equal(t, ucfg.Transport.MaxFrameSize, cfg.FrameOptions().MaxFrameSize)
}

func TestModule_RegistersFactories(t *testing.T) {
	ucfg := config.NewConfig()
	ucfg.Transport.FrameSchemes = []string{"GXP"}

	var reg *registry.Registry
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(ucfg),
		registry.Module(),
		Module(),
		fx.Populate(&reg),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, []string{"HTTP", "HTTPS", "WSS", "GXP"}, reg.Schemes().Schemes())

	require.NoError(t, reg.Start(context.Background()))
	defer reg.Stop(context.Background())
}
