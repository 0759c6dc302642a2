package tracing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/internal/config"
)

func TestSetup_DisabledInstallsNothing(t *testing.T) {
	p, err := Setup(config.TracingConfig{Enabled: false, Exporter: "stdout"})
	require.NoError(t, err)
	require.Nil(t, p)

	p, err = Setup(config.TracingConfig{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestSetup_StdoutExporter(t *testing.T) {
	p, err := Setup(config.TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 1.0})
	require.NoError(t, err)
	require.NotNil(t, p)
	p.Shutdown()
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(config.TracingConfig{Enabled: true, Exporter: "jaeger"})
	require.Error(t, err)
}

func TestShutdown_NilProviderIsSafe(t *testing.T) {
	var p *Provider
	require.NotPanics(t, p.Shutdown)
}
