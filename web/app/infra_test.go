package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/sightline/internal/config"
	"github.com/JaimeStill/sightline/internal/infrastructure"
)

func startInfrastructure(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()

	infra, err := infrastructure.New(cfg)
	require.NoError(t, err)
	require.NoError(t, infra.Start())
	require.NoError(t, infra.Lifecycle.WaitForStartup())
	t.Cleanup(func() { _ = infra.Lifecycle.Shutdown(5 * time.Second) })

	return infra
}
