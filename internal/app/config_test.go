package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBasketAPIConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := loadBasketAPIConfig([]string{})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5221", cfg.GRPCAddr)
	assert.Equal(t, "0.0.0.0:8081", cfg.HealthAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadBasketAPIConfig_Env(t *testing.T) {
	t.Setenv("BASKET_GRPC_ADDR", "127.0.0.1:6000")
	t.Setenv("DATABASE_URL", "postgres://platform/db")

	cfg, err := loadBasketAPIConfig([]string{})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6000", cfg.GRPCAddr)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
}

func TestLoadWebappConfig(t *testing.T) {
	t.Run("requires database", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("WEBAPP_ORDERING_URL", "http://ordering")

		_, err := loadWebappConfig([]string{})
		require.ErrorContains(t, err, "database URL is required")
	})

	t.Run("requires ordering url", func(t *testing.T) {
		t.Setenv("WEBAPP_DATABASE_URL", "postgres://catalog/db")

		_, err := loadWebappConfig([]string{})
		require.ErrorContains(t, err, "ordering URL is required")
	})

	t.Run("platform defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://platform/db")
		t.Setenv("WEBAPP_ORDERING_URL", "http://ordering")
		t.Setenv("PORT", "9090")

		cfg, err := loadWebappConfig([]string{})
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
		assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
		assert.Equal(t, "localhost:5221", cfg.BasketAddr)
		assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	})
}
