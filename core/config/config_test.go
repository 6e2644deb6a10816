package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Database.LockWaitSeconds)
	assert.Equal(t, 30*time.Minute, cfg.Inventory.ReservationTimeout)
	assert.Equal(t, 1000, cfg.Inventory.MaxBulkItems)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.ResyncInterval)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "inventory.low_stock", cfg.Kafka.AlertTopic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Encryption.Key)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("INVENTORY_RESERVATION_TIMEOUT", "45m")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 45*time.Minute, cfg.Inventory.ReservationTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=9191\nREDIS_ADDR=redis:6379\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("REDIS_ADDR")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}
