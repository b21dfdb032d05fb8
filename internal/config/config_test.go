package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

	req.NoError(err)
	req.Equal(3333, cfg.Port)
	req.Equal(DriverMemory, cfg.Store.Driver)
	req.Equal(time.Hour, cfg.Store.TTL)
	req.Equal(DriverLocal, cfg.Bus.Driver)
	req.Equal(time.Second, cfg.Rate.Interval)
	req.Empty(cfg.AllowedOrigins)
}

func TestLoadFile_YAMLAndEnv(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	req.NoError(os.WriteFile(path, []byte(`
mode: debug
port: 4000
allowed_origins:
  - https://poker.example.com
store:
  driver: redis
  ttl: 30m
redis:
  addr: redis:6379
  prefix: "rooms:"
bus:
  driver: redis
`), 0o600))
	t.Setenv("ROOMS_PORT", "5000")

	cfg, err := LoadFile(path)

	req.NoError(err)
	req.Equal("debug", cfg.Mode)
	req.Equal(5000, cfg.Port)
	req.Equal([]string{"https://poker.example.com"}, cfg.AllowedOrigins)
	req.Equal(DriverRedis, cfg.Store.Driver)
	req.Equal(30*time.Minute, cfg.Store.TTL)
	req.Equal("redis:6379", cfg.Redis.Addr)
	req.Equal("rooms:", cfg.Redis.Prefix)
}

func TestLoadFile_RejectsRedisBusOnMemoryStore(t *testing.T) {
	req := require.New(t)
	t.Setenv("ROOMS_BUS_DRIVER", "redis")

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))

	req.Error(err)
}
