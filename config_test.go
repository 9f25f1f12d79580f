package mbxas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chrinide/mbxas"
)

func TestDefaultConfig(t *testing.T) {
	cfg := mbxas.DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 1, cfg.WorldSize)
	require.Equal(t, "contiguous", cfg.Placement)
	require.Empty(t, cfg.NATS.URL)
}

func TestSetDefaults(t *testing.T) {
	cfg := mbxas.Config{WorldSize: 4, MinPerPool: 2}
	mbxas.SetDefaults(&cfg)

	require.Equal(t, 4, cfg.WorldSize)
	require.Equal(t, 2, cfg.MinPerPool)
	require.Equal(t, "contiguous", cfg.Placement)
	require.Equal(t, "mbxas", cfg.NATS.Namespace)
	require.Equal(t, "mbxas-roster", cfg.NATS.RosterBucket)
	require.Equal(t, 30*time.Second, cfg.NATS.RankTTL)
	require.Equal(t, 60*time.Second, cfg.AttachTimeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*mbxas.Config)
	}{
		{"zero world size", func(c *mbxas.Config) { c.WorldSize = 0 }},
		{"negative world size", func(c *mbxas.Config) { c.WorldSize = -2 }},
		{"rank below claim sentinel", func(c *mbxas.Config) { c.Rank = -2 }},
		{"rank beyond world", func(c *mbxas.Config) { c.WorldSize = 2; c.Rank = 2 }},
		{"zero min per pool", func(c *mbxas.Config) { c.MinPerPool = 0 }},
		{"unknown placement", func(c *mbxas.Config) { c.Placement = "round-robin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mbxas.DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), mbxas.ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mbxas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
worldSize: 8
rank: -1
minPerPool: 3
placement: remainder
nats:
  url: nats://localhost:4222
  namespace: xas-run42
  rankTtl: 10s
`), 0o600))

	cfg, err := mbxas.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.WorldSize)
	require.Equal(t, -1, cfg.Rank)
	require.Equal(t, 3, cfg.MinPerPool)
	require.Equal(t, "remainder", cfg.Placement)
	require.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	require.Equal(t, "xas-run42", cfg.NATS.Namespace)
	require.Equal(t, "xas-run42-roster", cfg.NATS.RosterBucket)
	require.Equal(t, 10*time.Second, cfg.NATS.RankTTL)

	policy, err := cfg.PlacementPolicy()
	require.NoError(t, err)
	require.Equal(t, "remainder", policy.String())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := mbxas.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("worldSize: [not an int]"), 0o600))
	_, err = mbxas.LoadConfig(path)
	require.Error(t, err)

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("worldSize: -1"), 0o600))
	_, err = mbxas.LoadConfig(path)
	require.ErrorIs(t, err, mbxas.ErrInvalidConfig)
}
