package mbxas

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chrinide/mbxas/topology"
)

// NATSConfig configures the multi-process messaging runtime.
type NATSConfig struct {
	// URL is the NATS server address. Empty means no messaging runtime:
	// Attach silently falls back to the single-process communicator.
	URL string `yaml:"url"`

	// Namespace prefixes every subject and bucket the library uses, so
	// independent computations can share one NATS deployment.
	Namespace string `yaml:"namespace"`

	// RosterBucket is the KV bucket name for the rank roster. Defaults to
	// "<Namespace>-roster".
	RosterBucket string `yaml:"rosterBucket"`

	// RankTTL is the lease duration of a rank entry in the roster. Entries
	// of crashed processes expire after this long, letting a rerun reclaim
	// their ranks. Recommended: 30 seconds.
	RankTTL time.Duration `yaml:"rankTtl"`

	// ConnectTimeout bounds the initial connection attempt before Attach
	// falls back to the single-process communicator.
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// Config is the initialization configuration for a computation.
//
// All duration fields accept standard Go duration strings like "30s", "5m".
type Config struct {
	// WorldSize is the total number of cooperating processes.
	WorldSize int `yaml:"worldSize"`

	// Rank is this process's rank in [0, WorldSize). Set to -1 to claim a
	// free rank from the roster at attach time, for launchers that do not
	// number their processes.
	Rank int `yaml:"rank"`

	// MinPerPool is the minimum number of processes per pool. A value
	// exceeding WorldSize is clamped (single pool spanning every process)
	// with a diagnostic, not an error.
	MinPerPool int `yaml:"minPerPool"`

	// Placement selects the rank placement policy: "contiguous" or
	// "remainder".
	Placement string `yaml:"placement"`

	// AttachTimeout bounds the whole attach sequence: connecting, rank
	// claiming and the roster readiness wait. Recommended: 60 seconds.
	AttachTimeout time.Duration `yaml:"attachTimeout"`

	// NATS configures the messaging runtime.
	NATS NATSConfig `yaml:"nats"`
}

// DefaultConfig returns a Config with sensible defaults: a serial
// single-process world with contiguous placement and no messaging runtime.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		WorldSize:     1,
		Rank:          0,
		MinPerPool:    1,
		Placement:     "contiguous",
		AttachTimeout: 60 * time.Second,
		NATS: NATSConfig{
			Namespace:      "mbxas",
			RankTTL:        30 * time.Second,
			ConnectTimeout: 5 * time.Second,
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.WorldSize == 0 {
		cfg.WorldSize = defaults.WorldSize
	}
	if cfg.MinPerPool == 0 {
		cfg.MinPerPool = defaults.MinPerPool
	}
	if cfg.Placement == "" {
		cfg.Placement = defaults.Placement
	}
	if cfg.AttachTimeout == 0 {
		cfg.AttachTimeout = defaults.AttachTimeout
	}
	if cfg.NATS.Namespace == "" {
		cfg.NATS.Namespace = defaults.NATS.Namespace
	}
	if cfg.NATS.RosterBucket == "" {
		cfg.NATS.RosterBucket = cfg.NATS.Namespace + "-roster"
	}
	if cfg.NATS.RankTTL == 0 {
		cfg.NATS.RankTTL = defaults.NATS.RankTTL
	}
	if cfg.NATS.ConnectTimeout == 0 {
		cfg.NATS.ConnectTimeout = defaults.NATS.ConnectTimeout
	}
}

// Validate checks the configuration for errors that must fail fast, before
// any communicator is constructed.
//
// Returns:
//   - error: wrapping ErrInvalidConfig with the offending field, or nil
func (cfg *Config) Validate() error {
	if cfg.WorldSize <= 0 {
		return fmt.Errorf("%w: worldSize must be positive, got %d", ErrInvalidConfig, cfg.WorldSize)
	}
	if cfg.Rank < -1 || cfg.Rank >= cfg.WorldSize {
		return fmt.Errorf("%w: rank must be -1 or in [0, %d), got %d", ErrInvalidConfig, cfg.WorldSize, cfg.Rank)
	}
	if cfg.MinPerPool <= 0 {
		return fmt.Errorf("%w: minPerPool must be positive, got %d", ErrInvalidConfig, cfg.MinPerPool)
	}
	if _, err := topology.ParsePolicy(cfg.Placement); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// PlacementPolicy returns the parsed placement policy.
func (cfg *Config) PlacementPolicy() (topology.Policy, error) {
	return topology.ParsePolicy(cfg.Placement)
}

// LoadConfig reads a YAML configuration file, applies defaults and validates
// the result.
//
// Parameters:
//   - path: YAML file path
//
// Returns:
//   - Config: the loaded configuration
//   - error: file, decode or validation error
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
