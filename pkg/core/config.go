package core

import (
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the process-wide render settings. It is installed once with
// SetConfig before rendering starts and treated as immutable afterwards.
type Config struct {
	// DiceRate scales the micropolygon size target relative to the ray
	// footprint. 1.0 means one micropolygon per footprint width.
	DiceRate float32 `yaml:"dice_rate"`

	// MinUpolySize is the footprint below which a patch renders as a
	// single micropolygon.
	MinUpolySize float32 `yaml:"min_upoly_size"`

	// MaxGridSize caps per-patch dicing resolution; a patch that wants
	// more should have been split instead.
	MaxGridSize int `yaml:"max_grid_size"`

	// GridCacheBytes bounds the microsurface cache.
	GridCacheBytes uint64 `yaml:"grid_cache_size"`

	BucketSize int `yaml:"bucket_size"`

	// DisplaceDistance inflates primitive bounds so displacement cannot
	// escape them.
	DisplaceDistance float32 `yaml:"displace_distance"`

	// FocusFactor scales the lens origin differentials used for
	// depth-of-field footprints.
	FocusFactor float32 `yaml:"focus_factor"`

	Seed    uint64 `yaml:"seed"`
	Workers int    `yaml:"workers"`
}

// DefaultConfig returns the settings used when no config file is given
func DefaultConfig() Config {
	return Config{
		DiceRate:         1.0,
		MinUpolySize:     0.0001,
		MaxGridSize:      64,
		GridCacheBytes:   64 << 20,
		BucketSize:       32,
		DisplaceDistance: 0.0,
		FocusFactor:      0.333,
		Seed:             43643,
		Workers:          0,
	}
}

// Validate reports the first nonsensical setting
func (c Config) Validate() error {
	if c.DiceRate <= 0 {
		return errors.Errorf("dice_rate must be positive, got %g", c.DiceRate)
	}
	if c.MinUpolySize < 0 {
		return errors.Errorf("min_upoly_size must not be negative, got %g", c.MinUpolySize)
	}
	if c.MaxGridSize < 2 {
		return errors.Errorf("max_grid_size must be at least 2, got %d", c.MaxGridSize)
	}
	if c.GridCacheBytes == 0 {
		return errors.New("grid_cache_size must be positive")
	}
	if c.BucketSize <= 0 {
		return errors.Errorf("bucket_size must be positive, got %d", c.BucketSize)
	}
	if c.FocusFactor < 0 {
		return errors.Errorf("focus_factor must not be negative, got %g", c.FocusFactor)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// LoadConfig reads a YAML config file, filling unset fields from defaults
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "validating config %q", path)
	}
	return cfg, nil
}

var currentConfig atomic.Pointer[Config]

func init() {
	cfg := DefaultConfig()
	currentConfig.Store(&cfg)
}

// SetConfig installs the process-wide config snapshot. Call once before
// rendering; never during.
func SetConfig(c Config) {
	currentConfig.Store(&c)
}

// GetConfig returns the current config snapshot
func GetConfig() *Config {
	return currentConfig.Load()
}
