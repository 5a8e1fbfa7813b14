package bench

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/homier/rhmap"
)

const (
	InsertResultFile = "hm_bench_insertion_timing.csv"
	FindResultFile   = "hm_bench_find_timing.csv"
	RemoveResultFile = "hm_bench_removal_timing.csv"

	// Longest line read from the key file, terminator included.
	DefaultMaxKeySize = 128
	DefaultSeed       = 42
)

var ErrInvalidConfig = errors.New("bench: invalid config")

type Config struct {
	KeyFile   string `toml:"key-file"`
	OutputDir string `toml:"output-dir"`
	Seed      int64  `toml:"seed"`

	MaxKeySize int `toml:"max-key-size"`
	// Insert with SetCopy instead of handing the key slices to the map.
	CopyKeys bool `toml:"copy-keys"`
	// xxhash or xxh3.
	Hash string `toml:"hash"`
	// Bytes the map may account for, 0 for no limit.
	MemoryLimit uint64 `toml:"memory-limit"`

	Log LogConfig `toml:"log"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

func DefaultConfig() Config {
	return Config{
		OutputDir:  ".",
		Seed:       DefaultSeed,
		MaxKeySize: DefaultMaxKeySize,
		Hash:       "xxhash",
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig decodes the TOML file at path over the defaults. Unknown keys are
// rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return cfg, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.KeyFile == "" {
		return fmt.Errorf("%w: key file is required", ErrInvalidConfig)
	}

	if c.MaxKeySize < 2 {
		return fmt.Errorf("%w: max key size %d is too small", ErrInvalidConfig, c.MaxKeySize)
	}

	if _, err := c.HashFunc(); err != nil {
		return err
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

func (c Config) HashFunc() (rhmap.HashFunc, error) {
	switch c.Hash {
	case "", "xxhash":
		return rhmap.DefaultHashFunc, nil
	case "xxh3":
		return rhmap.XXH3HashFunc, nil
	default:
		return nil, fmt.Errorf("%w: unknown hash %q", ErrInvalidConfig, c.Hash)
	}
}

func (c Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level

	return zc.Build()
}
