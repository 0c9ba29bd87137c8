package nuclear

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds the handful of environment-tunable knobs the PowerPlant
// itself needs, fed by envFeeder in the teacher's `env:"..."` tag
// convention (a deliberately small stand-in for the teacher's full
// multi-source feeder pipeline -- see DESIGN.md).
type Config struct {
	DefaultPoolConcurrency int           `env:"NUCLEAR_DEFAULT_POOL_CONCURRENCY"`
	LogLevel               string        `env:"NUCLEAR_LOG_LEVEL"`
	ShutdownGrace          time.Duration `env:"NUCLEAR_SHUTDOWN_GRACE"`
	NetworkMTU             int           `env:"NUCLEAR_NETWORK_MTU"`
}

// DefaultConfig returns a Config pre-populated with spec defaults:
// DefaultPoolConcurrency from runtime.NumCPU() (falling back to 2 if
// that ever reports 0), a 5 second shutdown grace, and a 1400 byte MTU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	if n <= 0 {
		n = 2
	}
	return Config{
		DefaultPoolConcurrency: n,
		LogLevel:               "info",
		ShutdownGrace:          5 * time.Second,
		NetworkMTU:             1400,
	}
}

// LoadConfig starts from DefaultConfig and overlays any of its env tags
// found set in the process environment.
func LoadConfig() Config {
	cfg := DefaultConfig()
	envFeed(&cfg)
	return cfg
}

// envFeed applies environment overrides to cfg's four known fields.
// This is purposefully not a generic reflect-driven feeder: Config has
// a fixed, small shape, and a throwaway reflection engine would buy
// nothing a direct field-by-field feed doesn't already give.
func envFeed(cfg *Config) {
	if v, ok := os.LookupEnv("NUCLEAR_DEFAULT_POOL_CONCURRENCY"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultPoolConcurrency = n
		}
	}
	if v, ok := os.LookupEnv("NUCLEAR_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("NUCLEAR_SHUTDOWN_GRACE"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ShutdownGrace = d
		}
	}
	if v, ok := os.LookupEnv("NUCLEAR_NETWORK_MTU"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NetworkMTU = n
		}
	}
}
