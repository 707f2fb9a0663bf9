package config

import "time"

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	AppDebug bool   `mapstructure:"APP_DEBUG"`
	// Lists is the number of independent list instances the workload
	// spreads its operations over. Multi-list transactions always order
	// their descriptors by ascending list index; that index is the global
	// total order the transaction protocol requires from its callers.
	Lists          int           `mapstructure:"LISTS"`
	AdderWorkers   int           `mapstructure:"ADDER_WORKERS"`
	RemoverWorkers int           `mapstructure:"REMOVER_WORKERS"`
	RunDuration    time.Duration `mapstructure:"RUN_DURATION"`
	// StallWindow is the observation window of the liveness watcher:
	// two consecutive windows with identical counter totals while workers
	// are active are treated as a correctness failure.
	StallWindow time.Duration `mapstructure:"STALL_WINDOW"`
	// MaxListLength backs the AddLastIf predicate of adder workers.
	MaxListLength int64 `mapstructure:"MAX_LIST_LEN"`
	// OpsLimitPerWorker throttles each worker to N operations per second
	// when positive; zero disables pacing.
	OpsLimitPerWorker          int           `mapstructure:"OPS_LIMIT_PER_WORKER"`
	ServerPort                 string        `mapstructure:"SERVER_PORT"`
	ServerShutdownTimeout      time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
	IsPrometheusMetricsEnabled bool          `mapstructure:"IS_PROMETHEUS_METRICS_ENABLED"`
}

// WithDefaults fills in zero values so the harness can run without any
// environment at all (go test, bare binary).
func (c *Config) WithDefaults() *Config {
	if c.Lists <= 0 {
		c.Lists = 4
	}
	if c.AdderWorkers <= 0 {
		c.AdderWorkers = 4
	}
	if c.RemoverWorkers <= 0 {
		c.RemoverWorkers = 4
	}
	if c.RunDuration <= 0 {
		c.RunDuration = 30 * time.Second
	}
	if c.StallWindow <= 0 {
		c.StallWindow = 5 * time.Second
	}
	if c.MaxListLength <= 0 {
		c.MaxListLength = 10_000
	}
	if c.ServerShutdownTimeout <= 0 {
		c.ServerShutdownTimeout = 5 * time.Second
	}
	return c
}
