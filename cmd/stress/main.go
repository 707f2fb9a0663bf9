package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Borislavv/atomic-list/internal/stress"
	"github.com/Borislavv/atomic-list/internal/stress/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"
)

// Initializes environment variables from .env files and binds them using Viper.
// This allows overriding any value via environment variables.
func init() {
	// Load .env and .env.local files for configuration overrides (both optional).
	if err := godotenv.Overload(".env", ".env.local"); err != nil {
		log.Warn().Msgf("[main] no .env files loaded: %v", err.Error())
	}

	// Bind all relevant environment variables using Viper.
	viper.AutomaticEnv()
	_ = viper.BindEnv("APP_ENV")
	_ = viper.BindEnv("APP_DEBUG")
	_ = viper.BindEnv("LISTS")
	_ = viper.BindEnv("ADDER_WORKERS")
	_ = viper.BindEnv("REMOVER_WORKERS")
	_ = viper.BindEnv("RUN_DURATION")
	_ = viper.BindEnv("STALL_WINDOW")
	_ = viper.BindEnv("MAX_LIST_LEN")
	_ = viper.BindEnv("OPS_LIMIT_PER_WORKER")
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("SERVER_SHUTDOWN_TIMEOUT")
	_ = viper.BindEnv("IS_PROMETHEUS_METRICS_ENABLED")
}

// setMaxProcs automatically sets the optimal GOMAXPROCS value (CPU parallelism)
// based on the available CPUs and cgroup/docker CPU quotas (uses automaxprocs).
func setMaxProcs() {
	if _, err := maxprocs.Set(); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

// loadCfg loads the configuration struct from environment variables.
func loadCfg() *config.Config {
	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Err(err).Msg("[main] failed to unmarshal config from envs")
		panic(err)
	}
	return cfg
}

// Main entrypoint: configures and starts the stress workload driver.
func main() {
	// Cancel the run on SIGTERM/SIGINT so the final validation still happens.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Optimize GOMAXPROCS for the current environment.
	setMaxProcs()

	// Load the workload configuration from env vars.
	cfg := loadCfg()
	if !cfg.AppDebug {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	app, err := stress.NewApp(cfg)
	if err != nil {
		log.Err(err).Msg("[main] failed to init stress app")
		os.Exit(1)
	}

	if err = app.Run(ctx); err != nil {
		log.Err(err).Msg("[main] stress run failed")
		os.Exit(1)
	}
}
