package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// LauncherEnv holds launcher settings taken from environment variables.
type LauncherEnv struct {
	Root   string `env:"BENCH_LAUNCHER_ROOT"`
	Python string `env:"BENCH_LAUNCHER_PYTHON"`
	Module string `env:"BENCH_LAUNCHER_MODULE"`
}

// ParseLauncherEnv parses launcher configuration from environment variables
func ParseLauncherEnv() (*LauncherEnv, error) {
	var cfg LauncherEnv
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse launcher environment: %w", err)
	}
	return &cfg, nil
}
