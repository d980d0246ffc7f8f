package main

import (
	"context"
	"fmt"

	"github.com/newthinker/compass/internal/app"
	"github.com/newthinker/compass/internal/config"
	"github.com/newthinker/compass/internal/logger"
	"github.com/newthinker/compass/internal/metrics"
	"go.uber.org/zap"
)

// loadConfig reads --config, or the defaults when it is unset.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger honours --debug over the configured level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if debug {
		return logger.NewWithLevel(true, "debug")
	}
	return logger.NewWithLevel(cfg.Log.Development, cfg.Log.Level)
}

// bootstrap loads configuration and builds the logger and service.
func bootstrap(ctx context.Context, withMetrics bool) (*config.Config, *zap.Logger, *app.Service, error) {
	cfg, err := loadConfig(logger.Must(debug))
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var opts []app.Option
	if withMetrics && cfg.Metrics.Enabled {
		opts = append(opts, app.WithMetrics(metrics.NewRegistry()))
	}

	svc, err := app.New(ctx, cfg, log, opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing: %w", err)
	}
	return cfg, log, svc, nil
}
