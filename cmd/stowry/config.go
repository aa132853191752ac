package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowry/config"
)

// configKey is the context key for the loaded configuration.
type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFiles, _ := cmd.Flags().GetStringSlice("config")
	return config.Load(configFiles, cmd.Flags())
}
