package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dshills/gitraw/internal/config"
	"github.com/dshills/gitraw/internal/config/layer"
	"github.com/dshills/gitraw/internal/config/loader"
)

// defaultSettings are the built-in values.
func defaultSettings() map[string]any {
	return map[string]any{
		"gitraw": map[string]any{
			"logLevel": "warn",
		},
		"color": map[string]any{
			"ui": "auto",
		},
		"patch": map[string]any{
			"strip":  int64(1),
			"format": "text",
		},
	}
}

// userConfigPath returns $XDG_CONFIG_HOME/gitraw/config.toml, falling back
// to ~/.config.
func userConfigPath() string {
	base := loader.GetEnvOrDefault("XDG_CONFIG_HOME", "")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "gitraw", "config.toml")
}

// buildStore assembles the layered store: defaults, the user file, the
// --config file, the environment, then -c overrides.
func buildStore(ctx context.Context, opts globalOptions, logger *slog.Logger) (*layer.Manager, error) {
	store := layer.NewManager(layer.WithLogger(logger))

	defaults := layer.NewLayerWithData("defaults", layer.SourceDefaults, config.LevelDefault, defaultSettings())
	defaults.ReadOnly = true
	store.AddLayer(defaults)

	if path := userConfigPath(); path != "" {
		store.AddLayer(layer.NewFileLayer(path, config.LevelXDG))
	}
	if opts.configFile != "" {
		if _, err := os.Stat(opts.configFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		store.AddLayer(layer.NewFileLayer(opts.configFile, config.LevelApp))
	}

	env, err := loader.NewEnvLoader("GITRAW_").Load()
	if err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	store.AddLayer(layer.NewLayerWithData("env", layer.SourceEnv, config.LevelApp, env))

	args := layer.NewLayer("args", layer.SourceArgs, config.LevelApp)
	for _, o := range opts.overrides {
		key, value, err := parseOverride(o)
		if err != nil {
			return nil, err
		}
		layer.SetByPath(args.Data, key, value)
	}
	store.AddLayer(args)

	if err := store.Open(ctx, config.LevelHighest, nil); err != nil {
		return nil, err
	}
	return store, nil
}
