package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/gitraw/internal/config"
	"github.com/dshills/gitraw/internal/config/layer"
)

// globalOptions are the flags shared by every command.
type globalOptions struct {
	logLevel   string
	configFile string
	overrides  []string
	noColor    bool
}

// app is the state built before a command runs.
type app struct {
	opts     globalOptions
	level    *slog.LevelVar
	logger   *slog.Logger
	store    *layer.Manager
	settings *config.Snapshot
	closers  []func() error
}

// newRootCmd builds the command tree. Run it with app.execute so the
// resources acquired during setup are released.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{level: new(slog.LevelVar)}

	cmd := &cobra.Command{
		Use:   "gitraw",
		Short: "Inspect git patches and layered configuration",
		Long: `gitraw parses unified and git diffs into files, hunks and lines, and
shows the configuration it reads from defaults, files, the environment
and the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.opts.configFile, "config", "", "additional TOML or YAML configuration file")
	flags.StringArrayVarP(&a.opts.overrides, "set", "c", nil, "set a configuration value (key=value)")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newPatchCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	return cmd, a
}

// execute runs cmd and then closes the store and snapshot, whether or not
// the command succeeded.
func (a *app) execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

// setup builds the logger and the configuration snapshot.
func (a *app) setup(cmd *cobra.Command) error {
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: a.level}))
	a.level.Set(slog.LevelWarn)
	if a.opts.logLevel != "" {
		if err := a.level.UnmarshalText([]byte(a.opts.logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", a.opts.logLevel, err)
		}
	}

	store, err := buildStore(cmd.Context(), a.opts, a.logger)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	snap, err := config.TakeSnapshot(cmd.Context(), store, config.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	a.settings = snap
	a.closers = append(a.closers, snap.Close)

	if a.opts.logLevel == "" {
		if v := a.setting("gitraw.loglevel", ""); v != "" {
			if err := a.level.UnmarshalText([]byte(v)); err != nil {
				a.logger.Warn("ignoring invalid gitraw.logLevel", "value", v)
			}
		}
	}
	return nil
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// setting returns a configuration value or def when it is unset.
func (a *app) setting(key, def string) string {
	v, err := config.GetString(a.settings, key)
	if err != nil {
		return def
	}
	return v
}

// parseOverride splits a -c argument. A key without "=" is set to "true",
// as git does.
func parseOverride(arg string) (string, string, error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok {
		value = "true"
	}
	if _, err := config.NormalizeKey(key); err != nil {
		return "", "", fmt.Errorf("-c %s: %w", arg, err)
	}
	return key, value, nil
}
