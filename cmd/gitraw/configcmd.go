package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/gitraw/internal/config"
)

type configListOptions struct {
	showOrigin bool
	showLevel  bool
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration values",
	}
	cmd.AddCommand(newConfigListCmd(a), newConfigGetCmd(a))
	return cmd
}

func newConfigListCmd(a *app) *cobra.Command {
	var opts configListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every configuration value, lowest precedence first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.settings.Iterator()
			if err != nil {
				return err
			}
			entries, err := config.Collect(it)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i := range entries {
				writeEntry(out, &entries[i], opts)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.showOrigin, "show-origin", false, "show where each value came from")
	cmd.Flags().BoolVar(&opts.showLevel, "show-level", false, "show the level of each value")
	return cmd
}

func newConfigGetCmd(a *app) *cobra.Command {
	var (
		all       bool
		showLayer bool
		opts      configListOptions
	)

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a configuration key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if all {
				entries, err := a.settings.GetAll(args[0])
				if err != nil {
					return err
				}
				for i := range entries {
					writeValue(out, &entries[i], opts)
				}
				return nil
			}

			h, err := a.settings.Get(args[0])
			if err != nil {
				return err
			}
			defer h.Close()
			if showLayer {
				fmt.Fprintf(out, "%s\t", a.store.WhichLayer(args[0]))
			}
			writeValue(out, &h.Entry, opts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "print every value of a multivar")
	cmd.Flags().BoolVar(&opts.showOrigin, "show-origin", false, "show where the value came from")
	cmd.Flags().BoolVar(&opts.showLevel, "show-level", false, "show the level of the value")
	cmd.Flags().BoolVar(&showLayer, "show-layer", false, "show the name of the layer that provides the value")
	return cmd
}

func writePrefix(w io.Writer, e *config.Entry, opts configListOptions) {
	if opts.showLevel {
		fmt.Fprintf(w, "%s\t", e.Level)
	}
	if opts.showOrigin {
		fmt.Fprintf(w, "%s\t", formatOrigin(e.Origin))
	}
}

func writeEntry(w io.Writer, e *config.Entry, opts configListOptions) {
	writePrefix(w, e, opts)
	fmt.Fprintf(w, "%s=%s\n", e.Name, e.Value)
}

func writeValue(w io.Writer, e *config.Entry, opts configListOptions) {
	writePrefix(w, e, opts)
	fmt.Fprintln(w, e.Value)
}

// formatOrigin renders an origin the way git's --show-origin does:
// "file:<path>" for files, "<source>:" otherwise.
func formatOrigin(origin string) string {
	if filepath.IsAbs(origin) {
		return "file:" + origin
	}
	return origin + ":"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gitraw %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
