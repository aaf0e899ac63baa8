package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/gitraw/internal/config"
	"github.com/dshills/gitraw/internal/patch"
)

type patchOptions struct {
	format string
	strip  int
}

func newPatchCmd(a *app) *cobra.Command {
	var opts patchOptions

	cmd := &cobra.Command{
		Use:   "patch [file|-]",
		Short: "Parse a diff and print its files, hunks and lines",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") {
				opts.format = a.setting("patch.format", "text")
			}
			if !cmd.Flags().Changed("strip") {
				n, err := config.GetInt32(a.settings, "patch.strip")
				switch {
				case err == nil:
					opts.strip = int(n)
				case !errors.Is(err, config.ErrNotFound):
					return err
				}
			}
			return a.runPatch(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "text", "output format: text, json or yaml")
	cmd.Flags().IntVarP(&opts.strip, "strip", "p", 1, "remove N leading path components")
	return cmd
}

func (a *app) runPatch(cmd *cobra.Command, args []string, opts patchOptions) error {
	in := cmd.InOrStdin()
	name := "<stdin>"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in, name = f, args[0]
	}

	patches, err := patch.NewParser(patch.WithPrefixLen(opts.strip)).Parse(in)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	a.logger.Debug("parsed diff", "input", name, "patches", len(patches))

	out := cmd.OutOrStdout()
	switch opts.format {
	case "text":
		return writePatchText(out, patches, a.palette(out))
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(viewPatches(patches))
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(viewPatches(patches)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

// palette holds the colors used for text output.
type palette struct {
	header  *color.Color
	meta    *color.Color
	hunk    *color.Color
	added   *color.Color
	deleted *color.Color
}

// palette returns the colors for out, honoring --no-color and color.ui.
// As in git, "auto" and true color terminals only.
func (a *app) palette(out io.Writer) palette {
	p := palette{
		header:  color.New(color.Bold),
		meta:    color.New(color.FgYellow),
		hunk:    color.New(color.FgCyan),
		added:   color.New(color.FgGreen),
		deleted: color.New(color.FgRed),
	}

	var enabled bool
	switch ui := a.setting("color.ui", "auto"); ui {
	case "always":
		enabled = true
	case "never":
	case "auto":
		enabled = isTerminal(out)
	default:
		on, err := config.ParseBool(ui)
		if err != nil {
			a.logger.Warn("ignoring invalid color.ui", "value", ui)
			on = true
		}
		enabled = on && isTerminal(out)
	}
	if a.opts.noColor {
		enabled = false
	}

	for _, c := range []*color.Color{p.header, p.meta, p.hunk, p.added, p.deleted} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writePatchText(w io.Writer, patches []*patch.Patch, p palette) error {
	var total patch.LineStats
	for _, pt := range patches {
		if _, err := p.header.Fprintf(w, "%s %s -> %s\n", pt.Status, pt.OldPath, pt.NewPath); err != nil {
			return err
		}
		writeMeta(w, pt, p)

		for _, h := range pt.Hunks {
			p.hunk.Fprintln(w, h.Header)
			for _, l := range h.Lines {
				writeLine(w, l, p)
			}
		}

		s := pt.LineStats()
		total.Additions += s.Additions
		total.Deletions += s.Deletions
	}

	_, err := fmt.Fprintf(w, "%d files changed, %d insertions(+), %d deletions(-)\n",
		len(patches), total.Additions, total.Deletions)
	return err
}

func writeMeta(w io.Writer, pt *patch.Patch, p palette) {
	if pt.OldMode != 0 || pt.NewMode != 0 {
		p.meta.Fprintf(w, "mode %s -> %s\n", pt.OldMode, pt.NewMode)
	}
	if pt.OldID != "" || pt.NewID != "" {
		p.meta.Fprintf(w, "index %s..%s\n", pt.OldID, pt.NewID)
	}
	if pt.Status == patch.StatusRenamed || pt.Status == patch.StatusCopied {
		p.meta.Fprintf(w, "similarity %d%%\n", pt.Similarity)
	}
	if pt.Binary {
		if pt.BinaryData.ContainsData {
			p.meta.Fprintf(w, "binary %s %d bytes\n", pt.BinaryData.NewFile.Type, pt.BinaryData.NewFile.InflatedLen)
		} else {
			p.meta.Fprintln(w, "binary (no data)")
		}
	}
}

func writeLine(w io.Writer, l patch.Line, p palette) {
	switch l.Origin {
	case patch.OriginAddition:
		p.added.Fprintf(w, "+%s\n", l.Content)
	case patch.OriginDeletion:
		p.deleted.Fprintf(w, "-%s\n", l.Content)
	case patch.OriginContext:
		fmt.Fprintf(w, " %s\n", l.Content)
	default:
		p.meta.Fprintf(w, "%s\n", l.Content)
	}
}

// patchView is the JSON and YAML form of a patch.
type patchView struct {
	OldPath    string     `json:"oldPath" yaml:"oldPath"`
	NewPath    string     `json:"newPath" yaml:"newPath"`
	Status     string     `json:"status" yaml:"status"`
	OldMode    string     `json:"oldMode,omitempty" yaml:"oldMode,omitempty"`
	NewMode    string     `json:"newMode,omitempty" yaml:"newMode,omitempty"`
	OldID      string     `json:"oldId,omitempty" yaml:"oldId,omitempty"`
	NewID      string     `json:"newId,omitempty" yaml:"newId,omitempty"`
	Similarity int        `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	Binary     bool       `json:"binary,omitempty" yaml:"binary,omitempty"`
	Additions  int        `json:"additions" yaml:"additions"`
	Deletions  int        `json:"deletions" yaml:"deletions"`
	Hunks      []hunkView `json:"hunks,omitempty" yaml:"hunks,omitempty"`
}

type hunkView struct {
	Header string     `json:"header" yaml:"header"`
	Lines  []lineView `json:"lines" yaml:"lines"`
}

type lineView struct {
	Origin  string `json:"origin" yaml:"origin"`
	Content string `json:"content" yaml:"content"`
	Old     int    `json:"old,omitempty" yaml:"old,omitempty"`
	New     int    `json:"new,omitempty" yaml:"new,omitempty"`
}

func viewPatches(patches []*patch.Patch) []patchView {
	views := make([]patchView, 0, len(patches))
	for _, pt := range patches {
		s := pt.LineStats()
		v := patchView{
			OldPath:    pt.OldPath,
			NewPath:    pt.NewPath,
			Status:     pt.Status.String(),
			OldID:      pt.OldID,
			NewID:      pt.NewID,
			Similarity: pt.Similarity,
			Binary:     pt.Binary,
			Additions:  s.Additions,
			Deletions:  s.Deletions,
		}
		if pt.OldMode != 0 {
			v.OldMode = pt.OldMode.String()
		}
		if pt.NewMode != 0 {
			v.NewMode = pt.NewMode.String()
		}
		for _, h := range pt.Hunks {
			hv := hunkView{Header: h.Header, Lines: make([]lineView, 0, len(h.Lines))}
			for _, l := range h.Lines {
				lv := lineView{Origin: l.Origin.String(), Content: string(l.Content)}
				if l.OldLineNo > 0 {
					lv.Old = l.OldLineNo
				}
				if l.NewLineNo > 0 {
					lv.New = l.NewLineNo
				}
				hv.Lines = append(hv.Lines, lv)
			}
			v.Hunks = append(v.Hunks, hv)
		}
		views = append(views, v)
	}
	return views
}
