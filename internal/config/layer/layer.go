// Package layer is the live configuration store: a stack of prioritized
// layers, merged on read, that implements config.Backend.
//
// Each layer holds a nested map (sections, optional subsections, names) and
// a Level. File layers are (re)loaded by Open; the defaults, environment
// and command-line layers are supplied by the caller.
package layer

import (
	"time"

	"github.com/dshills/gitraw/internal/config"
)

// Layer represents a single configuration layer.
type Layer struct {
	// Name identifies the layer (e.g., "global", "env", "defaults").
	Name string

	// Level is the tier reported for the layer's entries.
	Level config.Level

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where this layer was loaded from.
	Source Source

	// Path is the file path for file layers. Relative paths are resolved
	// against the repository passed to Open.
	Path string

	// Data holds the configuration values as a nested map.
	Data map[string]any

	// ModTime is when the source was last modified.
	ModTime time.Time

	// ReadOnly prevents modifications to this layer.
	ReadOnly bool

	// resolved is Path after resolution by Open.
	resolved string
}

// NewLayer creates a new configuration layer with the default priority for
// its source and level.
func NewLayer(name string, source Source, level config.Level) *Layer {
	return NewLayerWithData(name, source, level, make(map[string]any))
}

// NewLayerWithData creates a new layer with initial data.
func NewLayerWithData(name string, source Source, level config.Level, data map[string]any) *Layer {
	return &Layer{
		Name:     name,
		Level:    level,
		Source:   source,
		Priority: DefaultPriority(source, level),
		Data:     data,
		ModTime:  time.Now(),
	}
}

// NewFileLayer creates an empty file layer for path. Its data is read by
// Manager.Open.
func NewFileLayer(path string, level config.Level) *Layer {
	l := NewLayer(StandardLayerName(SourceFile, level), SourceFile, level)
	l.Path = path
	l.ModTime = time.Time{}
	return l
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Name:     l.Name,
		Level:    l.Level,
		Priority: l.Priority,
		Source:   l.Source,
		Path:     l.Path,
		Data:     cloneMap(l.Data),
		ModTime:  l.ModTime,
		ReadOnly: l.ReadOnly,
		resolved: l.resolved,
	}
}

// origin is the Entry.Origin reported for the layer's values.
func (l *Layer) origin() string {
	if l.resolved != "" {
		return l.resolved
	}
	if l.Path != "" {
		return l.Path
	}
	return l.Source.String()
}

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceDefaults represents built-in default configuration.
	SourceDefaults Source = iota
	// SourceFile represents a TOML or YAML configuration file.
	SourceFile
	// SourceEnv represents environment variables.
	SourceEnv
	// SourceArgs represents command-line arguments.
	SourceArgs
	// SourceSession represents in-memory session overrides.
	SourceSession
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "env"
	case SourceArgs:
		return "command line"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}

// cloneMap creates a deep copy of a map.
func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}

	dst := make(map[string]any, len(src))
	for key, val := range src {
		dst[key] = cloneValue(val)
	}
	return dst
}

// cloneSlice creates a deep copy of a slice.
func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}

	dst := make([]any, len(src))
	for i, val := range src {
		dst[i] = cloneValue(val)
	}
	return dst
}
