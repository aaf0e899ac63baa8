package layer

import "github.com/dshills/gitraw/internal/config"

// Standard priority levels for configuration layers.
// Higher values override lower values during merging.
const (
	// PriorityDefaults is the lowest priority for built-in defaults.
	PriorityDefaults = 0

	// priorityLevelStep spaces file layers by level: a system file is at
	// 200, a local one at 500.
	priorityLevelStep = 100

	// PriorityEnv is for environment variable overrides.
	PriorityEnv = 750

	// PriorityArgs is for command-line argument overrides.
	PriorityArgs = 800

	// PrioritySession is the highest priority for session overrides.
	PrioritySession = 1000
)

// DefaultPriority returns the default priority for a source. File layers
// are ordered by level.
func DefaultPriority(source Source, level config.Level) int {
	switch source {
	case SourceDefaults:
		return PriorityDefaults
	case SourceFile:
		if level < config.LevelProgramData {
			return priorityLevelStep
		}
		return int(level) * priorityLevelStep
	case SourceEnv:
		return PriorityEnv
	case SourceArgs:
		return PriorityArgs
	case SourceSession:
		return PrioritySession
	default:
		return PriorityDefaults
	}
}

// StandardLayerName returns the standard name for a source. File layers
// are named after their level.
func StandardLayerName(source Source, level config.Level) string {
	if source == SourceFile {
		return level.String()
	}
	return source.String()
}
