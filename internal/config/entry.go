package config

import (
	"strings"
)

// Level is the priority tier a configuration value was read from. Higher
// levels override lower ones.
type Level int

// LevelDefault marks built-in default values.
const LevelDefault Level = 0

const (
	// LevelProgramData is the Windows-wide program data file.
	LevelProgramData Level = iota + 1
	// LevelSystem is the system-wide file (e.g. /etc/gitconfig).
	LevelSystem
	// LevelXDG is $XDG_CONFIG_HOME/git/config.
	LevelXDG
	// LevelGlobal is the user's ~/.gitconfig.
	LevelGlobal
	// LevelLocal is the repository's config file.
	LevelLocal
	// LevelWorktree is the worktree-specific config file.
	LevelWorktree
	// LevelApp is for application-specific values.
	LevelApp

	// LevelHighest selects every level.
	LevelHighest Level = -1
)

// String returns a human-readable name for the level.
func (l Level) String() string {
	switch l {
	case LevelDefault:
		return "default"
	case LevelProgramData:
		return "programdata"
	case LevelSystem:
		return "system"
	case LevelXDG:
		return "xdg"
	case LevelGlobal:
		return "global"
	case LevelLocal:
		return "local"
	case LevelWorktree:
		return "worktree"
	case LevelApp:
		return "app"
	case LevelHighest:
		return "highest"
	default:
		return "unknown"
	}
}

// Includes reports whether a backend opened at l reads values from other.
func (l Level) Includes(other Level) bool {
	return l == LevelHighest || other <= l
}

// Entry is a single configuration value.
type Entry struct {
	// Name is the normalized key, e.g. "remote.origin.url".
	Name string

	// Value is the raw string value.
	Value string

	// Origin describes where the value came from (a file path or a name
	// such as "env").
	Origin string

	// Level is the tier the value was read from.
	Level Level

	// IncludeDepth is how many includes deep the value was found.
	IncludeDepth int
}

// NormalizeKey canonicalizes a "section[.subsection].name" key. The section
// and name are lowercased; the subsection is kept as is.
func NormalizeKey(key string) (string, error) {
	first := strings.IndexByte(key, '.')
	last := strings.LastIndexByte(key, '.')
	if first <= 0 || last == len(key)-1 {
		return "", &KeyError{Key: key, Err: ErrInvalidKey}
	}

	section := key[:first]
	name := key[last+1:]
	if !validSection(section) || !validName(name) {
		return "", &KeyError{Key: key, Err: ErrInvalidKey}
	}

	var b strings.Builder
	b.Grow(len(key))
	b.WriteString(strings.ToLower(section))
	if first != last {
		b.WriteString(key[first:last])
	}
	b.WriteByte('.')
	b.WriteString(strings.ToLower(name))
	return b.String(), nil
}

// SplitKey splits a key into its section, optional subsection and name.
// The subsection may itself contain dots.
func SplitKey(key string) []string {
	first := strings.IndexByte(key, '.')
	last := strings.LastIndexByte(key, '.')
	switch {
	case first < 0:
		return []string{key}
	case first == last:
		return []string{key[:first], key[last+1:]}
	default:
		return []string{key[:first], key[first+1 : last], key[last+1:]}
	}
}

func validSection(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isKeyChar(s[i]) {
			return false
		}
	}
	return true
}

func validName(s string) bool {
	if !isAlpha(s[0]) {
		return false
	}
	return validSection(s)
}

func isKeyChar(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9') || c == '-'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
