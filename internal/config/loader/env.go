package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/gitraw/internal/config"
)

// EnvLoader loads configuration from environment variables.
//
// Variables named PREFIX_SECTION_NAME map to section.name, with the name
// parts joined in camelCase (GITRAW_CORE_PAGER_COLOR is core.pagerColor).
// Git's GIT_CONFIG_COUNT, GIT_CONFIG_KEY_<n> and GIT_CONFIG_VALUE_<n>
// variables are read as well and override prefixed ones.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "GITRAW_")
	mapping map[string]string // Env var -> config key
	environ func() []string
	lookup  func(string) (string, bool)
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "GITRAW_").
func NewEnvLoader(prefix string) *EnvLoader {
	return NewEnvLoaderWithMapping(prefix, defaultEnvMapping())
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		environ: os.Environ,
		lookup:  os.LookupEnv,
	}
}

func defaultEnvMapping() map[string]string {
	return map[string]string{
		"GITRAW_LOG_LEVEL": "gitraw.logLevel",
		"GITRAW_COLOR":     "color.ui",
		"GITRAW_EDITOR":    "core.editor",
		"GITRAW_PAGER":     "core.pager",
	}
}

// Load reads environment variables and returns a configuration map.
// Empty values are kept. A malformed GIT_CONFIG_COUNT sequence is an
// error.
func (l *EnvLoader) Load() (map[string]any, error) {
	data := make(map[string]any)

	for env, key := range l.mapping {
		if val, ok := l.lookup(env); ok {
			setByParts(data, config.SplitKey(key), parseValue(val))
		}
	}

	if l.prefix != "" {
		for _, env := range l.environ() {
			name, value, ok := strings.Cut(env, "=")
			if !ok || !strings.HasPrefix(name, l.prefix) {
				continue
			}
			if _, mapped := l.mapping[name]; mapped {
				continue
			}
			key := l.envToPath(name)
			if key == "" {
				continue
			}
			setByParts(data, strings.Split(key, "."), parseValue(value))
		}
	}

	if err := l.loadGitConfigCount(data); err != nil {
		return nil, err
	}
	return data, nil
}

// loadGitConfigCount applies GIT_CONFIG_KEY_<n>/GIT_CONFIG_VALUE_<n> pairs.
// A key given more than once becomes a multivar.
func (l *EnvLoader) loadGitConfigCount(data map[string]any) error {
	raw, ok := l.lookup("GIT_CONFIG_COUNT")
	if !ok || raw == "" {
		return nil
	}
	count, err := strconv.ParseUint(raw, 10, 31)
	if err != nil {
		return fmt.Errorf("bogus count in GIT_CONFIG_COUNT: %q", raw)
	}

	seen := make(map[string]bool)
	for i := 0; i < int(count); i++ {
		keyVar := fmt.Sprintf("GIT_CONFIG_KEY_%d", i)
		valueVar := fmt.Sprintf("GIT_CONFIG_VALUE_%d", i)

		key, ok := l.lookup(keyVar)
		if !ok || key == "" {
			return fmt.Errorf("missing config key %s", keyVar)
		}
		value, ok := l.lookup(valueVar)
		if !ok {
			return fmt.Errorf("missing config value %s", valueVar)
		}

		name, err := config.NormalizeKey(key)
		if err != nil {
			return fmt.Errorf("%s: %w", keyVar, err)
		}
		parts := config.SplitKey(name)
		if seen[name] {
			appendByParts(data, parts, value)
		} else {
			setByParts(data, parts, value)
			seen[name] = true
		}
	}
	return nil
}

// envToPath converts GITRAW_CORE_PAGER_COLOR to core.pagerColor. Names
// without both a section and a setting map to "".
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	parts := strings.Split(name, "_")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}

	section := strings.ToLower(parts[0])
	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if len(part) > 0 {
			setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + setting
}

// parseValue keeps values as strings, except that a JSON array becomes a
// list (a multivar).
func parseValue(s string) any {
	if !strings.HasPrefix(s, "[") {
		return s
	}
	var list []any
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return s
	}
	return list
}

// setByParts sets a value in a nested map, creating intermediate maps.
func setByParts(data map[string]any, parts []string, value any) {
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// appendByParts adds value to the list at parts, turning a scalar into a
// list.
func appendByParts(data map[string]any, parts []string, value any) {
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}

	last := parts[len(parts)-1]
	switch existing := current[last].(type) {
	case nil:
		current[last] = []any{value}
	case []any:
		current[last] = append(existing, value)
	default:
		current[last] = []any{existing, value}
	}
}

// GetEnvOrDefault returns the environment variable value or a default.
func GetEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// ExpandEnvInString expands environment variables in a string.
// Supports both $VAR and ${VAR} syntax.
func ExpandEnvInString(s string) string {
	return os.ExpandEnv(s)
}
