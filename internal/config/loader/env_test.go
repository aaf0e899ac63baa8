package loader

import (
	"errors"
	"testing"

	"github.com/dshills/gitraw/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEnv replaces the loader's view of the environment.
func fakeEnv(l *EnvLoader, env map[string]string) {
	l.environ = func() []string {
		out := make([]string, 0, len(env))
		for k, v := range env {
			out = append(out, k+"="+v)
		}
		return out
	}
	l.lookup = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestEnvLoader_Load(t *testing.T) {
	loader := NewEnvLoader("GITRAW_")
	fakeEnv(loader, map[string]string{
		"GITRAW_LOG_LEVEL":     "debug",
		"GITRAW_COLOR":         "never",
		"GITRAW_CORE_ABBREV":   "12",
		"GITRAW_DIFF_NO_COLOR": "",
		"GITRAW_SINGLE":        "ignored",
		"OTHER_CORE_EDITOR":    "ignored",
	})

	data, err := loader.Load()
	require.NoError(t, err)

	assertPath(t, data, "debug", "gitraw", "logLevel")
	assertPath(t, data, "never", "color", "ui")
	assertPath(t, data, "12", "core", "abbrev")
	assertPath(t, data, "", "diff", "noColor")
	assert.NotContains(t, data, "single")
	assert.NotContains(t, data, "other")
}

func TestEnvLoader_envToPath(t *testing.T) {
	loader := NewEnvLoader("GITRAW_")

	tests := []struct {
		env      string
		expected string
	}{
		{"GITRAW_CORE_EDITOR", "core.editor"},
		{"GITRAW_CORE_PAGER_COLOR", "core.pagerColor"},
		{"GITRAW_DIFF_COLOR_MOVED_WS", "diff.colorMovedWs"},
		{"GITRAW_SIMPLE", ""},
		{"GITRAW__X", ""},
	}

	for _, tt := range tests {
		if got := loader.envToPath(tt.env); got != tt.expected {
			t.Errorf("envToPath(%q) = %q, want %q", tt.env, got, tt.expected)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"true", "true"},
		{"42", "42"},
		{"", ""},
		{"[not json", "[not json"},
		{`["a","b"]`, []any{"a", "b"}},
		{`{"k":"v"}`, `{"k":"v"}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseValue(tt.input), "parseValue(%q)", tt.input)
	}
}

func TestEnvLoader_GitConfigCount(t *testing.T) {
	loader := NewEnvLoaderWithMapping("", nil)
	fakeEnv(loader, map[string]string{
		"GIT_CONFIG_COUNT":   "4",
		"GIT_CONFIG_KEY_0":   "Core.Editor",
		"GIT_CONFIG_VALUE_0": "ed",
		"GIT_CONFIG_KEY_1":   "url.https://example.com/.insteadOf",
		"GIT_CONFIG_VALUE_1": "ex:",
		"GIT_CONFIG_KEY_2":   "remote.origin.fetch",
		"GIT_CONFIG_VALUE_2": "+refs/heads/*:refs/remotes/origin/*",
		"GIT_CONFIG_KEY_3":   "remote.origin.fetch",
		"GIT_CONFIG_VALUE_3": "+refs/tags/*:refs/tags/*",
	})

	data, err := loader.Load()
	require.NoError(t, err)

	assertPath(t, data, "ed", "core", "editor")
	assertPath(t, data, "ex:", "url", "https://example.com/", "insteadof")
	assertPath(t, data, []any{
		"+refs/heads/*:refs/remotes/origin/*",
		"+refs/tags/*:refs/tags/*",
	}, "remote", "origin", "fetch")
}

func TestEnvLoader_GitConfigCountErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "bogus count",
			env:  map[string]string{"GIT_CONFIG_COUNT": "x"},
			want: "bogus count in GIT_CONFIG_COUNT",
		},
		{
			name: "missing key",
			env:  map[string]string{"GIT_CONFIG_COUNT": "1"},
			want: "missing config key GIT_CONFIG_KEY_0",
		},
		{
			name: "missing value",
			env:  map[string]string{"GIT_CONFIG_COUNT": "1", "GIT_CONFIG_KEY_0": "core.editor"},
			want: "missing config value GIT_CONFIG_VALUE_0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewEnvLoaderWithMapping("", nil)
			fakeEnv(loader, tt.env)

			_, err := loader.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("invalid key", func(t *testing.T) {
		loader := NewEnvLoaderWithMapping("", nil)
		fakeEnv(loader, map[string]string{
			"GIT_CONFIG_COUNT":   "1",
			"GIT_CONFIG_KEY_0":   "nodot",
			"GIT_CONFIG_VALUE_0": "v",
		})

		_, err := loader.Load()
		assert.True(t, errors.Is(err, config.ErrInvalidKey))
	})
}

func TestEnvLoader_CustomMapping(t *testing.T) {
	loader := NewEnvLoaderWithMapping("", map[string]string{"CUSTOM_VAR": "custom.path"})
	fakeEnv(loader, map[string]string{"CUSTOM_VAR": "custom_value"})

	data, err := loader.Load()
	require.NoError(t, err)
	assertPath(t, data, "custom_value", "custom", "path")

	fakeEnv(loader, map[string]string{"OTHER_VAR": "x"})
	data, err = loader.Load()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_EXISTS", "exists")

	if val := GetEnvOrDefault("TEST_EXISTS", "default"); val != "exists" {
		t.Errorf("GetEnvOrDefault = %q, want 'exists'", val)
	}
	if val := GetEnvOrDefault("TEST_NOT_EXISTS", "default"); val != "default" {
		t.Errorf("GetEnvOrDefault = %q, want 'default'", val)
	}
}

func TestExpandEnvInString(t *testing.T) {
	t.Setenv("TEST_VAR", "world")

	tests := []struct {
		input    string
		expected string
	}{
		{"hello $TEST_VAR", "hello world"},
		{"hello ${TEST_VAR}", "hello world"},
		{"no vars", "no vars"},
	}

	for _, tt := range tests {
		if got := ExpandEnvInString(tt.input); got != tt.expected {
			t.Errorf("ExpandEnvInString(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func assertPath(t *testing.T, data map[string]any, want any, parts ...string) {
	t.Helper()
	var current any = data
	for _, part := range parts {
		m, ok := current.(map[string]any)
		require.True(t, ok, "%v: %q is not under a map", parts, part)
		current, ok = m[part]
		require.True(t, ok, "%v: missing %q", parts, part)
	}
	assert.Equal(t, want, current, "%v", parts)
}
