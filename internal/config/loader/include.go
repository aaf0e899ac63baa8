package loader

import (
	"fmt"
	"path/filepath"
)

// DefaultIncludeDepth bounds nested includes.
const DefaultIncludeDepth = 10

// LoadWithIncludes loads path with l and merges the files named by its
// include.path value (a string or a list of strings). Relative include
// paths resolve against the including file's directory after environment
// expansion. Values in the
// including file override included ones.
func LoadWithIncludes(l FileLoader, path string, maxDepth int) (map[string]any, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("include depth exceeded for %s", path)
	}

	config, err := l.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, nil
	}

	includes, err := takeIncludes(config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	merged := make(map[string]any)
	for _, inc := range includes {
		incPath := ExpandEnvInString(inc)
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(baseDir, incPath)
		}

		incConfig, err := LoadWithIncludes(l, incPath, maxDepth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", incPath, err)
		}
		merged = mergeMaps(merged, incConfig)
	}

	return mergeMaps(merged, config), nil
}

// takeIncludes removes include.path from config and returns its paths.
func takeIncludes(config map[string]any) ([]string, error) {
	section, ok := config["include"].(map[string]any)
	if !ok {
		return nil, nil
	}
	value, ok := section["path"]
	if !ok {
		return nil, nil
	}

	delete(section, "path")
	if len(section) == 0 {
		delete(config, "include")
	}

	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []any:
		paths := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("include.path must be a string or list of strings, got %T", item)
			}
			paths = append(paths, s)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("include.path must be a string or list of strings, got %T", value)
	}
}

// mergeMaps merges src into dst, recursing into maps present in both.
// Values in src win.
func mergeMaps(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = mergeMaps(dstMap, srcMap)
		} else {
			dst[key] = srcVal
		}
	}
	return dst
}
