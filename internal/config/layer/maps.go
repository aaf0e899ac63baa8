package layer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/gitraw/internal/config"
)

// cloneValue creates a deep copy of a value.
func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		return cloneSlice(v)
	default:
		return val
	}
}

// SetByPath sets key ("section[.subsection].name") in a nested map,
// creating intermediate maps as needed. The subsection may contain dots.
func SetByPath(data map[string]any, key string, value any) {
	if data == nil {
		return
	}
	setByParts(data, config.SplitKey(key), value)
}

// DeleteByPath removes key from a nested map, pruning maps left empty.
// Returns true if the value was found and deleted.
func DeleteByPath(data map[string]any, key string) bool {
	if data == nil {
		return false
	}
	return deleteByParts(data, config.SplitKey(key))
}

func getByParts(data map[string]any, parts []string) (any, bool) {
	current := any(data)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}
	return current, true
}

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

func deleteByParts(data map[string]any, parts []string) bool {
	if len(parts) == 1 {
		if _, ok := data[parts[0]]; !ok {
			return false
		}
		delete(data, parts[0])
		return true
	}

	next, ok := data[parts[0]].(map[string]any)
	if !ok || !deleteByParts(next, parts[1:]) {
		return false
	}
	if len(next) == 0 {
		delete(data, parts[0])
	}
	return true
}

// walkLeaves calls fn for every non-map value, in sorted key order.
func walkLeaves(data map[string]any, fn func(parts []string, value any)) {
	walkLeavesPrefix(data, nil, fn)
}

func walkLeavesPrefix(data map[string]any, prefix []string, fn func(parts []string, value any)) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		parts := append(prefix[:len(prefix):len(prefix)], k)
		if nested, ok := data[k].(map[string]any); ok {
			walkLeavesPrefix(nested, parts, fn)
			continue
		}
		fn(parts, data[k])
	}
}

// findLeaf returns the path of the value whose normalized key is name.
// When differently-cased spellings exist, the last in sorted order wins.
func findLeaf(data map[string]any, name string) ([]string, any, bool) {
	var (
		found []string
		value any
	)
	walkLeaves(data, func(parts []string, v any) {
		if n, err := config.NormalizeKey(strings.Join(parts, ".")); err == nil && n == name {
			found, value = parts, v
		}
	})
	return found, value, found != nil
}

// FlattenMap flattens a nested map into a single-level map with dot-separated keys.
func FlattenMap(data map[string]any) map[string]any {
	result := make(map[string]any)
	walkLeaves(data, func(parts []string, v any) {
		result[strings.Join(parts, ".")] = v
	})
	return result
}

// DiffMaps returns the paths that differ between two maps.
// Returns added, modified, and removed paths, each sorted.
func DiffMaps(old, new map[string]any) (added, modified, removed []string) {
	oldFlat := FlattenMap(old)
	newFlat := FlattenMap(new)

	for path, newVal := range newFlat {
		if oldVal, exists := oldFlat[path]; exists {
			if !valuesEqual(oldVal, newVal) {
				modified = append(modified, path)
			}
		} else {
			added = append(added, path)
		}
	}

	for path := range oldFlat {
		if _, exists := newFlat[path]; !exists {
			removed = append(removed, path)
		}
	}

	sort.Strings(added)
	sort.Strings(modified)
	sort.Strings(removed)
	return added, modified, removed
}

// valuesEqual compares two values for equality.
func valuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok {
			return false
		}
		return mapsEqual(va, vb)
	case []any:
		vb, ok := b.([]any)
		if !ok {
			return false
		}
		return slicesEqual(va, vb)
	default:
		return a == b
	}
}

func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !valuesEqual(va, vb) {
			return false
		}
	}
	return true
}

func slicesEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valuesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// FormatValue renders a layer value as a configuration string. Booleans
// are "true"/"false", numbers are decimal, times are RFC 3339, and nil (a
// key without a value) is "true".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "true"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
