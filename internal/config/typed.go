package config

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ParseBool reads a value the way git does: "true", "yes" and "on" are
// true; "false", "no", "off" and the empty string are false; any integer
// is true when non-zero. Words are case-insensitive.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off", "":
		return false, nil
	}
	n, err := ParseInt64(value)
	if err != nil {
		return false, &TypeError{Value: value, Expected: "boolean"}
	}
	return n != 0, nil
}

// ParseInt64 reads a decimal integer with an optional k, m or g suffix
// (case-insensitive), which multiply by 1024, 1024² and 1024³.
func ParseInt64(value string) (int64, error) {
	num := strings.TrimSpace(value)
	factor := int64(1)
	if n := len(num); n > 0 {
		switch num[n-1] {
		case 'k', 'K':
			factor = 1 << 10
		case 'm', 'M':
			factor = 1 << 20
		case 'g', 'G':
			factor = 1 << 30
		}
		if factor != 1 {
			num = num[:n-1]
		}
	}

	n, err := strconv.ParseInt(num, 0, 64)
	if err != nil || n > math.MaxInt64/factor || n < math.MinInt64/factor {
		return 0, &TypeError{Value: value, Expected: "integer"}
	}
	return n * factor, nil
}

// ParseInt32 is ParseInt64 limited to the int32 range.
func ParseInt32(value string) (int32, error) {
	n, err := ParseInt64(value)
	if err != nil || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, &TypeError{Value: value, Expected: "integer"}
	}
	return int32(n), nil
}

// GetString returns the last value of key in b.
func GetString(b Backend, key string) (string, error) {
	h, err := b.Get(key)
	if err != nil {
		return "", err
	}
	defer h.Close()
	return h.Value, nil
}

// GetBool returns the last value of key in b as a boolean.
func GetBool(b Backend, key string) (bool, error) {
	s, err := GetString(b, key)
	if err != nil {
		return false, err
	}
	v, err := ParseBool(s)
	if err != nil {
		return false, withKey(err, key)
	}
	return v, nil
}

// GetInt64 returns the last value of key in b as an integer.
func GetInt64(b Backend, key string) (int64, error) {
	s, err := GetString(b, key)
	if err != nil {
		return 0, err
	}
	v, err := ParseInt64(s)
	if err != nil {
		return 0, withKey(err, key)
	}
	return v, nil
}

// GetInt32 returns the last value of key in b as a 32-bit integer.
func GetInt32(b Backend, key string) (int32, error) {
	s, err := GetString(b, key)
	if err != nil {
		return 0, err
	}
	v, err := ParseInt32(s)
	if err != nil {
		return 0, withKey(err, key)
	}
	return v, nil
}

// GetStringSlice returns every value of key in b, lowest precedence first.
func GetStringSlice(b Backend, key string) ([]string, error) {
	name, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}
	it, err := b.Iterator()
	if err != nil {
		return nil, err
	}
	entries, err := Collect(it)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.Name == name {
			out = append(out, e.Value)
		}
	}
	if len(out) == 0 {
		return nil, &KeyError{Key: key, Err: ErrNotFound}
	}
	return out, nil
}

func withKey(err error, key string) error {
	var te *TypeError
	if errors.As(err, &te) {
		te.Key = key
	}
	return err
}
