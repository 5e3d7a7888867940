package contract

import (
	"fmt"
	"strconv"
)

// Helpers for reading the already-deserialized definition format.

func fetch(raw map[string]any, key string) (any, error) {
	v, ok := raw[key]
	if !ok {
		return nil, &KeyNotFoundError{Key: key}
	}
	return v, nil
}

func fetchString(raw map[string]any, key string) (string, error) {
	v, err := fetch(raw, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q must be a string, got %T", key, v)
	}
	return s, nil
}

func fetchList(raw map[string]any, key string) ([]any, error) {
	v, err := fetch(raw, key)
	if err != nil {
		return nil, err
	}
	list, ok := toList(v)
	if !ok {
		return nil, fmt.Errorf("%q must be a list, got %T", key, v)
	}
	return list, nil
}

func optionalMap(raw map[string]any, key string) (map[string]any, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q must be a map, got %T", key, v)
	}
	return m, nil
}

func toList(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out, true
	case nil:
		return nil, true
	}
	return nil, false
}

// scalarString renders versions and status codes. Integers are accepted since
// unquoted YAML produces them; floats are rejected because "1.0" would become "1".
func scalarString(key string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case uint64:
		return strconv.FormatUint(s, 10), nil
	}
	return "", fmt.Errorf("%s entries must be strings, got %T (%v); quote the value", key, v, v)
}

func stringList(key string, list []any) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, v := range list {
		s, err := scalarString(key, v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
