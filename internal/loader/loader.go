package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"go.yaml.in/yaml/v4"
)

type Result struct {
	Endpoints []map[string]any
	Files     []string
}

// LoadFiles reads every definition file matched by patterns. Patterns are
// globs where "**" crosses directories; a pattern without glob characters
// must name an existing file.
func LoadFiles(patterns ...string) (*Result, error) {
	files, err := Expand(patterns...)
	if err != nil {
		return nil, err
	}

	result := &Result{Files: files}
	for _, path := range files {
		endpoints, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		result.Endpoints = append(result.Endpoints, endpoints...)
	}
	return result, nil
}

func LoadFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition file: %w", err)
	}
	endpoints, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return endpoints, nil
}

// Load decodes a YAML stream. Each document holds one endpoint or a list of
// endpoints.
func Load(data []byte) ([]map[string]any, error) {
	var endpoints []map[string]any

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for i := 0; ; i++ {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing YAML document %d: %w", i, err)
		}

		switch v := normalize(doc).(type) {
		case nil:
		case map[string]any:
			endpoints = append(endpoints, v)
		case []any:
			for j, item := range v {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("document %d, item %d: endpoint must be a map, got %T", i, j, item)
				}
				endpoints = append(endpoints, m)
			}
		default:
			return nil, fmt.Errorf("document %d: endpoint must be a map, got %T", i, v)
		}
	}
	return endpoints, nil
}

// normalize converts YAML mappings with non-string keys so that every map in
// the tree is a map[string]any.
func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			v[k] = normalize(item)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	}
	return v
}

// Expand resolves patterns to a sorted, de-duplicated file list.
func Expand(patterns ...string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matched, err := expand(pattern)
		if err != nil {
			return nil, err
		}
		files = append(files, matched...)
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

func expand(pattern string) ([]string, error) {
	pattern = filepath.ToSlash(filepath.Clean(pattern))
	if !strings.ContainsAny(pattern, "*?[{") {
		if _, err := os.Stat(pattern); err != nil {
			return nil, fmt.Errorf("definition file: %w", err)
		}
		return []string{filepath.FromSlash(pattern)}, nil
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	var files []string
	root := staticPrefix(pattern)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if g.Match(filepath.ToSlash(path)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// staticPrefix returns the directory part of pattern before the first glob
// segment.
func staticPrefix(pattern string) string {
	segments := strings.Split(pattern, "/")
	var static []string
	for _, segment := range segments[:len(segments)-1] {
		if strings.ContainsAny(segment, "*?[{") {
			break
		}
		static = append(static, segment)
	}
	if len(static) == 0 {
		return "."
	}
	if len(static) == 1 && static[0] == "" {
		return "/"
	}
	return filepath.FromSlash(strings.Join(static, "/"))
}
