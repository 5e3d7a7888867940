package codegen

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/kolah/covenant/contract"
	"github.com/kolah/covenant/internal/config"
	"github.com/kolah/covenant/internal/golang"
	"github.com/kolah/covenant/internal/templates"
	embeddedtmpl "github.com/kolah/covenant/templates"
)

const (
	contractTestTemplate = "contract_test.go.tmpl"
	contractTestFile     = "contract_test.go"
)

type Generator struct {
	config *config.Config
	engine templates.Engine
}

type Output struct {
	Filename string
	Content  string
}

type contractTestData struct {
	Package                  string
	Patterns                 []string
	ScalarsNullableByDefault bool
	Endpoints                []endpointData
}

type endpointData struct {
	Name     string
	TestName string
	Summary  string
}

func New(cfg *config.Config) (*Generator, error) {
	engine, err := templates.NewEngine(embeddedtmpl.FS, cfg.Generate.Templates, golang.TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}

	return &Generator{
		config: cfg,
		engine: engine,
	}, nil
}

// Generate renders a contract test file with one test per endpoint.
func (g *Generator) Generate(endpoints contract.Endpoints) ([]Output, error) {
	patterns, err := relativePatterns(g.config.Generate.OutputDir, g.config.Definitions)
	if err != nil {
		return nil, err
	}

	data := contractTestData{
		Package:                  g.config.Generate.Package,
		Patterns:                 patterns,
		ScalarsNullableByDefault: g.config.ScalarsNullableByDefault,
		Endpoints:                endpointTests(endpoints),
	}

	content, err := g.engine.Execute(contractTestTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("generating contract tests: %w", err)
	}
	formatted, err := golang.Format([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("formatting contract tests: %w", err)
	}

	return []Output{{
		Filename: contractTestFile,
		Content:  string(formatted),
	}}, nil
}

// endpointTests names one test per endpoint. Names that collide after
// conversion to Go identifiers get a numeric suffix.
func endpointTests(endpoints contract.Endpoints) []endpointData {
	seen := make(map[string]int)
	out := make([]endpointData, 0, len(endpoints))
	for _, e := range endpoints {
		name := golang.TestFuncName(e.Name())
		seen[name]++
		if n := seen[name]; n > 1 {
			name += strconv.Itoa(n)
		}
		out = append(out, endpointData{
			Name:     e.Name(),
			TestName: name,
			Summary:  name + " validates the examples of " + e.String() + ".",
		})
	}
	return out
}

// relativePatterns rewrites definition globs so that they resolve from the
// directory of the generated test, where go test runs.
func relativePatterns(outputDir string, patterns []string) ([]string, error) {
	dir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	out := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if filepath.IsAbs(pattern) {
			out = append(out, pattern)
			continue
		}
		abs, err := filepath.Abs(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", pattern, err)
		}
		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			return nil, fmt.Errorf("relativizing %s: %w", pattern, err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}
