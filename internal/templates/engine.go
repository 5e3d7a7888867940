package templates

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
)

const extension = ".tmpl"

type Engine interface {
	Execute(name string, data any) (string, error)
}

// TextTemplateEngine renders the embedded templates. A template in the custom
// directory with the same relative name replaces the embedded one.
type TextTemplateEngine struct {
	templates *template.Template
	funcs     template.FuncMap
	embedded  fs.FS
	customDir string
}

func NewEngine(embedded fs.FS, customDir string, funcs template.FuncMap) (*TextTemplateEngine, error) {
	e := &TextTemplateEngine{
		embedded:  embedded,
		customDir: customDir,
		funcs:     funcs,
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *TextTemplateEngine) load() error {
	e.templates = template.New("").Funcs(e.funcs)

	if err := e.parseFS(e.embedded, "embedded"); err != nil {
		return fmt.Errorf("loading embedded templates: %w", err)
	}

	if e.customDir == "" {
		return nil
	}
	if _, err := os.Stat(e.customDir); os.IsNotExist(err) {
		return nil
	}
	if err := e.parseFS(os.DirFS(e.customDir), "custom"); err != nil {
		return fmt.Errorf("loading custom templates: %w", err)
	}
	return nil
}

func (e *TextTemplateEngine) parseFS(fsys fs.FS, kind string) error {
	return fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, extension) {
			return nil
		}
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s template %s: %w", kind, path, err)
		}
		if _, err := e.templates.New(filepath.ToSlash(path)).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s template %s: %w", kind, path, err)
		}
		return nil
	})
}

// Names lists the loaded template names, sorted.
func (e *TextTemplateEngine) Names() []string {
	var names []string
	for _, t := range e.templates.Templates() {
		if strings.HasSuffix(t.Name(), extension) {
			names = append(names, t.Name())
		}
	}
	slices.Sort(names)
	return names
}

func (e *TextTemplateEngine) Execute(name string, data any) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	return buf.String(), nil
}
