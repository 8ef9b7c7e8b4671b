// Package report renders the human-readable diagnostics printed by the CLI.
// The output is meant for people and is not a stable format.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"github.com/tinyalpaca/alpacagen/internal/loader"
	"github.com/tinyalpaca/alpacagen/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var embedded embed.FS

const templateExt = ".tmpl"

type Inspect struct {
	SpecKeys      []string
	ComponentKeys []string
	Method        model.Method
	Path          string
	// Operation is the YAML rendering of the selected operation.
	Operation string
	Resolved  bool
}

type Components struct {
	Keys []string
}

type DeviceType struct {
	Name       string
	Operations int
}

type DeviceTypes struct {
	DeviceTypes []DeviceType
}

type Operations struct {
	DeviceType string
	Operations []model.Operation
}

type Validation struct {
	Version  string
	Findings []loader.Finding
}

// Renderer executes the embedded report templates. Templates found in a
// custom directory replace the embedded ones of the same file name.
type Renderer struct {
	templates *template.Template
}

func New(customDir string) (*Renderer, error) {
	root := template.New("").Funcs(funcs())

	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("opening embedded templates: %w", err)
	}
	if err := parseAll(root, sub, "embedded"); err != nil {
		return nil, err
	}

	if customDir != "" {
		if _, err := os.Stat(customDir); err != nil {
			return nil, fmt.Errorf("custom templates directory: %w", err)
		}
		if err := parseAll(root, os.DirFS(customDir), "custom"); err != nil {
			return nil, err
		}
	}

	return &Renderer{templates: root}, nil
}

func parseAll(root *template.Template, fsys fs.FS, kind string) error {
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, templateExt) {
			return nil
		}
		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s template %s: %w", kind, path, err)
		}
		if _, err := root.New(path).Parse(string(content)); err != nil {
			return fmt.Errorf("parsing %s template %s: %w", kind, path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading %s templates: %w", kind, err)
	}
	return nil
}

func (r *Renderer) Inspect(data Inspect) (string, error) {
	return r.execute("inspect.tmpl", data)
}

func (r *Renderer) Components(data Components) (string, error) {
	return r.execute("components.tmpl", data)
}

func (r *Renderer) DeviceTypes(data DeviceTypes) (string, error) {
	return r.execute("device_types.tmpl", data)
}

func (r *Renderer) Operations(data Operations) (string, error) {
	return r.execute("operations.tmpl", data)
}

func (r *Renderer) Validation(data Validation) (string, error) {
	return r.execute("validate.tmpl", data)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	tmpl := r.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template %s: %w", name, err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

func funcs() template.FuncMap {
	titler := cases.Title(language.English)
	return template.FuncMap{
		"join":  strings.Join,
		"title": titler.String,
		"indent": func(n int, s string) string {
			pad := strings.Repeat(" ", n)
			lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
			for i, l := range lines {
				if l != "" {
					lines[i] = pad + l
				}
			}
			return strings.Join(lines, "\n")
		},
		"typeOf": func(typ, format string) string {
			switch {
			case typ == "":
				return "any"
			case format == "":
				return typ
			}
			return typ + "(" + format + ")"
		},
	}
}
