package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template is a reusable named layout of relative-path -> file-content
// pairs, optionally filtered by an include/exclude glob set when applied.
type Template struct {
	Name        string
	Description string
	Files       map[string]string
	Globs       *IncludeExcludeGlobs
}

// NewTemplate creates an empty named template.
func NewTemplate(name, description string) *Template {
	return &Template{Name: name, Description: description, Files: make(map[string]string)}
}

// AddFile registers a file's content at a relative path.
func (t *Template) AddFile(path, content string) {
	t.Files[filepath.ToSlash(path)] = content
}

// FileCount returns the number of files registered.
func (t *Template) FileCount() int { return len(t.Files) }

// HasFile reports whether path is registered.
func (t *Template) HasFile(path string) bool {
	_, ok := t.Files[filepath.ToSlash(path)]
	return ok
}

// Apply writes every (glob-allowed) file in the template into target,
// creating parent directories as needed, and returns the number written.
func (t *Template) Apply(target string) (int, error) {
	written := 0
	for rel, content := range t.Files {
		if t.Globs != nil && !t.Globs.Allowed(rel) {
			continue
		}
		dest := filepath.Join(target, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return written, fmt.Errorf("create dir for %s: %w", rel, err)
		}
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", rel, err)
		}
		written++
	}
	return written, nil
}

// Validate returns a list of problems with the template (empty means valid).
func (t *Template) Validate() []string {
	var problems []string
	if t.Name == "" {
		problems = append(problems, "template name is empty")
	}
	if t.Description == "" {
		problems = append(problems, "template description is empty")
	}
	for path := range t.Files {
		if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
			problems = append(problems, fmt.Sprintf("absolute path not allowed: %s", path))
		}
	}
	return problems
}

// Registry holds named Templates.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{templates: make(map[string]*Template)} }

// Register adds t to the registry, overwriting any existing template with
// the same name.
func (r *Registry) Register(t *Template) { r.templates[t.Name] = t }

// Get looks up a template by name.
func (r *Registry) Get(name string) (*Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// List returns every registered template name, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered templates.
func (r *Registry) Count() int { return len(r.templates) }
