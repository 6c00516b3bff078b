// templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Set is a group of template files loaded from one filesystem.
type Set struct {
	// Name is for logging only.
	Name string
	FS   fs.FS
	// Patterns are fs.Glob patterns, e.g. "templates/pages/*.gohtml".
	Patterns []string
}

// Engine holds one compiled template tree per page. Every tree is a clone of
// the shared layout plus all page files, where only the owning page keeps
// its "content" block.
type Engine struct {
	funcs  template.FuncMap
	base   *template.Template
	byName map[string]*template.Template
	logger *zap.Logger
}

// New compiles shared first and then every page file of pages. Engines are
// immutable after New and safe for concurrent use.
func New(logger *zap.Logger, shared Set, pages ...Set) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		funcs:  Funcs(),
		byName: map[string]*template.Template{},
		logger: logger,
	}

	base, err := e.parseShared(shared)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", shared.Name, err)
	}
	e.base = base

	for _, s := range pages {
		if err := e.compilePages(s); err != nil {
			return nil, fmt.Errorf("compile %s: %w", s.Name, err)
		}
	}
	return e, nil
}

func (e *Engine) parseShared(s Set) (*template.Template, error) {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %v", s.Patterns)
	}
	root := template.New("root").Funcs(e.funcs)
	for _, p := range files {
		b, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return nil, err
		}
		if _, err := root.Parse(string(b)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	return root, nil
}

func (e *Engine) compilePages(s Set) error {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		e.logger.Warn("no templates matched", zap.String("set", s.Name))
		return nil
	}

	sources := make(map[string]string, len(files))
	for _, p := range files {
		b, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		sources[p] = string(b)
	}

	for _, page := range files {
		owned := extractDefineNames(sources[page])
		delete(owned, "content")

		clone, err := e.base.Clone()
		if err != nil {
			return fmt.Errorf("clone base: %w", err)
		}
		for _, p := range files {
			text := sources[p]
			if p != page {
				text = reContentDefine.ReplaceAllString(text, fmt.Sprintf(`{{ define "%s" }}`, ignoredContentName(p)))
			}
			if _, err := clone.Parse(text); err != nil {
				return fmt.Errorf("parse %s (for %s): %w", p, page, err)
			}
		}

		for name := range owned {
			if _, dup := e.byName[name]; dup {
				return fmt.Errorf("template %q defined by more than one page", name)
			}
			e.byName[name] = clone
		}
		e.logger.Debug("template page compiled",
			zap.String("set", s.Name),
			zap.String("page", path.Base(page)))
	}
	return nil
}

var (
	reContentDefine = regexp.MustCompile(`{{\s*define\s+"content"\s*}}`)
	reDefineName    = regexp.MustCompile(`{{\s*define\s+"([^"]+)"`)
)

func ignoredContentName(p string) string {
	base := path.Base(p)
	return "_content_ignored_" + strings.TrimSuffix(base, path.Ext(base))
}

func extractDefineNames(src string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range reDefineName.FindAllStringSubmatch(src, -1) {
		out[g[1]] = struct{}{}
	}
	return out
}

func globAll(fsys fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Has reports whether name is a page entry point.
func (e *Engine) Has(name string) bool {
	_, ok := e.byName[name]
	return ok
}

// Execute renders the named entry into w. Output is buffered so that a
// failing template writes nothing.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	t, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
