// Package render turns view names and page data into HTML.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/hyperjump/inkwell/internal/models"
)

// View names.
const (
	ViewIndex    = "index"
	ViewPosts    = "posts"
	ViewSearch   = "search"
	ViewResults  = "results"
	ViewPost     = "post"
	ViewNotFound = "404"
	ViewError    = "500"
)

var views = []string{ViewIndex, ViewPosts, ViewSearch, ViewResults, ViewPost, ViewNotFound, ViewError}

// shared files parsed into every view.
var shared = []string{"layout.html", "partials.html"}

//go:embed templates/*.html
var embedded embed.FS

// Page is the data every view receives. Views read only the fields they need.
type Page struct {
	Title   string
	Message string
	Query   string
	Posts   []models.Post
	Post    *models.Post
	Related []models.Post
	Error   string
}

// Renderer executes views parsed from a file system. The parsed set can be
// replaced at runtime with Reload.
type Renderer struct {
	fsys  fs.FS
	mu    sync.RWMutex
	views map[string]*template.Template
}

// New parses the templates embedded in the binary.
func New() (*Renderer, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	return NewFromFS(sub)
}

// NewFromDir parses templates from a directory on disk.
func NewFromDir(dir string) (*Renderer, error) {
	return NewFromFS(os.DirFS(dir))
}

// NewFromFS parses templates from fsys.
func NewFromFS(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{fsys: fsys}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-parses every view. On error the previously parsed set stays active.
func (r *Renderer) Reload() error {
	parsed := make(map[string]*template.Template, len(views))
	for _, name := range views {
		files := append(append([]string(nil), shared...), name+".html")
		t, err := template.New(name).ParseFS(r.fsys, files...)
		if err != nil {
			return fmt.Errorf("parse view %s: %w", name, err)
		}
		parsed[name] = t
	}
	r.mu.Lock()
	r.views = parsed
	r.mu.Unlock()
	return nil
}

// Render executes view with page and writes it with the given status. The
// view is rendered into a buffer first, so a failing template writes nothing.
func (r *Renderer) Render(w http.ResponseWriter, status int, view string, page *Page) error {
	r.mu.RLock()
	t, ok := r.views[view]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown view %q", view)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("render view %s: %w", view, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
