package server

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"social/internal/auth"
	"social/internal/session"
)

var funcs = template.FuncMap{
	"when": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"userPath": userPath,
	"uploadPath": func(name string) string {
		return "/uploads/" + url.PathEscape(name)
	},
}

// loadTemplates parses every page in dir together with layout.html.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	templates := map[string]*template.Template{}
	layout := filepath.Join(dir, "layout.html")
	pages, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if filepath.Base(page) == "layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(funcs).ParseFiles(layout, page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		templates[name] = t
	}
	for _, name := range []string{"index", "stream", "comments", "friends", "profile"} {
		if _, ok := templates[name]; !ok {
			return nil, fmt.Errorf("template %s.html missing in %s", name, dir)
		}
	}
	return templates, nil
}

// render executes the page into a buffer first so a template error never
// leaves a half written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, id auth.Identity, data map[string]any) {
	t, ok := s.tmpl[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Identity"] = id
	data["Flashes"] = session.PopFlashes(w, r)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
