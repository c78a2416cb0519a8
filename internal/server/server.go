// Package server serves rendered artifacts for preview in a browser.
package server

import (
	"html/template"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ivlev/svgmotion/internal/encoder"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>svgmotion</title></head>
<body>
<h1>Artifacts</h1>
<ul>
{{- range .}}
  <li><a href="/files/{{.}}">{{.}}</a></li>
{{- else}}
  <li>nothing rendered yet</li>
{{- end}}
</ul>
</body>
</html>
`))

// New returns a router serving artifacts from dir.
func New(dir string, logRequests bool) http.Handler {
	r := chi.NewRouter()
	if logRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		names, err := listArtifacts(dir)
		if err != nil {
			log.Printf("[!] server: list %s: %v", dir, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, names); err != nil {
			log.Printf("[!] server: index: %v", err)
		}
	})

	r.Get("/files/*", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "*")
		p, ok := resolve(dir, name)
		if !ok {
			http.NotFound(w, req)
			return
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			http.NotFound(w, req)
			return
		}
		w.Header().Set("Content-Type", encoder.ContentTypeFor(p))
		http.ServeFile(w, req, p)
	})

	r.NotFound(http.NotFound)
	return r
}

// resolve maps a request path to a file inside dir. Paths that would
// escape dir are rejected.
func resolve(dir, name string) (string, bool) {
	if name == "" || strings.Contains(name, "\\") {
		return "", false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", false
		}
	}
	clean := path.Clean("/" + name)
	return filepath.Join(dir, filepath.FromSlash(clean)), true
}

// listArtifacts returns the rendered files in dir, sorted by name.
func listArtifacts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if encoder.ContentTypeFor(e.Name()) == "application/octet-stream" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
