package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	PageLogin = "login"
	PageChat  = "chat"
	PageAdmin = "admin"
)

// Fragment names usable with Renderer.Fragment.
const (
	FragmentToasts     = "toasts"
	FragmentTranscript = "transcript"
	FragmentDocuments  = "documents"
	FragmentStoreFiles = "store_files"
	FragmentUpload     = "upload"
)

type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

func NewRenderer() (*Renderer, error) {
	fragments, err := template.New("fragments").ParseFS(templateFS, "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse partials: %w", err)
	}
	r := &Renderer{pages: make(map[string]*template.Template), fragments: fragments}
	for _, name := range []string{PageLogin, PageChat, PageAdmin} {
		tmpl, err := template.New(name).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s page: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Page renders a full document. Output is buffered so a template failure
// never leaves a half-written response.
func (r *Renderer) Page(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return execute(w, tmpl, "layout", data)
}

func (r *Renderer) Fragment(w io.Writer, name string, data any) error {
	if r.fragments.Lookup(name) == nil {
		return fmt.Errorf("unknown fragment %q", name)
	}
	return execute(w, r.fragments, name, data)
}

func execute(w io.Writer, tmpl *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet and script.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
