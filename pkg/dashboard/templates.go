package dashboard

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/registry-dashboard/pkg/company"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("index.html").
	Funcs(template.FuncMap{
		"value": company.Value,
		"inc":   func(i int) int { return i + 1 },
	}).
	ParseFS(templateFS, "templates/index.html"))

// formValues echoes the search form as the user typed it.
type formValues struct {
	Country string
	From    string
	To      string
	Limit   string
}

type pageData struct {
	Form      formValues
	MaxLimit  int
	Searched  bool
	Records   []company.Record
	Error     string
	ExportURL string
	RequestID string
}

// render buffers the page so a template error can still produce a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
