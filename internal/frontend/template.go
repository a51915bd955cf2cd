package frontend

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed views/*.html
var templateFS embed.FS

//go:embed views/icon.svg
var assetsFS embed.FS

const viewsPattern = "views/*.html"

// Template implements echo.Renderer on top of the embedded views
type Template struct {
	templates *template.Template
}

func newTemplate() *Template {
	return &Template{
		templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern)),
	}
}

func (t *Template) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// fragment renders a named template into a string for composing htmx responses
func (t *Template) fragment(name string, data any) (string, error) {
	var b strings.Builder
	if err := t.templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
