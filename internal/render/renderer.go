package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/jo-hoe/photolog/internal/entry"
)

//go:embed views/*.html
var viewsFS embed.FS

type entryView struct {
	Position  int
	Image     template.URL
	Caption   string
	Category1 string
	Category2 string
}

// Renderer projects the entry list into an HTML listing.
// Output is regenerated from scratch on every call.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("").ParseFS(viewsFS, "views/*.html")),
	}
}

// Render writes the listing of entries in insertion order
func (r *Renderer) Render(w io.Writer, entries []entry.Entry) error {
	views := make([]entryView, 0, len(entries))
	for i, e := range entries {
		views = append(views, entryView{
			Position:  i + 1,
			Image:     imageURL(e.Image),
			Caption:   e.Caption,
			Category1: e.Category1,
			Category2: e.Category2,
		})
	}
	if err := r.tmpl.ExecuteTemplate(w, "entries", views); err != nil {
		return fmt.Errorf("failed to render entries: %w", err)
	}
	return nil
}

// RenderString is Render into a string
func (r *Renderer) RenderString(entries []entry.Entry) (string, error) {
	var b strings.Builder
	if err := r.Render(&b, entries); err != nil {
		return "", err
	}
	return b.String(), nil
}

// imageURL marks image data URLs as safe for src attributes; anything else is dropped
func imageURL(image string) template.URL {
	if strings.HasPrefix(image, "data:image/") {
		return template.URL(image)
	}
	return ""
}
