package render

import (
	"strings"
	"testing"

	"github.com/jo-hoe/photolog/internal/entry"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

func TestRenderer_EmptyList(t *testing.T) {
	html, err := NewRenderer().RenderString(nil)
	if err != nil {
		t.Fatalf("RenderString error: %v", err)
	}
	if !strings.Contains(html, "No entries captured yet.") {
		t.Errorf("expected empty placeholder, got %q", html)
	}
}

func TestRenderer_ShowsEveryFieldInOrder(t *testing.T) {
	entries := []entry.Entry{
		{Image: testImage, Caption: "Sunset", Category1: "placeholder1", Category2: "placeholder1B"},
		{Image: testImage, Caption: "Harbour", Category1: "placeholder2", Category2: "placeholder2A"},
	}

	html, err := NewRenderer().RenderString(entries)
	if err != nil {
		t.Fatalf("RenderString error: %v", err)
	}

	if got := strings.Count(html, `class="entry"`); got != 2 {
		t.Fatalf("expected 2 rendered entries, got %d", got)
	}
	for _, want := range []string{
		`src="` + testImage + `"`,
		`alt="Entry 1"`,
		`alt="Entry 2"`,
		"<strong>Caption:</strong> Sunset",
		"<strong>Category 1:</strong> placeholder1",
		"<strong>Category 2:</strong> placeholder2A",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
	if strings.Index(html, "Sunset") > strings.Index(html, "Harbour") {
		t.Error("entries are not rendered in insertion order")
	}
}

func TestRenderer_FullyRegenerates(t *testing.T) {
	r := NewRenderer()
	first, _ := r.RenderString([]entry.Entry{{Image: testImage, Caption: "one", Category1: "a", Category2: "b"}})
	second, _ := r.RenderString([]entry.Entry{{Image: testImage, Caption: "two", Category1: "a", Category2: "b"}})
	if strings.Contains(second, "one") {
		t.Errorf("second render leaked previous output: %q", second)
	}
	if first == second {
		t.Error("expected distinct output for distinct input")
	}
}

func TestRenderer_EscapesUserInput(t *testing.T) {
	html, err := NewRenderer().RenderString([]entry.Entry{{
		Image:     "javascript:alert(1)",
		Caption:   `<script>alert("x")</script>`,
		Category1: "a",
		Category2: "b",
	}})
	if err != nil {
		t.Fatalf("RenderString error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Errorf("caption was not escaped: %q", html)
	}
	if strings.Contains(html, "javascript:") {
		t.Errorf("non-image src was not dropped: %q", html)
	}
}
