package render

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	res, err := NewMarkdown().Render([]byte("# Hello World\n\nSome **bold** text.\n\n## Next Part\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(res.HTML, `<h1 id="hello-world">Hello World</h1>`) {
		t.Errorf("heading missing: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, "<strong>bold</strong>") {
		t.Errorf("emphasis missing: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, "<table>") {
		t.Errorf("GFM table missing: %s", res.HTML)
	}
	if len(res.Headings) != 2 || res.Headings[1].Level != 2 || res.Headings[1].ID != "next-part" {
		t.Fatalf("headings = %+v", res.Headings)
	}
}

func TestRender_Empty(t *testing.T) {
	res, err := NewMarkdown().Render(nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.HTML != "" || len(res.Headings) != 0 || res.Headings == nil {
		t.Fatalf("res = %+v", res)
	}
}
