package metadata

import (
	"errors"
	"os"
	"testing"

	"github.com/starford/postindex/internal/testutil"
)

func TestExtract_AllFields(t *testing.T) {
	_, fs := testutil.TestDir(t)
	_ = fs.Write("2024-01-hello.md", []byte("---\ntitle: Hello\ndate: 2024-01-05\ncategory: Language\nsubcategory: go\ntags: [go, intro]\nexcerpt: Custom summary\nauthor: Kim\n---\nBody\n"))

	ex := NewExtractor(fs, testutil.Clock())
	p, err := ex.Extract("2024-01-hello.md")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.ID != "2024-01-hello" || p.Slug != "2024-01-hello" || p.Filename != "2024-01-hello.md" {
		t.Errorf("id/slug/filename = %q/%q/%q", p.ID, p.Slug, p.Filename)
	}
	if p.Title != "Hello" || p.Date != "2024-01-05" || p.Category != "Language" || p.Author != "Kim" {
		t.Errorf("unexpected record: %+v", p)
	}
	if p.SubcategoryName() != "go" {
		t.Errorf("subcategory = %q", p.SubcategoryName())
	}
	if p.Excerpt != "Custom summary" {
		t.Errorf("excerpt = %q, want header-supplied value", p.Excerpt)
	}
	if len(p.Tags) != 2 {
		t.Errorf("tags = %v", p.Tags)
	}
}

func TestExtract_Defaults(t *testing.T) {
	_, fs := testutil.TestDir(t)
	_ = fs.Write("bare.md", []byte("# Heading\n\nJust *text*."))

	p, err := NewExtractor(fs, testutil.Clock()).Extract("bare.md")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if p.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", p.Title, DefaultTitle)
	}
	if p.Category != DefaultCategory {
		t.Errorf("category = %q, want %q", p.Category, DefaultCategory)
	}
	if p.Author != DefaultAuthor {
		t.Errorf("author = %q, want %q", p.Author, DefaultAuthor)
	}
	if p.Date != "2025-06-01" {
		t.Errorf("date = %q, want clock date", p.Date)
	}
	if p.Subcategory != nil {
		t.Errorf("subcategory = %v, want nil", *p.Subcategory)
	}
	if p.Tags == nil || len(p.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil slice", p.Tags)
	}
	if p.Excerpt != "Heading Just text." {
		t.Errorf("excerpt = %q", p.Excerpt)
	}
}

func TestExtract_MalformedHeaderFallsBack(t *testing.T) {
	_, fs := testutil.TestDir(t)
	_ = fs.Write("broken.md", []byte("---\n: invalid: yaml: {{{\n---\nBody\n"))

	p, err := NewExtractor(fs, testutil.Clock()).Extract("broken.md")
	if err != nil {
		t.Fatalf("malformed header must not fail extraction: %v", err)
	}
	if p.Title != DefaultTitle || p.Category != DefaultCategory {
		t.Errorf("expected defaults, got %+v", p)
	}
}

func TestExtract_MissingFileIsParseError(t *testing.T) {
	_, fs := testutil.TestDir(t)
	_, err := NewExtractor(fs, nil).Extract("missing.md")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Filename != "missing.md" {
		t.Errorf("filename = %q", pe.Filename)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ParseError should unwrap to os.ErrNotExist")
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"hello.md":          "hello",
		"2024-01-01-a.b.md": "2024-01-01-a.b",
		"noext":             "noext",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
