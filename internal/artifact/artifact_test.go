package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/postindex/internal/apperr"
	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/testutil"
)

func TestLoadStore_Missing(t *testing.T) {
	_, fs := testutil.TestDir(t)
	_, err := NewWriter(fs).LoadStore()
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadStore_Corrupt(t *testing.T) {
	_, fs := testutil.TestDir(t)
	if err := fs.Write(PostsFile, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	_, err := NewWriter(fs).LoadStore()
	if !errors.Is(err, apperr.ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", err)
	}
}

func TestPersist_RoundTripAndFormat(t *testing.T) {
	dir, fs := testutil.TestDir(t)
	w := NewWriter(fs)

	sub := "go"
	posts := []models.Post{{
		ID: "a", Slug: "a", Filename: "a.md", Title: "A <b>&</b>", Date: "2024-01-01",
		Category: "Language", Subcategory: &sub, Tags: []string{"x"}, Excerpt: "e", Author: "me",
	}, {
		ID: "b", Slug: "b", Filename: "b.md", Title: "B", Date: "2023-01-01",
		Category: "Life", Tags: []string{}, Excerpt: "", Author: "Anonymous",
	}}
	cats := []models.CategoryNode{{ID: "Life", Name: "Life", Count: 1}}

	if err := w.Persist(posts, cats); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, PostsFile))
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	if !strings.HasSuffix(s, "]\n") {
		t.Error("missing trailing newline")
	}
	if !strings.Contains(s, "\n  {\n    \"id\": \"a\",") {
		t.Errorf("unexpected indentation:\n%s", s)
	}
	if !strings.Contains(s, "A <b>&</b>") {
		t.Error("HTML was escaped")
	}
	if !strings.Contains(s, "\"subcategory\": null") {
		t.Error("unset subcategory must be null")
	}

	got, err := w.LoadStore()
	if err != nil {
		t.Fatalf("LoadStore: %v", err)
	}
	if len(got) != 2 || got[0].SubcategoryName() != "go" || got[1].Subcategory != nil {
		t.Fatalf("LoadStore = %+v", got)
	}

	nodes, err := w.LoadCategories()
	if err != nil || len(nodes) != 1 || nodes[0].Count != 1 {
		t.Fatalf("LoadCategories = %+v, %v", nodes, err)
	}
}

func TestPersist_EmptyWritesArrays(t *testing.T) {
	dir, fs := testutil.TestDir(t)
	if err := NewWriter(fs).Persist(nil, nil); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{PostsFile, CategoriesFile} {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(raw) != "[]\n" {
			t.Errorf("%s = %q, want []", name, raw)
		}
	}
}

func TestPersist_WriteFailure(t *testing.T) {
	dir, fs := testutil.TestDir(t)
	// A directory squatting on the artifact name makes the rename fail.
	if err := os.Mkdir(filepath.Join(dir, PostsFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, PostsFile, "x"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := NewWriter(fs).Persist(nil, nil)
	var pe *PersistenceError
	if !errors.As(err, &pe) || pe.Name != PostsFile {
		t.Fatalf("err = %v, want PersistenceError for %s", err, PostsFile)
	}
}
