package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/starford/postindex/internal/apperr"
	"github.com/starford/postindex/internal/artifact"
	"github.com/starford/postindex/internal/changes"
	"github.com/starford/postindex/internal/metadata"
	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/storage"
	"github.com/starford/postindex/internal/testutil"
)

type env struct {
	content    *storage.FS
	outDir     string
	out        *storage.FS
	categories []models.CategoryConfig
}

func newEnv(t *testing.T) *env {
	t.Helper()
	_, content := testutil.TestDir(t)
	outDir, out := testutil.TestDir(t)
	return &env{
		content: content,
		outDir:  outDir,
		out:     out,
		categories: []models.CategoryConfig{
			{ID: "A", Name: "Alpha"},
			{ID: "B", Name: "Beta"},
		},
	}
}

func (e *env) builder(d changes.Detector) *Builder {
	return &Builder{
		Content:    e.content,
		Extractor:  metadata.NewExtractor(e.content, testutil.Clock()),
		Detector:   d,
		Writer:     artifact.NewWriter(e.out),
		Categories: e.categories,
		Workers:    2,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *env) read(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.outDir, name))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestEndToEnd_AddThenDelete(t *testing.T) {
	e := newEnv(t)
	testutil.WritePost(t, e.content, "one.md", testutil.PostSpec{Title: "One", Date: "2024-03-01", Category: "A"})
	testutil.WritePost(t, e.content, "two.md", testutil.PostSpec{Title: "Two", Date: "2024-02-01", Category: "B", Subcategory: "go"})
	testutil.WritePost(t, e.content, "three.md", testutil.PostSpec{Title: "Three", Date: "2024-01-01", Category: "A"})

	ctx := context.Background()
	first, err := e.builder(changes.Static{}).Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Mode != ModeFull || len(first.Posts) != 3 {
		t.Fatalf("first run = %s with %d posts", first.Mode, len(first.Posts))
	}

	if err := e.content.Delete("two.md"); err != nil {
		t.Fatal(err)
	}
	cs := &models.ChangeSet{Deleted: []string{"two.md"}}
	second, err := e.builder(changes.Static{Changes: cs}).Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Mode != ModeIncremental {
		t.Fatalf("second run mode = %s", second.Mode)
	}

	stored, err := artifact.NewWriter(e.out).LoadStore()
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, p := range stored {
		got = append(got, p.Date+"/"+p.Category)
	}
	if !slices.Equal(got, []string{"2024-03-01/A", "2024-01-01/A"}) {
		t.Fatalf("store = %v", got)
	}

	nodes, err := artifact.NewWriter(e.out).LoadCategories()
	if err != nil {
		t.Fatal(err)
	}
	if nodes[0].ID != "A" || nodes[0].Count != 2 {
		t.Errorf("A = %+v", nodes[0])
	}
	if nodes[1].ID != "B" || nodes[1].Count != 0 || nodes[1].Subcategories != nil {
		t.Errorf("B = %+v", nodes[1])
	}
	if bytes.Contains(e.read(t, artifact.CategoriesFile), []byte("subcategories")) {
		t.Error("categories.json should carry no subcategories field")
	}
}

func TestRun_IdempotentArtifacts(t *testing.T) {
	e := newEnv(t)
	testutil.WritePost(t, e.content, "a.md", testutil.PostSpec{Title: "A", Date: "2024-01-01", Category: "A", Tags: []string{"x", "y"}})
	testutil.WritePost(t, e.content, "b.md", testutil.PostSpec{Title: "B", Date: "2024-01-01", Category: "B"})

	b := e.builder(nil)
	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	posts1, cats1 := e.read(t, artifact.PostsFile), e.read(t, artifact.CategoriesFile)

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(posts1, e.read(t, artifact.PostsFile)) || !bytes.Equal(cats1, e.read(t, artifact.CategoriesFile)) {
		t.Fatal("second run changed artifacts")
	}
}

func TestRun_IncrementalMatchesFull(t *testing.T) {
	e := newEnv(t)
	testutil.WritePost(t, e.content, "a.md", testutil.PostSpec{Title: "A", Date: "2024-01-01", Category: "A"})
	testutil.WritePost(t, e.content, "b.md", testutil.PostSpec{Title: "B", Date: "2024-01-05", Category: "B"})
	ctx := context.Background()
	if _, err := e.builder(nil).Run(ctx); err != nil {
		t.Fatal(err)
	}

	testutil.WritePost(t, e.content, "a.md", testutil.PostSpec{Title: "A2", Date: "2024-01-05", Category: "B", Subcategory: "ts"})
	testutil.WritePost(t, e.content, "c.md", testutil.PostSpec{Title: "C", Date: "2023-01-01", Category: "A"})
	cs := &models.ChangeSet{Added: []string{"c.md"}, Modified: []string{"a.md"}}
	if _, err := e.builder(changes.Static{Changes: cs}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	incPosts, incCats := e.read(t, artifact.PostsFile), e.read(t, artifact.CategoriesFile)

	full := e.builder(nil)
	full.Force = true
	res, err := full.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reason != "forced" {
		t.Errorf("reason = %q", res.Reason)
	}
	if !bytes.Equal(incPosts, e.read(t, artifact.PostsFile)) || !bytes.Equal(incCats, e.read(t, artifact.CategoriesFile)) {
		t.Fatalf("incremental and full artifacts differ:\n%s\n---\n%s", incPosts, e.read(t, artifact.PostsFile))
	}
}

func TestRun_SkipWritesNothing(t *testing.T) {
	e := newEnv(t)
	res, err := e.builder(changes.Static{Changes: &models.ChangeSet{}}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != ModeSkip {
		t.Fatalf("mode = %s", res.Mode)
	}
	if _, err := artifact.NewWriter(e.out).LoadStore(); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("skip wrote artifacts: %v", err)
	}
}

func TestRun_MissingBaselineFallsBackToFull(t *testing.T) {
	e := newEnv(t)
	testutil.WritePost(t, e.content, "a.md", testutil.PostSpec{Title: "A", Date: "2024-01-01", Category: "A"})
	testutil.WritePost(t, e.content, "b.md", testutil.PostSpec{Title: "B", Date: "2024-01-02", Category: "A"})

	cs := &models.ChangeSet{Modified: []string{"a.md"}}
	res, err := e.builder(changes.Static{Changes: cs}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Mode != ModeFull || res.Reason != "no baseline store" || len(res.Posts) != 2 {
		t.Fatalf("res = %s/%s with %d posts", res.Mode, res.Reason, len(res.Posts))
	}
}

func TestRun_EmptyContentListsCategories(t *testing.T) {
	e := newEnv(t)
	res, err := e.builder(nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Posts) != 0 || len(res.Categories) != 2 {
		t.Fatalf("posts=%d categories=%d", len(res.Posts), len(res.Categories))
	}
	if got := string(e.read(t, artifact.PostsFile)); got != "[]\n" {
		t.Fatalf("posts-meta.json = %q", got)
	}
}

func TestRun_PersistenceFailure(t *testing.T) {
	e := newEnv(t)
	testutil.WritePost(t, e.content, "a.md", testutil.PostSpec{Title: "A", Date: "2024-01-01", Category: "A"})
	if err := os.Mkdir(filepath.Join(e.outDir, artifact.CategoriesFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(e.outDir, artifact.CategoriesFile, "x"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := e.builder(nil).Run(context.Background())
	if !IsPersistence(err) {
		t.Fatalf("err = %v, want persistence error", err)
	}
}
