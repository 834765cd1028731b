// Package testutil provides shared test helpers for content and output directories.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/starford/postindex/internal/storage"
)

// FixedNow is the clock used by tests that rely on the default date.
var FixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a function reporting FixedNow.
func Clock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// TestDir creates a temporary directory with a storage.FS rooted at it.
func TestDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// PostSpec describes the header of a generated content file.
type PostSpec struct {
	Title       string
	Date        string
	Category    string
	Subcategory string
	Tags        []string
	Body        string
}

// Markdown renders spec as a content file with a YAML header.
func Markdown(spec PostSpec) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	if spec.Title != "" {
		fmt.Fprintf(&b, "title: %q\n", spec.Title)
	}
	if spec.Date != "" {
		fmt.Fprintf(&b, "date: %s\n", spec.Date)
	}
	if spec.Category != "" {
		fmt.Fprintf(&b, "category: %s\n", spec.Category)
	}
	if spec.Subcategory != "" {
		fmt.Fprintf(&b, "subcategory: %s\n", spec.Subcategory)
	}
	if len(spec.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(spec.Tags, ", "))
	}
	b.WriteString("---\n")
	b.WriteString(spec.Body)
	return []byte(b.String())
}

// WritePost writes a content file described by spec.
func WritePost(t *testing.T, fs storage.Provider, name string, spec PostSpec) {
	t.Helper()
	if err := fs.Write(name, Markdown(spec)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
