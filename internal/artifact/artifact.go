// Package artifact reads and writes the two persisted build outputs.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/starford/postindex/internal/apperr"
	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/storage"
)

// Artifact file names inside the output directory.
const (
	PostsFile      = "posts-meta.json"
	CategoriesFile = "categories.json"
)

// PersistenceError reports that an artifact could not be written.
type PersistenceError struct {
	Name string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("artifact: write %s: %v", e.Name, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Writer persists and reloads artifacts in an output directory.
type Writer struct {
	out storage.Provider
}

// NewWriter creates a Writer over the output provider.
func NewWriter(out storage.Provider) *Writer {
	return &Writer{out: out}
}

// LoadStore reads the previously persisted metadata store.
// A missing file yields apperr.ErrNotFound and unreadable JSON yields
// apperr.ErrCorrupt.
func (w *Writer) LoadStore() ([]models.Post, error) {
	var posts []models.Post
	if err := w.load(PostsFile, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// LoadCategories reads the persisted category tree.
func (w *Writer) LoadCategories() ([]models.CategoryNode, error) {
	var nodes []models.CategoryNode
	if err := w.load(CategoriesFile, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (w *Writer) load(name string, v any) error {
	data, err := w.out.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("artifact: load %s: %w", name, apperr.ErrNotFound)
		}
		return fmt.Errorf("artifact: load %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("artifact: load %s: %w: %v", name, apperr.ErrCorrupt, err)
	}
	return nil
}

// Persist writes both artifacts. Both are encoded before either is written,
// and each write replaces its file atomically.
func (w *Writer) Persist(posts []models.Post, categories []models.CategoryNode) error {
	if posts == nil {
		posts = []models.Post{}
	}
	if categories == nil {
		categories = []models.CategoryNode{}
	}
	postsData, err := Encode(posts)
	if err != nil {
		return &PersistenceError{Name: PostsFile, Err: err}
	}
	catData, err := Encode(categories)
	if err != nil {
		return &PersistenceError{Name: CategoriesFile, Err: err}
	}
	if err := w.out.Write(PostsFile, postsData); err != nil {
		return &PersistenceError{Name: PostsFile, Err: err}
	}
	if err := w.out.Write(CategoriesFile, catData); err != nil {
		return &PersistenceError{Name: CategoriesFile, Err: err}
	}
	return nil
}

// Encode renders v as two-space indented JSON with a trailing newline.
// HTML characters are written as-is.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
