// Package metadata turns a content file into its persisted metadata record.
package metadata

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/parser"
	"github.com/starford/postindex/internal/storage"
)

// Defaults applied when a header field is missing or unusable.
const (
	DefaultTitle    = "Untitled"
	DefaultCategory = "uncategorized"
	DefaultAuthor   = "Anonymous"
)

// ParseError reports that a content file could not be read at all.
type ParseError struct {
	Filename string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("metadata: parse %s: %v", e.Filename, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extractor reads content files and builds metadata records.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	content storage.Provider
	now     func() time.Time
}

// NewExtractor creates an Extractor reading from content.
// now supplies the fallback date; nil means time.Now.
func NewExtractor(content storage.Provider, now func() time.Time) *Extractor {
	if now == nil {
		now = time.Now
	}
	return &Extractor{content: content, now: now}
}

// Extract builds the record for filename. It fails with *ParseError only
// when the file cannot be read; header problems fall back to defaults.
func (e *Extractor) Extract(filename string) (models.Post, error) {
	data, err := e.content.Read(filename)
	if err != nil {
		return models.Post{}, &ParseError{Filename: filename, Err: err}
	}
	return e.Build(filename, data), nil
}

// Build derives the record for filename from its raw bytes.
func (e *Extractor) Build(filename string, data []byte) models.Post {
	doc := parser.Parse(data)
	h := doc.Header
	slug := Slug(filename)

	excerpt := h.Excerpt
	if excerpt == "" {
		excerpt = parser.Excerpt(doc.Body)
	}

	tags := h.Tags
	if tags == nil {
		tags = []string{}
	}

	var sub *string
	if h.Subcategory != "" {
		s := h.Subcategory
		sub = &s
	}

	return models.Post{
		ID:          slug,
		Slug:        slug,
		Filename:    filename,
		Title:       orDefault(h.Title, DefaultTitle),
		Date:        orDefault(h.Date, e.now().UTC().Format(time.DateOnly)),
		Category:    orDefault(h.Category, DefaultCategory),
		Subcategory: sub,
		Tags:        tags,
		Excerpt:     excerpt,
		Author:      orDefault(h.Author, DefaultAuthor),
	}
}

// Slug derives the record id and slug from a filename.
func Slug(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
