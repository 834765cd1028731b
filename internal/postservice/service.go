// Package postservice serves published posts from the persisted artifacts
// to the HTTP API and the MCP tools.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/postindex/internal/apperr"
	"github.com/starford/postindex/internal/artifact"
	"github.com/starford/postindex/internal/catalog"
	"github.com/starford/postindex/internal/checksum"
	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/parser"
	"github.com/starford/postindex/internal/render"
	"github.com/starford/postindex/internal/storage"
)

// PostDetail is the full representation of a post.
type PostDetail struct {
	models.Post
	Content  string           `json:"content"`
	HTML     string           `json:"html"`
	Headings []render.Heading `json:"headings"`
	Checksum string           `json:"checksum"`
}

// Service answers read queries from the catalog, which it reloads from the
// artifacts on demand.
type Service struct {
	content   storage.Provider
	artifacts *artifact.Writer
	db        catalog.Catalog
	md        *render.Markdown
	logger    *slog.Logger

	mu         sync.RWMutex
	categories []models.CategoryNode
}

// NewService creates a post service.
func NewService(content storage.Provider, artifacts *artifact.Writer, db catalog.Catalog, logger *slog.Logger) *Service {
	return &Service{
		content:    content,
		artifacts:  artifacts,
		db:         db,
		md:         render.NewMarkdown(),
		logger:     logger,
		categories: []models.CategoryNode{},
	}
}

// Reload replaces the catalog with the current artifacts. Missing artifacts
// load as an empty catalog.
func (s *Service) Reload(_ context.Context) error {
	posts, err := s.artifacts.LoadStore()
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("postservice: reload: %w", err)
	}
	cats, err := s.artifacts.LoadCategories()
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("postservice: reload: %w", err)
	}

	entries := make([]catalog.Entry, 0, len(posts))
	for _, p := range posts {
		var body string
		if data, readErr := s.content.Read(p.Filename); readErr == nil {
			body = parser.Parse(data).Body
		} else {
			s.logger.Warn("reload: read post body", slog.String("file", p.Filename), slog.String("error", readErr.Error()))
		}
		entries = append(entries, catalog.Entry{Post: p, Body: body})
	}
	if err := s.db.Replace(entries); err != nil {
		return fmt.Errorf("postservice: reload: %w", err)
	}

	if cats == nil {
		cats = []models.CategoryNode{}
	}
	s.mu.Lock()
	s.categories = cats
	s.mu.Unlock()

	s.logger.Debug("catalog reloaded", slog.Int("posts", len(entries)), slog.Int("categories", len(cats)))
	return nil
}

// ListPosts returns paginated posts in published order.
func (s *Service) ListPosts(_ context.Context, f catalog.Filter) ([]models.Post, int, error) {
	return s.db.ListPosts(f)
}

// GetPost returns the post with slug, rendered.
func (s *Service) GetPost(_ context.Context, slug string) (*PostDetail, error) {
	e, err := s.db.GetPost(slug)
	if err != nil {
		return nil, err
	}
	raw, err := s.content.Read(e.Post.Filename)
	if err != nil {
		// Removed since the last build; serve the indexed body.
		raw = []byte(e.Body)
	} else {
		e.Body = parser.Parse(raw).Body
	}
	res, err := s.md.Render([]byte(e.Body))
	if err != nil {
		return nil, fmt.Errorf("postservice: render %s: %w", slug, err)
	}
	return &PostDetail{
		Post:     e.Post,
		Content:  e.Body,
		HTML:     res.HTML,
		Headings: res.Headings,
		Checksum: checksum.Sum(raw),
	}, nil
}

// Categories returns the persisted category tree.
func (s *Service) Categories(_ context.Context) []models.CategoryNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	return s.db.Search(query, limit)
}
