package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/postindex/internal/apperr"
	"github.com/starford/postindex/internal/models"
)

// Entry is one post as loaded into the catalog.
type Entry struct {
	Post models.Post
	Body string
}

// Filter narrows ListPosts. Zero values match everything.
type Filter struct {
	Category    string
	Subcategory string
	Tag         string
	Limit       int
	Offset      int
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const postColumns = `filename, slug, title, date, category, subcategory, tags, excerpt, author`

// Replace swaps the whole catalog for entries within a transaction.
// entries are expected in persisted order; list queries preserve it.
func (db *DB) Replace(entries []Entry) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, q := range []string{`DELETE FROM post_tags`, `DELETE FROM posts`} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("catalog: clear: %w", err)
		}
	}
	if err := ftsReset(tx); err != nil {
		return err
	}

	postStmt, err := tx.Prepare(`
		INSERT INTO posts (filename, slug, position, title, date, category, subcategory, tags, excerpt, author, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("catalog: prepare post insert: %w", err)
	}
	defer postStmt.Close()

	tagStmt, err := tx.Prepare(`INSERT OR IGNORE INTO post_tags (filename, tag) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	for i, e := range entries {
		p := e.Post
		tagsJSON, _ := json.Marshal(nonNil(p.Tags))
		if _, err := postStmt.Exec(p.Filename, p.Slug, i, p.Title, p.Date, p.Category,
			p.Subcategory, string(tagsJSON), p.Excerpt, p.Author, e.Body); err != nil {
			return fmt.Errorf("catalog: insert %s: %w", p.Filename, err)
		}
		for _, tag := range p.Tags {
			if _, err := tagStmt.Exec(p.Filename, tag); err != nil {
				return fmt.Errorf("catalog: insert tag: %w", err)
			}
		}
		if err := ftsInsert(tx, p.Filename, p.Title, e.Body, p.Tags); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListPosts returns posts matching f in persisted order, plus the total
// number of matches before pagination.
func (db *DB) ListPosts(f Filter) ([]models.Post, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Subcategory != "" {
		where = append(where, "subcategory = ?")
		args = append(args, f.Subcategory)
	}
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM post_tags t WHERE t.filename = posts.filename AND t.tag = ?)")
		args = append(args, f.Tag)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count posts: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(`SELECT `+postColumns+` FROM posts`+clause+
		` ORDER BY position LIMIT ? OFFSET ?`, append(args, limit, max(f.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list posts: %w", err)
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetPost returns the post with slug and its body.
func (db *DB) GetPost(slug string) (*Entry, error) {
	row := db.conn.QueryRow(`SELECT `+postColumns+`, body FROM posts WHERE slug = ?`, slug)
	var (
		e   Entry
		sub sql.NullString
		tag string
	)
	err := row.Scan(&e.Post.Filename, &e.Post.Slug, &e.Post.Title, &e.Post.Date, &e.Post.Category,
		&sub, &tag, &e.Post.Excerpt, &e.Post.Author, &e.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: get %s: %w", slug, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", slug, err)
	}
	finishPost(&e.Post, sub, tag)
	return &e, nil
}

// Count returns the number of posts in the catalog.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (models.Post, error) {
	var (
		p   models.Post
		sub sql.NullString
		tag string
	)
	if err := s.Scan(&p.Filename, &p.Slug, &p.Title, &p.Date, &p.Category, &sub, &tag, &p.Excerpt, &p.Author); err != nil {
		return models.Post{}, fmt.Errorf("catalog: scan post: %w", err)
	}
	finishPost(&p, sub, tag)
	return p, nil
}

func finishPost(p *models.Post, sub sql.NullString, tagsJSON string) {
	p.ID = p.Slug
	if sub.Valid {
		s := sub.String
		p.Subcategory = &s
	}
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	p.Tags = nonNil(p.Tags)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
