package catalog

import "github.com/starford/postindex/internal/models"

// Catalog defines the read-side query operations over published posts.
// Consumers should depend on this interface rather than the concrete *DB
// type to facilitate testing with fakes.
type Catalog interface {
	Replace(entries []Entry) error
	ListPosts(f Filter) ([]models.Post, int, error)
	GetPost(slug string) (*Entry, error)
	Search(query string, limit int) ([]SearchResult, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
