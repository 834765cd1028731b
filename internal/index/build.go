package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/starford/postindex/internal/models"
)

// Extractor builds one metadata record from a content filename.
type Extractor interface {
	Extract(filename string) (models.Post, error)
}

// Outcome is the result of either build path.
type Outcome struct {
	Posts   []models.Post
	Failed  []string // files whose extraction failed
	Added   int      // keys inserted
	Updated int      // keys overwritten
	Removed int      // keys deleted
}

// FullBuild extracts every file in names and returns the complete store.
// Extraction fans out over up to workers goroutines; files that fail are
// logged and skipped. The reduction into the store is single-threaded.
func FullBuild(ctx context.Context, ex Extractor, names []string, workers int, logger *slog.Logger) (*Outcome, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type slot struct {
		post models.Post
		err  error
	}
	slots := make([]slot, len(names))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			p, err := ex.Extract(name)
			slots[i] = slot{post: p, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("index: full build: %w", err)
	}

	store := NewStore(nil)
	out := &Outcome{}
	for i, s := range slots {
		if s.err != nil {
			logger.Warn("extract failed", slog.String("file", names[i]), slog.String("error", s.err.Error()))
			out.Failed = append(out.Failed, names[i])
			continue
		}
		if _, exists := store.Get(s.post.Filename); exists {
			out.Updated++
		} else {
			out.Added++
		}
		store.Put(s.post)
	}
	out.Posts = store.Snapshot()
	return out, nil
}

// Merge applies cs to a previously persisted store: deletions first, then a
// fresh extraction of every added or modified file. A failed extraction
// leaves the key as it was, so a modified file keeps its prior record and an
// added file is omitted. Files outside cs are never re-read.
func Merge(ctx context.Context, ex Extractor, existing []models.Post, cs *models.ChangeSet, logger *slog.Logger) (*Outcome, error) {
	if cs == nil {
		return nil, errors.New("index: merge requires a change set")
	}

	store := NewStore(existing)
	out := &Outcome{}

	for _, name := range cs.Deleted {
		if store.Delete(name) {
			out.Removed++
			logger.Debug("removed", slog.String("file", name))
		}
	}

	for _, name := range cs.Touched() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("index: merge: %w", err)
		}
		p, err := ex.Extract(name)
		if err != nil {
			logger.Warn("extract failed", slog.String("file", name), slog.String("error", err.Error()))
			out.Failed = append(out.Failed, name)
			continue
		}
		if _, exists := store.Get(name); exists {
			out.Updated++
			logger.Debug("updated", slog.String("file", name))
		} else {
			out.Added++
			logger.Debug("added", slog.String("file", name))
		}
		store.Put(p)
	}

	out.Posts = store.Snapshot()
	return out, nil
}
