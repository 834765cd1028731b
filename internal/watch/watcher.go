// Package watch rebuilds the artifacts as content files change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/postindex/internal/changes"
	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/pipeline"
)

// DefaultDebounce is the quiet period after the last event before a build.
const DefaultDebounce = 300 * time.Millisecond

// Applier runs a build for a known change set.
type Applier interface {
	Apply(ctx context.Context, cs *models.ChangeSet) (*pipeline.Result, error)
}

// BuildCallback is called after each watcher-driven build that succeeded.
type BuildCallback func(res *pipeline.Result)

// Watch starts an fsnotify watcher on the content root and processes file
// change events until ctx is cancelled. Events are accumulated into a change
// set and applied once no new event arrived for debounce. Builds run on the
// watcher goroutine, so they never overlap.
func Watch(ctx context.Context, root string, b Applier, debounce time.Duration, logger *slog.Logger, cb BuildCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return fmt.Errorf("watch: add %s: %w", root, err)
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := changes.NewEventSet(root)

	// buildTimer debounces bursts such as an editor's save sequence.
	var buildTimer *time.Timer
	var buildCh <-chan time.Time

	scheduleBuild := func() {
		if buildTimer == nil {
			buildTimer = time.NewTimer(debounce)
			buildCh = buildTimer.C
		} else {
			buildTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if buildTimer != nil {
				buildTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-buildCh:
			if pending.Len() == 0 {
				continue
			}
			cs := pending.Flush()
			logger.Debug("watcher: applying changes",
				slog.Int("added", len(cs.Added)),
				slog.Int("modified", len(cs.Modified)),
				slog.Int("deleted", len(cs.Deleted)))

			res, applyErr := b.Apply(ctx, cs)
			if applyErr != nil {
				logger.Error("watcher: build failed", slog.String("error", applyErr.Error()))
				continue
			}
			if cb != nil {
				cb(res)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if pending.Add(ev) {
				logger.Debug("watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				scheduleBuild()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
