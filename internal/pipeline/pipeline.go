// Package pipeline decides between an incremental, full or skipped build
// and drives it through extraction, aggregation and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/postindex/internal/artifact"
	"github.com/starford/postindex/internal/category"
	"github.com/starford/postindex/internal/changes"
	"github.com/starford/postindex/internal/index"
	"github.com/starford/postindex/internal/metrics"
	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/storage"
)

// Mode is the path a run took.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
	ModeSkip        Mode = "skip"
)

// Result summarizes one run.
type Result struct {
	RunID      string
	Mode       Mode
	Reason     string
	Changes    *models.ChangeSet
	Posts      []models.Post
	Categories []models.CategoryNode
	Failed     []string
	Duration   time.Duration
}

// Builder runs the build state machine. A Builder is not safe for
// concurrent runs; callers serialize Run and Apply.
type Builder struct {
	Content    storage.Provider
	Extractor  index.Extractor
	Detector   changes.Detector
	Writer     *artifact.Writer
	Categories []models.CategoryConfig
	// Force skips change detection and always rebuilds from scratch.
	Force   bool
	Workers int
	Logger  *slog.Logger
	Metrics *metrics.Build
}

// Run detects changes and builds accordingly.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	if b.Force {
		return b.execute(ctx, nil, true)
	}
	var cs *models.ChangeSet
	if b.Detector != nil {
		cs = b.Detector.Detect(ctx)
	}
	return b.execute(ctx, cs, false)
}

// Apply builds for a change set supplied by the caller. A nil cs forces a
// full build.
func (b *Builder) Apply(ctx context.Context, cs *models.ChangeSet) (*Result, error) {
	return b.execute(ctx, cs, false)
}

func (b *Builder) execute(ctx context.Context, cs *models.ChangeSet, forced bool) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Changes: cs}
	logger := b.logger().With(slog.String("run_id", res.RunID))

	var (
		out *index.Outcome
		err error
	)
	switch {
	case forced:
		res.Mode, res.Reason = ModeFull, "forced"
	case cs == nil:
		res.Mode, res.Reason = ModeFull, "changes unknown"
	case cs.Empty():
		res.Mode, res.Reason = ModeSkip, "no content changes"
	default:
		res.Mode, res.Reason = ModeIncremental, "changes detected"
	}

	if res.Mode == ModeIncremental {
		existing, loadErr := b.Writer.LoadStore()
		if loadErr != nil {
			logger.Warn("baseline store unavailable, running full build",
				slog.String("error", loadErr.Error()))
			res.Mode, res.Reason = ModeFull, "no baseline store"
		} else {
			logger.Info("incremental build",
				slog.Int("added", len(cs.Added)),
				slog.Int("modified", len(cs.Modified)),
				slog.Int("deleted", len(cs.Deleted)),
			)
			out, err = index.Merge(ctx, b.Extractor, existing, cs, logger)
			if err != nil {
				return nil, fmt.Errorf("pipeline: %w", err)
			}
		}
	}

	switch res.Mode {
	case ModeSkip:
		res.Duration = time.Since(start)
		logger.Info("no content changes, skipping build")
		b.Metrics.ObserveRun(string(res.Mode), res.Duration, 0, 0)
		return res, nil
	case ModeFull:
		logger.Info("full build", slog.String("reason", res.Reason))
		names, listErr := b.Content.List()
		if listErr != nil {
			return nil, fmt.Errorf("pipeline: list content: %w", listErr)
		}
		out, err = index.FullBuild(ctx, b.Extractor, names, b.Workers, logger)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	res.Posts = out.Posts
	res.Failed = out.Failed
	res.Categories = category.Aggregate(out.Posts, b.Categories)

	if err := b.Writer.Persist(res.Posts, res.Categories); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	res.Duration = time.Since(start)
	b.Metrics.ObserveRun(string(res.Mode), res.Duration, len(res.Posts), len(res.Failed))
	logger.Info("build complete",
		slog.String("mode", string(res.Mode)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("categories", len(res.Categories)),
		slog.Int("failed", len(res.Failed)),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// IsPersistence reports whether err came from writing an artifact.
func IsPersistence(err error) bool {
	var pe *artifact.PersistenceError
	return errors.As(err, &pe)
}
