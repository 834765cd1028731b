// Package changes determines which content files changed since the last
// build, either from git history or from filesystem events.
package changes

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"strconv"
	"strings"

	"github.com/starford/postindex/internal/models"
	"github.com/starford/postindex/internal/storage"
)

// Detector reports the change set since the last build.
// A nil result means the changes are unknown and a full build is required.
type Detector interface {
	Detect(ctx context.Context) *models.ChangeSet
}

// Mode selects which git comparison a GitDetector runs.
type Mode string

const (
	// ModeAuto picks ModeCommit when CI is set, else ModeWorktree.
	ModeAuto Mode = "auto"
	// ModeCommit compares the last commit with its parent.
	ModeCommit Mode = "commit"
	// ModeWorktree reports staged and unstaged changes.
	ModeWorktree Mode = "worktree"
)

// ParseMode validates a configured mode string. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeCommit, ModeWorktree:
		return m, nil
	default:
		return "", fmt.Errorf("changes: unknown mode %q", s)
	}
}

// Resolve turns ModeAuto into a concrete mode using the CI variable read
// through getenv.
func (m Mode) Resolve(getenv func(string) string) Mode {
	if m != ModeAuto && m != "" {
		return m
	}
	if getenv("CI") != "" {
		return ModeCommit
	}
	return ModeWorktree
}

// GitDetector derives change sets from git name-status output.
type GitDetector struct {
	// Dir is the directory git runs in.
	Dir string
	// ContentDir is the pathspec limiting the diff, relative to Dir.
	ContentDir string
	Mode       Mode
	Logger     *slog.Logger
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Detect runs git and classifies the result. Git failures are logged and
// reported as unknown; they never surface as errors.
func (g *GitDetector) Detect(ctx context.Context) *models.ChangeSet {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	getenv := g.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	mode := g.Mode.Resolve(getenv)

	var queries [][]string
	switch mode {
	case ModeCommit:
		queries = [][]string{{"diff", "--name-status", "--no-renames", "HEAD~1", "HEAD"}}
	default:
		queries = [][]string{
			{"diff", "--cached", "--name-status", "--no-renames"},
			{"diff", "--name-status", "--no-renames"},
		}
	}

	var parts []string
	for _, args := range queries {
		out, err := g.run(ctx, append(args, "--", g.pathspec()))
		if err != nil {
			logger.Warn("git change query failed, falling back to full build",
				slog.String("mode", string(mode)),
				slog.String("error", err.Error()),
			)
			return nil
		}
		if s := strings.TrimSpace(out); s != "" {
			parts = append(parts, s)
		}
	}

	if len(parts) == 0 {
		logger.Info("no git changes under content dir, falling back to full build",
			slog.String("mode", string(mode)))
		return nil
	}

	cs, err := ParseNameStatus(strings.Join(parts, "\n"))
	if err != nil {
		logger.Warn("parse git output", slog.String("error", err.Error()))
		return nil
	}
	return cs
}

func (g *GitDetector) pathspec() string {
	if g.ContentDir == "" {
		return "."
	}
	return g.ContentDir
}

func (g *GitDetector) run(ctx context.Context, args []string) (string, error) {
	// Non-ASCII names are printed verbatim; ParseNameStatus still unquotes
	// paths git escapes for other characters.
	args = append([]string{"-c", "core.quotePath=false"}, args...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// ParseNameStatus parses `git diff --name-status` output into a change set.
// Only A, M and D entries for content files are kept; paths are reduced to
// their base name. The result is normalized and never nil.
//
// Format: M\tpath/to/file.md, with the path C-quoted when git escaped it.
func ParseNameStatus(output string) (*models.ChangeSet, error) {
	cs := &models.ChangeSet{}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		name := path.Base(strings.ReplaceAll(unquotePath(fields[len(fields)-1]), "\\", "/"))
		if !storage.IsContent(name) {
			continue
		}
		switch fields[0] {
		case "A":
			cs.Added = append(cs.Added, name)
		case "M":
			cs.Modified = append(cs.Modified, name)
		case "D":
			cs.Deleted = append(cs.Deleted, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("changes: parse name-status: %w", err)
	}

	cs.Normalize()
	return cs, nil
}

// unquotePath reverses git's C-style quoting ("\354\236\220.md").
// Unquotable input is returned unchanged.
func unquotePath(p string) string {
	if len(p) < 2 || p[0] != '"' || p[len(p)-1] != '"' {
		return p
	}
	if u, err := strconv.Unquote(p); err == nil {
		return u
	}
	return p
}

// Static is a Detector that always reports the same change set.
type Static struct {
	Changes *models.ChangeSet
}

// Detect returns s.Changes.
func (s Static) Detect(context.Context) *models.ChangeSet { return s.Changes }
