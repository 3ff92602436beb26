package update

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/schaermu/spackup/internal/config"
	"github.com/schaermu/spackup/internal/git"
	"github.com/schaermu/spackup/internal/pkgrepo"
	"github.com/schaermu/spackup/internal/tty"
)

// ErrNotWorkingCopy is returned when the prefix is not a git clone
var ErrNotWorkingCopy = errors.New("installation prefix is not a git clone")

// ProgName is the command shown in the branch switch suggestion
var ProgName = "spackup"

// Repository is the set of git operations the engine needs
type Repository interface {
	CurrentBranch(ctx context.Context) (string, error)
	LocalBranches(ctx context.Context) ([]string, error)
	UpstreamMerge(ctx context.Context, branch string) (string, error)
	UpstreamRemote(ctx context.Context, branch string) (remote, url string, err error)
	Checkout(ctx context.Context, branch string) error
	Pull(ctx context.Context) error
	Revision(ctx context.Context, ref string) (string, error)
	DiffNameStatus(ctx context.Context, from, to string) ([]git.FileChange, error)
}

// Engine orchestrates the self-update process
type Engine struct {
	cfg           *config.Config
	repo          Repository
	isWorkingCopy func(path string) (bool, error)
	printer       *tty.Printer
	width         int
	logger        *slog.Logger
}

// NewEngine creates a new update engine
func NewEngine(cfg *config.Config, repo Repository, printer *tty.Printer, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:           cfg,
		repo:          repo,
		isWorkingCopy: git.IsWorkingCopy,
		printer:       printer,
		width:         tty.DefaultWidth,
		logger:        logger,
	}
}

// SetWidth sets the column width used for the change report
func (e *Engine) SetWidth(width int) {
	e.width = width
}

// Run updates the checkout and prints the packages that changed
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := e.checkWorkingCopy(); err != nil {
		return nil, err
	}

	current, err := e.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("resolved current branch", "branch", current)

	result := &Result{Branch: current}

	if opts.Branch == "" {
		upstream, err := e.findUpstreamBranch(ctx)
		if err != nil {
			return nil, err
		}
		result.UpstreamBranch = upstream

		if upstream != "" && upstream != current {
			e.printer.Warn("%s is not tracking upstream %s.", ProgName, e.cfg.Upstream.Branch)
			e.printer.Warn("Packages may be out of date. To switch to %s run,", e.cfg.Upstream.Branch)
			e.printer.Println()
			e.printer.Println(fmt.Sprintf("    %s update -b %s", ProgName, upstream))
			e.printer.Println()
		}
	} else if opts.Branch != current {
		e.logger.Info("switching branch", "from", current, "to", opts.Branch)
		if err := e.repo.Checkout(ctx, opts.Branch); err != nil {
			return nil, err
		}
		result.Branch = opts.Branch
	}

	if result.OldRevision, err = e.repo.Revision(ctx, "HEAD"); err != nil {
		return nil, err
	}

	e.logger.Info("pulling upstream changes", "branch", result.Branch, "revision", result.OldRevision)
	if err := e.repo.Pull(ctx); err != nil {
		return nil, err
	}

	if result.NewRevision, err = e.repo.Revision(ctx, "HEAD"); err != nil {
		return nil, err
	}

	if !result.Changed() {
		e.logger.Info("already up to date", "revision", result.NewRevision)
		return result, nil
	}

	e.logger.Info("checkout updated", "old", result.OldRevision, "new", result.NewRevision)

	result.Report, err = e.report(ctx, result.OldRevision, result.NewRevision)
	if err != nil {
		return nil, err
	}

	PrintReport(e.printer, result.Report, e.width)
	return result, nil
}

// Changes prints the packages that changed between two refs without
// touching the working copy
func (e *Engine) Changes(ctx context.Context, from, to string) (*Report, error) {
	if err := e.checkWorkingCopy(); err != nil {
		return nil, err
	}

	report, err := e.report(ctx, from, to)
	if err != nil {
		return nil, err
	}

	if report.Empty() {
		e.printer.Msg("No package changes between %s and %s", from, to)
		return report, nil
	}

	PrintReport(e.printer, report, e.width)
	return report, nil
}

// checkWorkingCopy verifies the prefix is a git clone before any git command runs
func (e *Engine) checkWorkingCopy() error {
	prefix := e.cfg.Paths.Prefix
	ok, err := e.isWorkingCopy(prefix)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", prefix, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotWorkingCopy, prefix)
	}
	return nil
}

// findUpstreamBranch returns the first local branch, in listing order, that
// tracks the upstream branch on the canonical remote. It returns "" if
// there is none.
func (e *Engine) findUpstreamBranch(ctx context.Context) (string, error) {
	branches, err := e.repo.LocalBranches(ctx)
	if err != nil {
		return "", err
	}

	for _, branch := range branches {
		merge, err := e.repo.UpstreamMerge(ctx, branch)
		if err != nil {
			return "", err
		}
		// Only branches merging from the upstream branch get their remote read.
		if merge == "" || !strings.HasSuffix(merge, e.cfg.Upstream.Branch) {
			continue
		}

		remote, url, err := e.repo.UpstreamRemote(ctx, branch)
		if err != nil {
			return "", err
		}

		tracking := &git.Tracking{Branch: branch, Merge: merge, Remote: remote, RemoteURL: url}
		if tracksUpstream(tracking, e.cfg.Upstream) {
			e.logger.Debug("found upstream tracking branch",
				"branch", branch,
				"remote", remote,
				"url", url)
			return branch, nil
		}
	}

	return "", nil
}

// tracksUpstream returns true if t merges from the configured upstream
// branch on a remote whose URL ends with the canonical repository path
func tracksUpstream(t *git.Tracking, upstream config.UpstreamConfig) bool {
	if t == nil {
		return false
	}
	return strings.HasSuffix(t.Merge, upstream.Branch) &&
		strings.HasSuffix(t.RemoteURL, upstream.URLSuffix)
}

func (e *Engine) report(ctx context.Context, from, to string) (*Report, error) {
	changes, err := e.repo.DiffNameStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := Classify(changes, e.cfg.Layout(), e.logger)

	e.logger.Info("package changes",
		"added", len(report.Added),
		"updated", len(report.Updated),
		"deleted", len(report.Deleted))

	return report, nil
}

// Classify buckets package definition changes by their diff status. Entries
// with other statuses are ignored, and so are package files that do not sit
// directly under the layout root.
func Classify(changes []git.FileChange, layout pkgrepo.Layout, logger *slog.Logger) *Report {
	report := &Report{}

	for _, change := range changes {
		if !layout.IsPackageFile(change.Path) {
			continue
		}

		var bucket *[]string
		switch change.Status {
		case git.StatusAdded:
			bucket = &report.Added
		case git.StatusModified:
			bucket = &report.Updated
		case git.StatusDeleted:
			bucket = &report.Deleted
		default:
			continue
		}

		name, err := layout.PackageName(change.Path)
		if err != nil {
			logger.Debug("skipping package file outside repository layout",
				"path", change.Path,
				"status", change.Status.String(),
				"root", layout.Root)
			continue
		}

		*bucket = append(*bucket, name)
	}

	return report
}
