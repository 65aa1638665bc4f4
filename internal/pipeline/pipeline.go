// Package pipeline runs the automated review of a submission: it resolves the
// repository, samples its sources, asks the reviewer for a verdict and records
// the outcome on the submission.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"code-review-backend/internal/github"
	"code-review-backend/internal/review"
	"code-review-backend/internal/store"
)

var (
	ErrMissingInput     = errors.New("missing submission_id or github_url")
	ErrPersistence      = errors.New("persistence error")
	ErrReviewInProgress = errors.New("review already in progress")
)

// MaxReviewFiles caps how many selected files are fetched for the reviewer.
const MaxReviewFiles = 10

// RepoSource lists and downloads repository files.
type RepoSource interface {
	FetchTree(ctx context.Context, ref github.RepoRef) ([]github.FileEntry, github.RepoRef, error)
	FetchContents(ctx context.Context, ref github.RepoRef, entries []github.FileEntry) []github.FileContent
}

// Reviewer turns a prompt into raw reviewer text.
type Reviewer interface {
	Review(ctx context.Context, p review.Prompt) (string, error)
}

type Pipeline struct {
	store    store.Store
	repos    RepoSource
	reviewer Reviewer
	log      *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

type Option func(*Pipeline)

// WithClock overrides the clock used for reviewed_at.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(st store.Store, repos RepoSource, reviewer Reviewer, log *zap.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{
		store:    st,
		repos:    repos,
		reviewer: reviewer,
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Review runs the full pipeline for a submission and persists the verdict.
//
// Status is set to reviewing before any work starts. A reviewer failure or an
// unparseable repository URL ends in failed; store failures leave the
// submission in reviewing. Repository retrieval problems never fail the
// review, they only switch the reviewer to the degraded prompt.
func (p *Pipeline) Review(ctx context.Context, submissionID, repoURL string) (review.Verdict, error) {
	submissionID = strings.TrimSpace(submissionID)
	repoURL = strings.TrimSpace(repoURL)
	if submissionID == "" || repoURL == "" {
		return review.Verdict{}, ErrMissingInput
	}
	if !p.acquire(submissionID) {
		return review.Verdict{}, fmt.Errorf("%w: %s", ErrReviewInProgress, submissionID)
	}
	defer p.release(submissionID)

	log := p.log.With(zap.String("submission_id", submissionID))
	return p.run(ctx, log, submissionID, repoURL)
}

// Remark re-runs the review of a submission that already has a verdict or a
// failed run. With an empty repoURL the stored submission_content is used.
func (p *Pipeline) Remark(ctx context.Context, submissionID, repoURL string) (review.Verdict, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return review.Verdict{}, ErrMissingInput
	}
	sub, err := p.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return review.Verdict{}, fmt.Errorf("%w: load submission: %w", ErrPersistence, err)
	}
	if strings.TrimSpace(repoURL) == "" {
		repoURL = sub.SubmissionContent
	}
	p.log.Info("remark requested",
		zap.String("submission_id", submissionID),
		zap.String("previous_status", string(sub.ReviewStatus)))
	return p.Review(ctx, submissionID, repoURL)
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, submissionID, repoURL string) (review.Verdict, error) {
	if err := p.store.SetReviewStatus(ctx, submissionID, store.StatusReviewing); err != nil {
		return review.Verdict{}, fmt.Errorf("%w: mark reviewing: %w", ErrPersistence, err)
	}
	log.Info("review started", zap.String("github_url", repoURL))

	sub, err := p.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return review.Verdict{}, fmt.Errorf("%w: load submission: %w", ErrPersistence, err)
	}
	task, err := p.store.GetTask(ctx, sub.TaskID)
	if err != nil {
		return review.Verdict{}, fmt.Errorf("%w: load task %s: %w", ErrPersistence, sub.TaskID, err)
	}

	ref, err := github.ParseRepoURL(repoURL)
	if err != nil {
		log.Warn("cannot review submission", zap.Error(err))
		p.markFailed(ctx, log, submissionID)
		return review.Verdict{}, err
	}

	files := p.collectFiles(ctx, log, ref, task.TechStack)
	prompt := review.BuildPrompt(review.TaskInfo{
		Title:       task.Title,
		Description: task.Description,
		TechStack:   task.TechStack,
		Difficulty:  task.Difficulty,
	}, repoURL, files)

	started := time.Now()
	raw, err := p.reviewer.Review(ctx, prompt)
	if err != nil {
		log.Error("reviewer call failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		p.markFailed(ctx, log, submissionID)
		return review.Verdict{}, err
	}

	verdict, ok := review.ParseVerdict(raw)
	if !ok {
		log.Warn("reviewer output was not valid JSON, using fallback verdict", zap.Int("bytes", len(raw)))
	}
	verdict.ReviewedWithoutCode = !prompt.WithCode

	if err := p.store.CompleteReview(ctx, submissionID, verdict, p.now().UTC()); err != nil {
		return review.Verdict{}, fmt.Errorf("%w: save verdict: %w", ErrPersistence, err)
	}
	log.Info("review completed",
		zap.Int("score", verdict.Score),
		zap.Int("files", len(files)),
		zap.Int("security_issues", len(verdict.SecurityIssues)),
		zap.Duration("reviewer_elapsed", time.Since(started)))
	return verdict, nil
}

// collectFiles is best effort: any failure yields an empty context.
func (p *Pipeline) collectFiles(ctx context.Context, log *zap.Logger, ref github.RepoRef, techStack []string) []github.FileContent {
	entries, resolved, err := p.repos.FetchTree(ctx, ref)
	if err != nil {
		log.Warn("repository unavailable, reviewing without code", zap.Stringer("ref", ref), zap.Error(err))
		return nil
	}
	selected := github.SelectRelevant(entries, techStack)
	if len(selected) > MaxReviewFiles {
		selected = selected[:MaxReviewFiles]
	}
	files := p.repos.FetchContents(ctx, resolved, selected)
	log.Debug("collected repository files",
		zap.Stringer("ref", resolved),
		zap.Int("tree_entries", len(entries)),
		zap.Int("selected", len(selected)),
		zap.Int("fetched", len(files)))
	return files
}

func (p *Pipeline) markFailed(ctx context.Context, log *zap.Logger, submissionID string) {
	// the caller may have gone away; the failure should still be recorded
	ctx = context.WithoutCancel(ctx)
	if err := p.store.SetReviewStatus(ctx, submissionID, store.StatusFailed); err != nil {
		log.Error("could not mark submission failed", zap.Error(err))
	}
}

func (p *Pipeline) acquire(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.inFlight[id]; busy {
		return false
	}
	p.inFlight[id] = struct{}{}
	return true
}

func (p *Pipeline) release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, id)
}
