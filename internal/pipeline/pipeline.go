// Package pipeline runs one careers page through fetching, extraction,
// portfolio matching and email drafting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/cold-mailer/internal/fetch"
	"github.com/spigell/cold-mailer/internal/logger"
	"github.com/spigell/cold-mailer/internal/outreach"
	"github.com/spigell/cold-mailer/internal/textclean"
	"go.uber.org/zap"
)

const (
	DefaultLLMTimeout = 2 * time.Minute
)

type PageFetcher interface {
	Page(ctx context.Context, url string) (*fetch.Result, error)
}

type Portfolio interface {
	EnsureLoaded(ctx context.Context) (int, error)
	Match(ctx context.Context, skills []string) []string
}

type JobExtractor interface {
	Extract(ctx context.Context, cleaned string) ([]outreach.JobPosting, error)
}

type EmailWriter interface {
	Draft(ctx context.Context, job outreach.JobPosting, links []string) (string, error)
}

// Deps are the collaborators of an App. Everything except the timeout and
// the isolation flag is required. The fetcher enforces its own deadlines.
type Deps struct {
	Fetcher   PageFetcher
	Portfolio Portfolio
	Extractor JobExtractor
	Writer    EmailWriter
	Logger    *zap.Logger

	LLMTimeout time.Duration
	// IsolateJobFailures records a failed draft and moves on to the next
	// job instead of aborting the run.
	IsolateJobFailures bool
}

// App is built once at startup and shared by every run.
type App struct {
	deps Deps
}

type Draft struct {
	Job   outreach.JobPosting
	Links []string
	Email string
}

type JobFailure struct {
	Job outreach.JobPosting
	Err error
}

type Result struct {
	URL    string
	Drafts []Draft
	Failed []JobFailure
}

func New(deps Deps) (*App, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case deps.Portfolio == nil:
		return nil, errors.New("pipeline: portfolio is required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.Writer == nil:
		return nil, errors.New("pipeline: writer is required")
	}

	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.LLMTimeout <= 0 {
		deps.LLMTimeout = DefaultLLMTimeout
	}

	return &App{deps: deps}, nil
}

// Run processes one careers page. Jobs are handled sequentially in the
// order the model listed them. Unless failures are isolated, the first
// failed draft aborts the run and no drafts are returned.
func (a *App) Run(ctx context.Context, url string) (*Result, error) {
	log := logger.WithFields(a.deps.Logger, zap.String(logger.FieldURL, url))
	started := time.Now()

	page, err := a.deps.Fetcher.Page(ctx, url)
	if err != nil {
		return nil, err
	}

	cleaned := textclean.Clean(page.Text)
	log.Info("page cleaned",
		zap.Int("text_length", len(page.Text)),
		zap.Int("cleaned_length", len(cleaned)),
		zap.Bool("rendered", page.Rendered),
	)

	added, err := a.deps.Portfolio.EnsureLoaded(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading portfolio: %w", err)
	}
	if added > 0 {
		log.Info("portfolio loaded", zap.Int("documents", added))
	}

	jobs, err := a.extract(ctx, cleaned)
	if err != nil {
		return nil, err
	}
	log.Info("jobs extracted", zap.Int("count", len(jobs)))

	result := &Result{URL: url, Drafts: make([]Draft, 0, len(jobs))}

	for i, job := range jobs {
		jobLog := logger.WithFields(log, logger.JobFields(i, job.Role)...)

		links := a.deps.Portfolio.Match(ctx, job.Skills)
		jobLog.Debug("portfolio matched", zap.Strings("links", links))

		email, err := a.draft(ctx, job, links)
		if err != nil {
			if !a.deps.IsolateJobFailures {
				return nil, err
			}
			jobLog.Warn("drafting failed, continuing with next job", zap.Error(err))
			result.Failed = append(result.Failed, JobFailure{Job: job, Err: err})
			continue
		}

		jobLog.Info("email drafted", zap.Int("links", len(links)), zap.Int("email_length", len(email)))
		result.Drafts = append(result.Drafts, Draft{Job: job, Links: links, Email: email})
	}

	log.Info("run finished",
		zap.Int("drafts", len(result.Drafts)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("took", time.Since(started)),
	)

	return result, nil
}

func (a *App) extract(ctx context.Context, cleaned string) ([]outreach.JobPosting, error) {
	ctx, cancel := context.WithTimeout(ctx, a.deps.LLMTimeout)
	defer cancel()

	return a.deps.Extractor.Extract(ctx, cleaned)
}

func (a *App) draft(ctx context.Context, job outreach.JobPosting, links []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.deps.LLMTimeout)
	defer cancel()

	return a.deps.Writer.Draft(ctx, job, links)
}
