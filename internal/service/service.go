// Package service runs the job pipeline: discover a user's video posts,
// resolve each to a media URL, fetch and store it, and report progress.
// One goroutine per job; per-link failures are recorded and never abort the
// run; every run ends with exactly one terminal notice.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/consts"
	"tokvault/internal/entity"
	"tokvault/internal/errs"
	"tokvault/internal/extract"
	"tokvault/internal/observability"
	"tokvault/internal/progress"
	"tokvault/internal/render"
	"tokvault/internal/resolve"
	"tokvault/internal/storage"
	"tokvault/pkg/gen"
	"tokvault/pkg/urls"
)

// Failure stages for metrics.
const (
	stageResolve = "resolve"
	stageFetch   = "fetch"
)

// Fetcher downloads a resolved media URL and persists it remotely.
type Fetcher interface {
	FetchAndStore(ctx context.Context, mediaURL, name string) (string, error)
}

// LaunchRequest describes one job: a username to discover, or explicit post
// URLs, plus a link cap. Count 0 means the configured default.
type LaunchRequest struct {
	Username string
	URLs     []string
	Count    int
}

// Pipeline starts jobs and owns their execution contexts.
type Pipeline interface {
	// Start binds the pipeline to the application lifetime context. Jobs
	// launched afterwards run on that context, not on the request's.
	Start(ctx context.Context)

	// Launch starts one job asynchronously and returns its session id.
	Launch(ctx context.Context, req LaunchRequest) (string, error)

	// Wait blocks until all launched jobs have finished.
	Wait()
}

type pipeline struct {
	log       *slog.Logger
	cfg       *config.Config
	extractor *extract.Extractor
	renderer  render.Renderer
	resolver  resolve.Resolver
	fetcher   Fetcher
	bus       *progress.Bus
	store     storage.Storer
	metrics   *observability.Metrics

	baseCtx   context.Context
	wg        sync.WaitGroup
	closed    atomic.Bool
	startOnce sync.Once
}

var _ Pipeline = (*pipeline)(nil)

// New creates the job pipeline service.
func New(
	cfg *config.Config,
	log *slog.Logger,
	renderer render.Renderer,
	resolver resolve.Resolver,
	fetcher Fetcher,
	bus *progress.Bus,
	store storage.Storer,
	metrics *observability.Metrics,
) Pipeline {
	return &pipeline{
		log:       log.With(slog.String("package", "service")),
		cfg:       cfg,
		extractor: extract.New(cfg.Discover.Origin, cfg.Discover.StateScriptID),
		renderer:  renderer,
		resolver:  resolver,
		fetcher:   fetcher,
		bus:       bus,
		store:     store,
		metrics:   metrics,
		baseCtx:   context.Background(),
	}
}

func (p *pipeline) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.baseCtx = ctx

		go func() {
			<-ctx.Done()
			p.closed.Store(true)
		}()
	})
}

// Launch registers a job record, fires the run goroutine and returns the
// session id immediately. The goroutine is tracked so shutdown can drain it
// and an abnormal exit is observed rather than lost.
func (p *pipeline) Launch(_ context.Context, req LaunchRequest) (string, error) {
	if p.closed.Load() {
		return "", errs.ErrServiceClosed
	}

	count := req.Count
	if count <= 0 {
		count = p.cfg.Job.DefaultCount
	}

	session := gen.SessionID()
	now := time.Now()

	job := entity.Job{
		SessionID: session,
		Username:  req.Username,
		URLs:      req.URLs,
		Count:     count,
		Status:    entity.JobStatusStarting,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(p.cfg.Job.TTL),
	}

	p.store.SetJob(p.baseCtx, job)
	p.metrics.RecordJobCreated()

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				p.log.Error("job panicked", slog.String("session", session), slog.Any("panic", r))
			}
		}()

		jobCtx, cancel := context.WithTimeout(p.baseCtx, p.cfg.Job.Timeout)
		defer cancel()

		p.run(jobCtx, job)
	}()

	p.log.Info("job launched", "job", job)

	return session, nil
}

func (p *pipeline) Wait() {
	p.wg.Wait()
}

// run drives one job through discovery, extraction and the per-link loop.
// The deferred finalize publishes the single terminal sentinel no matter how
// the run ends, including a panic inside a collaborator.
func (p *pipeline) run(ctx context.Context, job entity.Job) {
	log := p.log.With(slog.String("session", job.SessionID))

	var succeeded, failed int

	hardFailure := false

	defer func() {
		p.finalize(ctx, job.SessionID, succeeded, failed, hardFailure)
	}()

	links, err := p.discover(ctx, job)
	if err != nil {
		hardFailure = true

		log.ErrorContext(ctx, "discovery failed", slog.Any("error", err))
		p.store.UpdateJobStatus(ctx, job.SessionID, entity.JobStatusError, err.Error())
		p.bus.Publish(ctx, job.SessionID, fmt.Sprintf(consts.MsgDiscoveryFailed, err.Error()), false)

		return
	}

	p.metrics.RecordLinksDiscovered(len(links))
	p.bus.Publish(ctx, job.SessionID, fmt.Sprintf(consts.MsgFoundLinks, len(links)), false)

	if len(links) == 0 {
		return
	}

	p.store.UpdateJobStatus(ctx, job.SessionID, entity.JobStatusProcessing, "")

	total := len(links)

	for i, link := range links {
		pos := i + 1

		p.bus.Publish(ctx, job.SessionID, fmt.Sprintf(consts.MsgProcessing, pos, total, link), false)

		remoteID, name, err := p.processLink(ctx, job, pos, link)
		if err != nil {
			failed++

			log.WarnContext(ctx, "link failed",
				slog.Int("position", pos),
				slog.String("link", link),
				slog.Any("error", err))

			p.store.AppendOutcome(ctx, job.SessionID, entity.LinkOutcome{
				Position: pos,
				URL:      link,
				Reason:   err.Error(),
			})
			p.bus.Publish(ctx, job.SessionID, fmt.Sprintf(consts.MsgLinkFailed, pos, err.Error()), false)

			continue
		}

		succeeded++

		p.store.AppendOutcome(ctx, job.SessionID, entity.LinkOutcome{
			Position: pos,
			URL:      link,
			RemoteID: remoteID,
			OK:       true,
		})
		p.metrics.RecordLinkSuccess()
		p.bus.Publish(ctx, job.SessionID, fmt.Sprintf(consts.MsgUploaded, name, remoteID), false)
	}
}

// discover produces the deduplicated link sequence for a job: explicit URLs
// when given, otherwise the rendered profile page run through the extractor.
func (p *pipeline) discover(ctx context.Context, job entity.Job) ([]string, error) {
	if len(job.URLs) > 0 {
		links := make([]string, 0, len(job.URLs))
		seen := make(map[string]struct{}, len(job.URLs))

		for _, raw := range job.URLs {
			link := urls.Normalize(raw)
			if _, ok := seen[link]; ok {
				continue
			}

			seen[link] = struct{}{}

			links = append(links, link)
			if len(links) == job.Count {
				break
			}
		}

		return links, nil
	}

	p.store.UpdateJobStatus(ctx, job.SessionID, entity.JobStatusDiscovering, "")

	profileURL := fmt.Sprintf("%s/@%s", p.cfg.Discover.Origin, job.Username)

	content, err := p.renderer.Render(ctx, profileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrDiscoveryFailed, err)
	}

	return p.extractor.Links(content, job.Count), nil
}

// processLink resolves and fetches one link. Any error is scoped to this
// link; the caller records it and moves on.
func (p *pipeline) processLink(ctx context.Context, job entity.Job, pos int, link string) (remoteID, name string, err error) {
	res, err := p.resolver.Resolve(ctx, link)
	if err != nil {
		p.metrics.RecordLinkFailure(stageResolve)

		return "", "", err
	}

	if res.Degraded {
		p.bus.Publish(ctx, job.SessionID, fmt.Sprintf(consts.MsgDegraded, pos), false)
	}

	name = gen.FileName(job.Username, pos)

	remoteID, err = p.fetcher.FetchAndStore(ctx, res.MediaURL, name)
	if err != nil {
		p.metrics.RecordLinkFailure(stageFetch)

		return "", "", err
	}

	return remoteID, name, nil
}

// finalize emits the terminal sentinel exactly once and settles the job
// record. A job with zero successes is still "finished" unless discovery
// itself failed.
func (p *pipeline) finalize(ctx context.Context, session string, succeeded, failed int, hardFailure bool) {
	if hardFailure {
		p.metrics.RecordJobFailed()
	} else {
		p.store.UpdateJobStatus(ctx, session, entity.JobStatusFinished, "")
		p.metrics.RecordJobCompleted()
	}

	p.bus.Publish(ctx, session, consts.MsgDone, true)

	p.log.InfoContext(ctx, "job finished",
		slog.String("session", session),
		slog.Int("succeeded", succeeded),
		slog.Int("failed", failed),
		slog.Bool("hard_failure", hardFailure))
}
