// Package poller drives asynchronous platform publish jobs to a terminal state.
package poller

import (
	"context"
	"fmt"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/logger"
)

const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 60
)

// Status is one observation of a remote job.
type Status struct {
	State     model.JobStatus
	PostID    string
	Permalink string
	// Reason is the platform's failure text, kept verbatim
	Reason string
}

// CheckFunc queries the platform once for the job's current status.
type CheckFunc func(ctx context.Context) (*Status, error)

// JobObserver receives every state transition of a job.
type JobObserver interface {
	SaveJob(ctx context.Context, job *model.PublishJob) error
}

// Job identifies what is being polled and how to build links for the result.
type Job struct {
	ID       string
	Platform model.Platform
	Identity model.Identity
	// Permalink builds the public link for a confirmed post id
	Permalink func(postID string) string
	// FallbackPermalink is used when the platform confirms completion without exposing an id
	FallbackPermalink string
}

type Poller struct {
	interval    time.Duration
	maxAttempts int
	observer    JobObserver
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

type Option func(*Poller)

func WithObserver(o JobObserver) Option {
	return func(p *Poller) { p.observer = o }
}

// WithSleep replaces the wait between polls.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Poller) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

func New(interval time.Duration, maxAttempts int, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	p := &Poller{
		interval:    interval,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Await polls check until the job reaches a terminal state, the attempts run out or ctx ends.
// The first poll happens immediately; later polls are spaced by the interval.
func (p *Poller) Await(ctx context.Context, job Job, check CheckFunc) *model.PublishResult {
	log := logger.GetLogger().WithField("platform", job.Platform).WithField("job_id", job.ID)
	rec := &model.PublishJob{
		JobID:    job.ID,
		Platform: job.Platform,
		Identity: job.Identity,
		Status:   model.JobSubmitted,
	}
	p.report(ctx, rec)

	limit := p.maxAttempts
	graceUsed := false
	for attempt := 1; attempt <= limit; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.interval); err != nil {
				return p.timedOut(ctx, rec, "deadline reached while waiting for the platform")
			}
		}
		rec.Attempts = attempt

		st, err := check(ctx)
		if err != nil {
			if model.KindOf(err) == model.KindReauthRequired {
				return p.fail(ctx, rec, model.FailedFrom(model.WithPlatform(err, job.Platform)))
			}
			if ctx.Err() != nil {
				return p.timedOut(ctx, rec, "deadline reached while waiting for the platform")
			}
			log.WithField("attempt", attempt).WithField("error", err).Warn("status check failed")
			continue
		}

		switch st.State {
		case model.JobComplete:
			if st.PostID != "" {
				return p.succeed(ctx, rec, st.PostID, p.link(job, st), false)
			}
			if !graceUsed {
				graceUsed = true
				if attempt == limit {
					limit++
				}
				log.Debug("complete without post id, polling once more")
				continue
			}
			log.Warn("platform reported completion without a post id")
			return p.succeed(ctx, rec, "", job.FallbackPermalink, true)

		case model.JobFailed:
			reason := st.Reason
			if reason == "" {
				reason = "platform reported failure"
			}
			rec.Status = model.JobFailed
			rec.FailureReason = reason
			p.report(ctx, rec)
			res := model.Failed(model.KindRemoteRejection, reason)
			res.JobID = job.ID
			return res

		case model.JobScheduled:
			rec.Status = model.JobScheduled
			rec.ResultPostID = st.PostID
			p.report(ctx, rec)
			res := model.Published(st.PostID, p.link(job, st))
			res.Unconfirmed = st.PostID == ""
			res.JobID = job.ID
			return res

		default:
			if rec.Status != model.JobProcessing {
				rec.Status = model.JobProcessing
				p.report(ctx, rec)
			}
		}
	}
	return p.timedOut(ctx, rec, fmt.Sprintf("job not finished after %d status checks", rec.Attempts))
}

func (p *Poller) link(job Job, st *Status) string {
	switch {
	case st.Permalink != "":
		return st.Permalink
	case st.PostID != "" && job.Permalink != nil:
		return job.Permalink(st.PostID)
	}
	return job.FallbackPermalink
}

func (p *Poller) succeed(ctx context.Context, rec *model.PublishJob, postID, permalink string, unconfirmed bool) *model.PublishResult {
	rec.Status = model.JobComplete
	rec.ResultPostID = postID
	p.report(ctx, rec)
	res := model.Published(postID, permalink)
	res.Unconfirmed = unconfirmed
	res.JobID = rec.JobID
	return res
}

func (p *Poller) fail(ctx context.Context, rec *model.PublishJob, res *model.PublishResult) *model.PublishResult {
	rec.Status = model.JobFailed
	rec.FailureReason = res.Error
	p.report(ctx, rec)
	res.JobID = rec.JobID
	return res
}

func (p *Poller) timedOut(ctx context.Context, rec *model.PublishJob, reason string) *model.PublishResult {
	return p.fail(ctx, rec, model.Failed(model.KindTimeout, reason))
}

func (p *Poller) report(ctx context.Context, rec *model.PublishJob) {
	if p.observer == nil {
		return
	}
	rec.UpdatedAt = p.now().UTC()
	snapshot := *rec
	if err := p.observer.SaveJob(context.WithoutCancel(ctx), &snapshot); err != nil {
		logger.GetLogger().WithField("job_id", rec.JobID).WithField("error", err).Warn("failed to record job transition")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
