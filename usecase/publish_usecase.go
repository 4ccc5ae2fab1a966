package usecase

import (
	"context"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type requestIDKey struct{}

// WithRequestID tags ctx so every outcome event of one call shares the id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

type IPublishUsecase interface {
	Publish(ctx context.Context, platform model.Platform, identity model.Identity, req *model.PublishRequest) *model.PublishResult
	// PublishToMany publishes to every platform concurrently; one platform's failure never affects another.
	PublishToMany(ctx context.Context, platforms []model.Platform, identity model.Identity, req *model.PublishRequest) []model.PlatformOutcome
	Update(ctx context.Context, platform model.Platform, identity model.Identity, postID string, req *model.PublishRequest) *model.PublishResult
	Delete(ctx context.Context, platform model.Platform, identity model.Identity, postID string) (bool, error)
	GetMetrics(ctx context.Context, platform model.Platform, identity model.Identity, postID string) (*model.Metrics, error)
	VerifyAuth(ctx context.Context, platform model.Platform, identity model.Identity) (bool, error)
	GetJob(ctx context.Context, jobID string) (*model.PublishJob, error)
	Platforms(ctx context.Context) []PlatformInfo
}

type PublishOptions struct {
	Timeout     time.Duration
	FanOutLimit int
}

type publishUsecase struct {
	factory IIntegrationFactory
	jobs    repository.IPublishJob
	sinks   []repository.IOutcomeSink
	opts    PublishOptions
	now     func() time.Time
}

// NewPublishUsecase wires the factory with the job store (may be nil) and the outcome sinks.
func NewPublishUsecase(factory IIntegrationFactory, jobs repository.IPublishJob, opts PublishOptions, sinks ...repository.IOutcomeSink) IPublishUsecase {
	if opts.FanOutLimit <= 0 {
		opts.FanOutLimit = 8
	}
	return &publishUsecase{factory: factory, jobs: jobs, sinks: sinks, opts: opts, now: time.Now}
}

func (u *publishUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.opts.Timeout)
}

type publishFunc func(ctx context.Context, in repository.IIntegration) *model.PublishResult

func (u *publishUsecase) run(ctx context.Context, op string, platform model.Platform, identity model.Identity, fn publishFunc) *model.PublishResult {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	log := logger.GetLogger().WithField("operation", op).WithField("platform", platform).WithField("identity", identity)

	var res *model.PublishResult
	in, err := u.factory.Resolve(ctx, platform, identity)
	if err != nil {
		res = model.FailedFrom(model.WithPlatform(err, platform))
	} else {
		res = fn(ctx, in)
	}
	if res == nil {
		res = model.Failed(model.KindInternal, "integration returned no result")
	}
	if !res.Success && res.Kind != model.KindTimeout && ctx.Err() == context.DeadlineExceeded {
		res = model.Failed(model.KindTimeout, "operation deadline exceeded: "+res.Error)
	}
	if res.Kind == model.KindReauthRequired {
		u.factory.Invalidate(platform, identity)
	}

	entry := log.WithField("outcome", res.Outcome())
	if res.Success {
		entry.WithField("post_id", res.PostID).Info("publish operation finished")
	} else {
		entry.WithField("kind", res.Kind).WithField("error", res.Error).Warn("publish operation failed")
	}
	u.emit(ctx, op, platform, identity, res)
	return res
}

func (u *publishUsecase) emit(ctx context.Context, op string, platform model.Platform, identity model.Identity, res *model.PublishResult) {
	if len(u.sinks) == 0 {
		return
	}
	evt := &repository.PublishOutcomeEvent{
		EventID:    uuid.NewString(),
		RequestID:  requestID(ctx),
		Operation:  op,
		Platform:   platform,
		Identity:   identity,
		Outcome:    res.Outcome(),
		Result:     res,
		OccurredAt: u.now().UTC(),
	}
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	for _, s := range u.sinks {
		if err := s.Record(sinkCtx, evt); err != nil {
			logger.GetLogger().WithField("event_id", evt.EventID).WithField("error", err).Warn("failed to record publish outcome")
		}
	}
}

func (u *publishUsecase) Publish(ctx context.Context, platform model.Platform, identity model.Identity, req *model.PublishRequest) *model.PublishResult {
	if req == nil {
		return model.Failed(model.KindValidation, "publish request is required")
	}
	return u.run(ctx, "publish", platform, identity, func(ctx context.Context, in repository.IIntegration) *model.PublishResult {
		return in.Publish(ctx, req.Clone())
	})
}

func (u *publishUsecase) PublishToMany(ctx context.Context, platforms []model.Platform, identity model.Identity, req *model.PublishRequest) []model.PlatformOutcome {
	if _, ok := ctx.Value(requestIDKey{}).(string); !ok {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	seen := make(map[model.Platform]bool, len(platforms))
	targets := make([]model.Platform, 0, len(platforms))
	for _, p := range platforms {
		if !seen[p] {
			seen[p] = true
			targets = append(targets, p)
		}
	}

	out := make([]model.PlatformOutcome, len(targets))
	var g errgroup.Group
	g.SetLimit(u.opts.FanOutLimit)
	for i, p := range targets {
		g.Go(func() error {
			res := u.Publish(ctx, p, identity, req)
			out[i] = model.PlatformOutcome{Platform: p, Outcome: res.Outcome(), Result: res}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (u *publishUsecase) Update(ctx context.Context, platform model.Platform, identity model.Identity, postID string, req *model.PublishRequest) *model.PublishResult {
	if req == nil {
		return model.Failed(model.KindValidation, "publish request is required")
	}
	return u.run(ctx, "update", platform, identity, func(ctx context.Context, in repository.IIntegration) *model.PublishResult {
		return in.Update(ctx, postID, req.Clone())
	})
}

// Delete reports its outcome like a publish: success, failure or skipped when unsupported.
func (u *publishUsecase) Delete(ctx context.Context, platform model.Platform, identity model.Identity, postID string) (bool, error) {
	var opErr error
	res := u.run(ctx, "delete", platform, identity, func(ctx context.Context, in repository.IIntegration) *model.PublishResult {
		deleted, err := in.Delete(ctx, postID)
		if err != nil {
			opErr = model.WithPlatform(err, platform)
			return model.FailedFrom(opErr)
		}
		if !deleted {
			return model.Failed(model.KindRemoteRejection, "platform did not confirm the deletion")
		}
		return model.Published(postID, "")
	})
	switch {
	case opErr != nil:
		return false, opErr
	case !res.Success:
		return false, model.NewError(res.Kind, platform, res.Error, nil)
	}
	return true, nil
}

func (u *publishUsecase) GetMetrics(ctx context.Context, platform model.Platform, identity model.Identity, postID string) (*model.Metrics, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	in, err := u.factory.Resolve(ctx, platform, identity)
	if err != nil {
		return nil, err
	}
	m, err := in.GetMetrics(ctx, postID)
	if model.KindOf(err) == model.KindReauthRequired {
		u.factory.Invalidate(platform, identity)
	}
	return m, err
}

func (u *publishUsecase) VerifyAuth(ctx context.Context, platform model.Platform, identity model.Identity) (bool, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	in, err := u.factory.Resolve(ctx, platform, identity)
	if err != nil {
		return false, err
	}
	ok, err := in.VerifyAuth(ctx)
	if !ok || err != nil {
		u.factory.Invalidate(platform, identity)
	}
	return ok, err
}

func (u *publishUsecase) GetJob(ctx context.Context, jobID string) (*model.PublishJob, error) {
	if u.jobs == nil {
		return nil, model.NewError(model.KindConfiguration, "", "job store is not configured", nil)
	}
	return u.jobs.GetJob(ctx, jobID)
}

func (u *publishUsecase) Platforms(ctx context.Context) []PlatformInfo {
	return u.factory.Capabilities(ctx)
}
