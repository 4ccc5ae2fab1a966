package poller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/poller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	jobs []model.PublishJob
}

func (r *recorder) SaveJob(_ context.Context, job *model.PublishJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, *job)
	return nil
}

func (r *recorder) statuses() []model.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.JobStatus, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Status)
	}
	return out
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// sequence returns a CheckFunc that replays the given steps, repeating the last one.
func sequence(steps ...func() (*poller.Status, error)) (poller.CheckFunc, *int) {
	calls := 0
	return func(context.Context) (*poller.Status, error) {
		i := calls
		if i >= len(steps) {
			i = len(steps) - 1
		}
		calls++
		return steps[i]()
	}, &calls
}

func state(s model.JobStatus, postID string) func() (*poller.Status, error) {
	return func() (*poller.Status, error) { return &poller.Status{State: s, PostID: postID}, nil }
}

func job() poller.Job {
	return poller.Job{
		ID:                "v_pub_1",
		Platform:          model.PlatformTikTok,
		Identity:          "u1",
		Permalink:         func(id string) string { return "https://www.tiktok.com/@me/video/" + id },
		FallbackPermalink: "https://www.tiktok.com/@me",
	}
}

func TestAwait_CompletesAfterProcessing(t *testing.T) {
	rec := &recorder{}
	p := poller.New(time.Second, 10, poller.WithObserver(rec), poller.WithSleep(noSleep))
	check, calls := sequence(state(model.JobProcessing, ""), state(model.JobProcessing, ""), state(model.JobComplete, "7301"))

	res := p.Await(context.Background(), job(), check)

	require.True(t, res.Success)
	assert.Equal(t, "7301", res.PostID)
	assert.Equal(t, "https://www.tiktok.com/@me/video/7301", res.Permalink)
	assert.Equal(t, "v_pub_1", res.JobID)
	assert.False(t, res.Unconfirmed)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, []model.JobStatus{model.JobSubmitted, model.JobProcessing, model.JobComplete}, rec.statuses())
}

func TestAwait_CompleteWithoutIDGetsOneGracePoll(t *testing.T) {
	p := poller.New(time.Second, 10, poller.WithSleep(noSleep))
	check, calls := sequence(state(model.JobComplete, ""), state(model.JobComplete, "99"))

	res := p.Await(context.Background(), job(), check)

	require.True(t, res.Success)
	assert.Equal(t, "99", res.PostID)
	assert.Equal(t, 2, *calls)
}

func TestAwait_CompleteWithoutIDDegrades(t *testing.T) {
	p := poller.New(time.Second, 10, poller.WithSleep(noSleep))
	check, calls := sequence(state(model.JobComplete, ""))

	res := p.Await(context.Background(), job(), check)

	require.True(t, res.Success)
	assert.True(t, res.Unconfirmed)
	assert.Empty(t, res.PostID)
	assert.Equal(t, "https://www.tiktok.com/@me", res.Permalink)
	assert.Equal(t, 2, *calls)
}

func TestAwait_GracePollOnLastAttempt(t *testing.T) {
	p := poller.New(time.Second, 1, poller.WithSleep(noSleep))
	check, calls := sequence(state(model.JobComplete, ""), state(model.JobComplete, "5"))

	res := p.Await(context.Background(), job(), check)

	assert.True(t, res.Success)
	assert.Equal(t, "5", res.PostID)
	assert.Equal(t, 2, *calls)
}

func TestAwait_FailedKeepsReasonVerbatim(t *testing.T) {
	rec := &recorder{}
	p := poller.New(time.Second, 10, poller.WithObserver(rec), poller.WithSleep(noSleep))
	check, _ := sequence(state(model.JobProcessing, ""), func() (*poller.Status, error) {
		return &poller.Status{State: model.JobFailed, Reason: "spam_risk_too_many_posts"}, nil
	})

	res := p.Await(context.Background(), job(), check)

	assert.False(t, res.Success)
	assert.Equal(t, model.KindRemoteRejection, res.Kind)
	assert.Equal(t, "spam_risk_too_many_posts", res.Error)
	assert.Equal(t, model.JobFailed, rec.statuses()[len(rec.statuses())-1])
}

func TestAwait_ScheduledStopsPolling(t *testing.T) {
	p := poller.New(time.Second, 10, poller.WithSleep(noSleep))
	check, calls := sequence(state(model.JobScheduled, ""))

	res := p.Await(context.Background(), job(), check)

	assert.True(t, res.Success)
	assert.True(t, res.Unconfirmed)
	assert.Equal(t, 1, *calls)
}

func TestAwait_ExhaustedAttemptsTimesOut(t *testing.T) {
	p := poller.New(time.Second, 4, poller.WithSleep(noSleep))
	check, calls := sequence(state(model.JobProcessing, ""))

	res := p.Await(context.Background(), job(), check)

	assert.False(t, res.Success)
	assert.Equal(t, model.KindTimeout, res.Kind)
	assert.Equal(t, 4, *calls)
}

func TestAwait_CheckErrorsCountAsAttempts(t *testing.T) {
	p := poller.New(time.Second, 3, poller.WithSleep(noSleep))
	check, calls := sequence(func() (*poller.Status, error) {
		return nil, model.NewError(model.KindTransport, model.PlatformTikTok, "connection reset", nil)
	})

	res := p.Await(context.Background(), job(), check)

	assert.Equal(t, model.KindTimeout, res.Kind)
	assert.Equal(t, 3, *calls)
}

func TestAwait_ReauthAbortsImmediately(t *testing.T) {
	p := poller.New(time.Second, 10, poller.WithSleep(noSleep))
	check, calls := sequence(func() (*poller.Status, error) {
		return nil, model.NewError(model.KindReauthRequired, "", "access_token_invalid", nil)
	})

	res := p.Await(context.Background(), job(), check)

	assert.False(t, res.Success)
	assert.Equal(t, model.KindReauthRequired, res.Kind)
	assert.Equal(t, model.OutcomeNeedsReconnect, res.Outcome())
	assert.Equal(t, 1, *calls)
}

func TestAwait_ContextDeadlineTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p := poller.New(10*time.Millisecond, 1000)
	check, _ := sequence(state(model.JobProcessing, ""))

	start := time.Now()
	res := p.Await(ctx, job(), check)

	assert.Equal(t, model.KindTimeout, res.Kind)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAwait_ObserverErrorsDoNotFailJob(t *testing.T) {
	p := poller.New(time.Second, 5, poller.WithObserver(failingObserver{}), poller.WithSleep(noSleep))
	check, _ := sequence(state(model.JobComplete, "1"))

	res := p.Await(context.Background(), job(), check)
	assert.True(t, res.Success)
}

type failingObserver struct{}

func (failingObserver) SaveJob(context.Context, *model.PublishJob) error {
	return errors.New("redis down")
}
