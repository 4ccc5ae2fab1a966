package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"

	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "publish:job:"

// DefaultJobTTL bounds how long a finished job stays queryable.
const DefaultJobTTL = 24 * time.Hour

var ErrJobNotFound = repository.ErrJobNotFound

// PublishJobCache keeps the latest snapshot of each asynchronous publish job in Redis.
// It doubles as the poller's job observer.
type PublishJobCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewPublishJobCache(client redis.Cmdable, ttl time.Duration) repository.IPublishJob {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &PublishJobCache{client: client, ttl: ttl}
}

func JobKey(jobID string) string {
	return jobKeyPrefix + jobID
}

func (c *PublishJobCache) SaveJob(ctx context.Context, job *model.PublishJob) error {
	if job == nil || job.JobID == "" {
		return fmt.Errorf("save publish job: job id is required")
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode publish job: %w", err)
	}
	if err := c.client.Set(ctx, JobKey(job.JobID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save publish job %s: %w", job.JobID, err)
	}
	return nil
}

func (c *PublishJobCache) GetJob(ctx context.Context, jobID string) (*model.PublishJob, error) {
	payload, err := c.client.Get(ctx, JobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load publish job %s: %w", jobID, err)
	}
	var job model.PublishJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("decode publish job %s: %w", jobID, err)
	}
	return &job, nil
}
