package repository

import (
	"context"
	"errors"

	"social-integration/domain/model"
)

// ErrJobNotFound is returned when the job id is unknown or expired.
var ErrJobNotFound = errors.New("publish job not found")

// IPublishJob keeps the latest snapshot of asynchronous publish jobs.
type IPublishJob interface {
	SaveJob(ctx context.Context, job *model.PublishJob) error
	GetJob(ctx context.Context, jobID string) (*model.PublishJob, error)
}
