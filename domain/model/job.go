package model

import "time"

type JobStatus string

const (
	JobSubmitted  JobStatus = "submitted"
	JobProcessing JobStatus = "processing"
	JobComplete   JobStatus = "complete"
	JobFailed     JobStatus = "failed"
	JobScheduled  JobStatus = "scheduled"
)

func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobFailed || s == JobScheduled
}

// PublishJob tracks an asynchronous publish. Transitions are driven only by the poller.
type PublishJob struct {
	JobID         string    `json:"job_id"`
	Platform      Platform  `json:"platform"`
	Identity      Identity  `json:"identity"`
	Status        JobStatus `json:"status"`
	ResultPostID  string    `json:"result_post_id,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	Attempts      int       `json:"attempts"`
	UpdatedAt     time.Time `json:"updated_at"`
}
