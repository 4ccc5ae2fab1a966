package repository

import (
	"context"
	"time"

	"social-integration/domain/model"
)

// PublishOutcomeEvent is emitted once per platform after every publish-like operation.
type PublishOutcomeEvent struct {
	EventID    string               `json:"event_id" bson:"event_id"`
	RequestID  string               `json:"request_id" bson:"request_id"`
	Operation  string               `json:"operation" bson:"operation"`
	Platform   model.Platform       `json:"platform" bson:"platform"`
	Identity   model.Identity       `json:"identity" bson:"identity"`
	Outcome    model.Outcome        `json:"outcome" bson:"outcome"`
	Result     *model.PublishResult `json:"result" bson:"result"`
	OccurredAt time.Time            `json:"occurred_at" bson:"occurred_at"`
}

// IOutcomeSink receives publish outcomes (audit store, event bus, realtime hub).
type IOutcomeSink interface {
	Record(ctx context.Context, evt *PublishOutcomeEvent) error
}

// IPublishAudit is the queryable audit trail of outcomes.
type IPublishAudit interface {
	IOutcomeSink
	ListByIdentity(ctx context.Context, identity model.Identity, limit int64) ([]*PublishOutcomeEvent, error)
}
