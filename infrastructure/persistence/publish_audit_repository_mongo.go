package persistence

import (
	"context"
	"fmt"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const publishOutcomeCollection = "publish_outcomes"

// PublishAuditRepository appends every publish outcome to MongoDB.
type PublishAuditRepository struct {
	collection *mongo.Collection
}

func NewPublishAuditRepository(client *mongo.Client, database string) repository.IPublishAudit {
	return &PublishAuditRepository{collection: client.Database(database).Collection(publishOutcomeCollection)}
}

// EnsureIndexes indexes outcomes by identity and time, and makes event ids unique.
func (r *PublishAuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "identity", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create publish outcome indexes: %w", err)
	}
	return nil
}

func (r *PublishAuditRepository) Record(ctx context.Context, evt *repository.PublishOutcomeEvent) error {
	if _, err := r.collection.InsertOne(ctx, evt); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.GetLogger().WithField("event_id", evt.EventID).Debug("publish outcome already recorded")
			return nil
		}
		return fmt.Errorf("insert publish outcome: %w", err)
	}
	return nil
}

func (r *PublishAuditRepository) ListByIdentity(ctx context.Context, identity model.Identity, limit int64) ([]*repository.PublishOutcomeEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.D{{Key: "identity", Value: string(identity)}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find publish outcomes: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}()

	var out []*repository.PublishOutcomeEvent
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode publish outcomes: %w", err)
	}
	return out, nil
}
