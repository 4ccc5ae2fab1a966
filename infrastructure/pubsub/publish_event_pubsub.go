package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"social-integration/domain/repository"
	"social-integration/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// PublishEventPublisher forwards publish outcomes to a Pub/Sub topic for downstream CRM consumers.
type PublishEventPublisher struct {
	topic *pubsub.Topic
}

// NewPublishEventPublisher creates the topic when it does not exist yet.
func NewPublishEventPublisher(ctx context.Context, client *pubsub.Client, topicName string) (repository.IOutcomeSink, error) {
	topic := client.Topic(topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", topicName, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", topicName).Info("Topic doesn't exist - creating it")
		if topic, err = client.CreateTopic(ctx, topicName); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", topicName, err)
		}
	}
	return &PublishEventPublisher{topic: topic}, nil
}

func (p *PublishEventPublisher) Record(ctx context.Context, evt *repository.PublishOutcomeEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode publish outcome: %w", err)
	}
	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"platform":   string(evt.Platform),
			"operation":  evt.Operation,
			"outcome":    string(evt.Outcome),
			"request_id": evt.RequestID,
		},
	}
	serverID, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish outcome %s: %w", evt.EventID, err)
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("event_id", evt.EventID).Debug("publish outcome sent")
	return nil
}

// Stop flushes pending messages.
func (p *PublishEventPublisher) Stop() {
	p.topic.Stop()
}
