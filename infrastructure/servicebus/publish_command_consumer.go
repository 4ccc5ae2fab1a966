package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// PublishCommand is a queued request to publish content to one or more platforms.
type PublishCommand struct {
	RequestID string               `json:"request_id"`
	Identity  model.Identity       `json:"identity"`
	Platforms []model.Platform     `json:"platforms"`
	Request   model.PublishRequest `json:"request"`
}

func (c *PublishCommand) validate() error {
	if c.Identity == "" {
		return errors.New("identity is required")
	}
	if len(c.Platforms) == 0 {
		return errors.New("at least one platform is required")
	}
	for i, p := range c.Platforms {
		c.Platforms[i] = model.ParsePlatform(string(p))
	}
	return nil
}

// CommandHandler executes a decoded command. A returned error abandons the message for redelivery.
type CommandHandler func(ctx context.Context, cmd *PublishCommand) error

// receiver is the subset of *azservicebus.Receiver the consumer drives.
type receiver interface {
	ReceiveMessages(ctx context.Context, maxMessages int, options *azservicebus.ReceiveMessagesOptions) ([]*azservicebus.ReceivedMessage, error)
	CompleteMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.CompleteMessageOptions) error
	AbandonMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.AbandonMessageOptions) error
	DeadLetterMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.DeadLetterOptions) error
	Close(ctx context.Context) error
}

type PublishCommandConsumer struct {
	receiver  receiver
	handle    CommandHandler
	batchSize int
	backoff   time.Duration
}

func NewPublishCommandConsumer(client *azservicebus.Client, queue string, handle CommandHandler) (*PublishCommandConsumer, error) {
	r, err := client.NewReceiverForQueue(queue, nil)
	if err != nil {
		return nil, fmt.Errorf("create receiver for %s: %w", queue, err)
	}
	return newConsumer(r, handle), nil
}

func newConsumer(r receiver, handle CommandHandler) *PublishCommandConsumer {
	return &PublishCommandConsumer{receiver: r, handle: handle, batchSize: 10, backoff: 5 * time.Second}
}

// Run receives until ctx is cancelled. Receive errors are logged and retried after a backoff.
func (c *PublishCommandConsumer) Run(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.receiver.Close(closeCtx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing receiver.")
		}
	}()
	for {
		if err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.GetLogger().WithField("error", err).Warn("publish command receive failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *PublishCommandConsumer) poll(ctx context.Context) error {
	messages, err := c.receiver.ReceiveMessages(ctx, c.batchSize, nil)
	if err != nil {
		return err
	}
	for _, m := range messages {
		c.process(ctx, m)
	}
	return nil
}

func (c *PublishCommandConsumer) process(ctx context.Context, m *azservicebus.ReceivedMessage) {
	log := logger.GetLogger().WithField("message_id", m.MessageID)
	settleCtx := context.WithoutCancel(ctx)

	var cmd PublishCommand
	if err := json.Unmarshal(m.Body, &cmd); err != nil {
		c.deadLetter(settleCtx, m, "malformed", err)
		return
	}
	if err := cmd.validate(); err != nil {
		c.deadLetter(settleCtx, m, "invalid", err)
		return
	}
	if cmd.RequestID == "" {
		cmd.RequestID = m.MessageID
	}

	if err := c.handle(ctx, &cmd); err != nil {
		log.WithField("error", err).Warn("publish command failed, abandoning for redelivery")
		if err := c.receiver.AbandonMessage(settleCtx, m, nil); err != nil {
			log.WithField("error", err).Error("Error while abandoning message.")
		}
		return
	}
	if err := c.receiver.CompleteMessage(settleCtx, m, nil); err != nil {
		log.WithField("error", err).Error("Error while completing message.")
	}
}

func (c *PublishCommandConsumer) deadLetter(ctx context.Context, m *azservicebus.ReceivedMessage, reason string, cause error) {
	description := cause.Error()
	logger.GetLogger().WithField("message_id", m.MessageID).WithField("reason", reason).WithField("error", cause).
		Warn("dead-lettering publish command")
	err := c.receiver.DeadLetterMessage(ctx, m, &azservicebus.DeadLetterOptions{Reason: &reason, ErrorDescription: &description})
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while dead-lettering message.")
	}
}
