package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/logger"
)

// IMessageUsecase routes direct messages to platforms whose adapters declare the capability.
type IMessageUsecase interface {
	SendMessage(ctx context.Context, platform model.Platform, identity model.Identity, recipientID, text string) (*model.MessageResult, error)
	SendMessageWithAttachments(ctx context.Context, platform model.Platform, identity model.Identity, recipientID, text string, attachments []model.Attachment) (*model.MessageResult, error)
	FetchHistory(ctx context.Context, platform model.Platform, identity model.Identity, participantID string, limit int) ([]model.Message, error)
	SendTypingIndicator(ctx context.Context, platform model.Platform, identity model.Identity, recipientID string, on bool) error
	MarkAsRead(ctx context.Context, platform model.Platform, identity model.Identity, recipientID string) error
}

type messageUsecase struct {
	factory IIntegrationFactory
	timeout time.Duration
}

// NewMessageUsecase bounds every operation by timeout when it is positive.
func NewMessageUsecase(factory IIntegrationFactory, timeout time.Duration) IMessageUsecase {
	return &messageUsecase{factory: factory, timeout: timeout}
}

func (u *messageUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.timeout)
}

func unsupported(platform model.Platform, capability string) error {
	return model.NewError(model.KindUnsupportedOperation, platform, capability+" is not supported", nil)
}

func (u *messageUsecase) resolve(ctx context.Context, platform model.Platform, identity model.Identity, recipientID string) (repository.IIntegration, error) {
	if strings.TrimSpace(recipientID) == "" {
		return nil, model.NewError(model.KindValidation, platform, "recipient id is required", nil)
	}
	return u.factory.Resolve(ctx, platform, identity)
}

// settle invalidates the cached adapter when the platform rejected its credentials.
func (u *messageUsecase) settle(ctx context.Context, platform model.Platform, identity model.Identity, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && model.KindOf(err) != model.KindTimeout {
		err = model.NewError(model.KindTimeout, platform, op+" timed out", err)
	}
	if model.KindOf(err) == model.KindReauthRequired {
		u.factory.Invalidate(platform, identity)
	}
	logger.GetLogger().WithField("platform", platform).WithField("identity", identity).WithField("operation", op).
		WithField("error", err).Warn("messaging operation failed")
	return model.WithPlatform(err, platform)
}

func (u *messageUsecase) SendMessage(ctx context.Context, platform model.Platform, identity model.Identity, recipientID, text string) (*model.MessageResult, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	in, err := u.resolve(ctx, platform, identity, recipientID)
	if err != nil {
		return nil, err
	}
	sender, ok := in.(repository.IMessageSender)
	if !ok {
		return nil, unsupported(platform, "sending messages")
	}
	res, err := sender.SendMessage(ctx, recipientID, text)
	return res, u.settle(ctx, platform, identity, "send_message", err)
}

func (u *messageUsecase) SendMessageWithAttachments(ctx context.Context, platform model.Platform, identity model.Identity, recipientID, text string, attachments []model.Attachment) (*model.MessageResult, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	in, err := u.resolve(ctx, platform, identity, recipientID)
	if err != nil {
		return nil, err
	}
	sender, ok := in.(repository.IAttachmentSender)
	if !ok {
		return nil, unsupported(platform, "sending attachments")
	}
	res, err := sender.SendMessageWithAttachments(ctx, recipientID, text, attachments)
	return res, u.settle(ctx, platform, identity, "send_attachments", err)
}

func (u *messageUsecase) FetchHistory(ctx context.Context, platform model.Platform, identity model.Identity, participantID string, limit int) ([]model.Message, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	in, err := u.resolve(ctx, platform, identity, participantID)
	if err != nil {
		return nil, err
	}
	fetcher, ok := in.(repository.IHistoryFetcher)
	if !ok {
		return nil, unsupported(platform, "fetching history")
	}
	msgs, err := fetcher.FetchHistory(ctx, participantID, limit)
	return msgs, u.settle(ctx, platform, identity, "fetch_history", err)
}

func (u *messageUsecase) SendTypingIndicator(ctx context.Context, platform model.Platform, identity model.Identity, recipientID string, on bool) error {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	in, err := u.resolve(ctx, platform, identity, recipientID)
	if err != nil {
		return err
	}
	typer, ok := in.(repository.ITypingIndicator)
	if !ok {
		return unsupported(platform, "typing indicators")
	}
	return u.settle(ctx, platform, identity, "typing_indicator", typer.SendTypingIndicator(ctx, recipientID, on))
}

func (u *messageUsecase) MarkAsRead(ctx context.Context, platform model.Platform, identity model.Identity, recipientID string) error {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	in, err := u.resolve(ctx, platform, identity, recipientID)
	if err != nil {
		return err
	}
	marker, ok := in.(repository.IReadMarker)
	if !ok {
		return unsupported(platform, "read receipts")
	}
	return u.settle(ctx, platform, identity, "mark_as_read", marker.MarkAsRead(ctx, recipientID))
}
