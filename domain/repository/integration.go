package repository

import (
	"context"

	"social-integration/domain/model"
)

// IIntegration is the contract every platform adapter satisfies.
// Unsupported operations are declared (model.Unsupported / model.ErrUnsupportedOperation), never attempted.
type IIntegration interface {
	Platform() model.Platform
	Publish(ctx context.Context, req *model.PublishRequest) *model.PublishResult
	Update(ctx context.Context, postID string, req *model.PublishRequest) *model.PublishResult
	Delete(ctx context.Context, postID string) (bool, error)
	// GetMetrics zero-fills counters the platform does not return
	GetMetrics(ctx context.Context, postID string) (*model.Metrics, error)
	VerifyAuth(ctx context.Context) (bool, error)
}

// Messaging capabilities. Each is optional; callers type-assert before use.

type IMessageSender interface {
	SendMessage(ctx context.Context, recipientID, text string) (*model.MessageResult, error)
}

type IAttachmentSender interface {
	SendMessageWithAttachments(ctx context.Context, recipientID, text string, attachments []model.Attachment) (*model.MessageResult, error)
}

type IHistoryFetcher interface {
	FetchHistory(ctx context.Context, participantID string, limit int) ([]model.Message, error)
}

type ITypingIndicator interface {
	SendTypingIndicator(ctx context.Context, recipientID string, on bool) error
}

type IReadMarker interface {
	MarkAsRead(ctx context.Context, recipientID string) error
}

// Capabilities describes what an adapter can do, for listings and fan-out planning.
type Capabilities struct {
	Platform        model.Platform `json:"platform"`
	Update          bool           `json:"update"`
	Delete          bool           `json:"delete"`
	AsyncPublish    bool           `json:"async_publish"`
	SendMessage     bool           `json:"send_message"`
	SendAttachments bool           `json:"send_attachments"`
	FetchHistory    bool           `json:"fetch_history"`
	TypingIndicator bool           `json:"typing_indicator"`
	MarkAsRead      bool           `json:"mark_as_read"`
}

// ICapabilityReporter is implemented by adapters that declare update/delete/async support.
type ICapabilityReporter interface {
	Capabilities() Capabilities
}

// CapabilitiesOf merges the adapter's declaration with the messaging interfaces it satisfies.
func CapabilitiesOf(in IIntegration) Capabilities {
	var c Capabilities
	if r, ok := in.(ICapabilityReporter); ok {
		c = r.Capabilities()
	}
	c.Platform = in.Platform()
	_, c.SendMessage = in.(IMessageSender)
	_, c.SendAttachments = in.(IAttachmentSender)
	_, c.FetchHistory = in.(IHistoryFetcher)
	_, c.TypingIndicator = in.(ITypingIndicator)
	_, c.MarkAsRead = in.(IReadMarker)
	return c
}
