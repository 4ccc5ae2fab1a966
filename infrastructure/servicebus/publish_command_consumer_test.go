package servicebus

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-integration/domain/model"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReceiver struct {
	mock.Mock
}

func (m *mockReceiver) ReceiveMessages(ctx context.Context, maxMessages int, options *azservicebus.ReceiveMessagesOptions) ([]*azservicebus.ReceivedMessage, error) {
	args := m.Called(ctx, maxMessages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*azservicebus.ReceivedMessage), args.Error(1)
}

func (m *mockReceiver) CompleteMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.CompleteMessageOptions) error {
	return m.Called(message).Error(0)
}

func (m *mockReceiver) AbandonMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.AbandonMessageOptions) error {
	return m.Called(message).Error(0)
}

func (m *mockReceiver) DeadLetterMessage(ctx context.Context, message *azservicebus.ReceivedMessage, options *azservicebus.DeadLetterOptions) error {
	return m.Called(message, *options.Reason).Error(0)
}

func (m *mockReceiver) Close(ctx context.Context) error {
	return m.Called().Error(0)
}

func message(id, body string) *azservicebus.ReceivedMessage {
	return &azservicebus.ReceivedMessage{MessageID: id, Body: []byte(body)}
}

func TestPublishCommandConsumer_CompletesHandledCommand(t *testing.T) {
	r := new(mockReceiver)
	msg := message("m1", `{"identity":"u1","platforms":[" Facebook ","tiktok"],"request":{"title":"Sale","body":"50% off"}}`)
	r.On("CompleteMessage", msg).Return(nil)

	var got *PublishCommand
	c := newConsumer(r, func(_ context.Context, cmd *PublishCommand) error {
		got = cmd
		return nil
	})
	c.process(context.Background(), msg)

	require.NotNil(t, got)
	assert.Equal(t, []model.Platform{model.PlatformFacebook, model.PlatformTikTok}, got.Platforms)
	assert.Equal(t, "m1", got.RequestID)
	assert.Equal(t, "Sale", got.Request.Title)
	r.AssertExpectations(t)
}

func TestPublishCommandConsumer_DeadLettersMalformed(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
	}{
		{name: "not json", body: `{"identity":`, reason: "malformed"},
		{name: "no platforms", body: `{"identity":"u1","platforms":[]}`, reason: "invalid"},
		{name: "no identity", body: `{"platforms":["zalo"]}`, reason: "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(mockReceiver)
			msg := message("m2", tt.body)
			r.On("DeadLetterMessage", msg, tt.reason).Return(nil)

			called := false
			newConsumer(r, func(context.Context, *PublishCommand) error {
				called = true
				return nil
			}).process(context.Background(), msg)

			assert.False(t, called)
			r.AssertExpectations(t)
		})
	}
}

func TestPublishCommandConsumer_AbandonsOnHandlerError(t *testing.T) {
	r := new(mockReceiver)
	msg := message("m3", `{"identity":"u1","platforms":["youtube"]}`)
	r.On("AbandonMessage", msg).Return(nil)

	newConsumer(r, func(context.Context, *PublishCommand) error {
		return errors.New("credential store unavailable")
	}).process(context.Background(), msg)

	r.AssertExpectations(t)
	r.AssertNotCalled(t, "CompleteMessage", msg)
}

func TestPublishCommandConsumer_RunStopsOnCancel(t *testing.T) {
	r := new(mockReceiver)
	ctx, cancel := context.WithCancel(context.Background())
	msg := message("m4", `{"identity":"u1","platforms":["zalo"]}`)
	r.On("ReceiveMessages", mock.Anything, 10).Return([]*azservicebus.ReceivedMessage{msg}, nil).Once()
	r.On("ReceiveMessages", mock.Anything, 10).Return(nil, context.Canceled).Run(func(mock.Arguments) { cancel() })
	r.On("CompleteMessage", msg).Return(nil)
	r.On("Close").Return(nil)

	c := newConsumer(r, func(context.Context, *PublishCommand) error { return nil })
	c.backoff = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	r.AssertCalled(t, "CompleteMessage", msg)
	r.AssertCalled(t, "Close")
}
