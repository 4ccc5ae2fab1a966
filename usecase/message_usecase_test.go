package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-integration/domain/model"
	"social-integration/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func messengerFactory(in any) *MockFactory {
	factory := new(MockFactory)
	factory.On("Resolve", mock.Anything, mock.Anything, model.Identity("u1")).Return(in, nil)
	factory.On("Invalidate", mock.Anything, model.Identity("u1")).Return()
	return factory
}

func TestMessageUsecase_SendMessage(t *testing.T) {
	fb := &MockMessenger{MockIntegration{platform: model.PlatformFacebook}}
	fb.On("SendMessage", mock.Anything, "psid-1", "hello").Return(&model.MessageResult{MessageID: "m_1", RecipientID: "psid-1"}, nil)

	res, err := usecase.NewMessageUsecase(messengerFactory(fb), 0).SendMessage(context.Background(), model.PlatformFacebook, "u1", "psid-1", "hello")

	require.NoError(t, err)
	assert.Equal(t, "m_1", res.MessageID)
}

func TestMessageUsecase_MissingCapabilityIsUnsupported(t *testing.T) {
	yt := &MockIntegration{platform: model.PlatformYouTube}
	uc := usecase.NewMessageUsecase(messengerFactory(yt), 0)

	_, err := uc.SendMessage(context.Background(), model.PlatformYouTube, "u1", "x", "hello")
	assert.True(t, errors.Is(err, model.ErrUnsupportedOperation))

	_, err = uc.FetchHistory(context.Background(), model.PlatformYouTube, "u1", "x", 10)
	assert.True(t, errors.Is(err, model.ErrUnsupportedOperation))

	err = uc.SendTypingIndicator(context.Background(), model.PlatformYouTube, "u1", "x", true)
	assert.True(t, errors.Is(err, model.ErrUnsupportedOperation))

	err = uc.MarkAsRead(context.Background(), model.PlatformYouTube, "u1", "x")
	assert.True(t, errors.Is(err, model.ErrUnsupportedOperation))
}

func TestMessageUsecase_RecipientRequired(t *testing.T) {
	factory := new(MockFactory)

	_, err := usecase.NewMessageUsecase(factory, 0).SendMessage(context.Background(), model.PlatformFacebook, "u1", " ", "hello")

	assert.True(t, errors.Is(err, model.ErrValidation))
	factory.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageUsecase_ReauthInvalidatesAdapter(t *testing.T) {
	fb := &MockMessenger{MockIntegration{platform: model.PlatformFacebook}}
	fb.On("MarkAsRead", mock.Anything, "psid-1").Return(model.NewError(model.KindReauthRequired, "", "session expired", nil))
	factory := messengerFactory(fb)

	err := usecase.NewMessageUsecase(factory, 0).MarkAsRead(context.Background(), model.PlatformFacebook, "u1", "psid-1")

	assert.True(t, errors.Is(err, model.ErrReauthRequired))
	factory.AssertCalled(t, "Invalidate", model.PlatformFacebook, model.Identity("u1"))
}

func TestMessageUsecase_AttachmentsAndHistory(t *testing.T) {
	zl := &MockMessenger{MockIntegration{platform: model.PlatformZalo}}
	atts := []model.Attachment{{Type: model.AttachmentImage, URL: "https://cdn/x.png"}}
	zl.On("SendMessageWithAttachments", mock.Anything, "user-9", "see", atts).Return(&model.MessageResult{MessageID: "z1"}, nil)
	zl.On("FetchHistory", mock.Anything, "user-9", 5).Return([]model.Message{{ID: "a", Text: "hi"}}, nil)
	uc := usecase.NewMessageUsecase(messengerFactory(zl), 0)

	res, err := uc.SendMessageWithAttachments(context.Background(), model.PlatformZalo, "u1", "user-9", "see", atts)
	require.NoError(t, err)
	assert.Equal(t, "z1", res.MessageID)

	msgs, err := uc.FetchHistory(context.Background(), model.PlatformZalo, "u1", "user-9", 5)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMessageUsecase_AppliesDeadline(t *testing.T) {
	fb := &MockMessenger{MockIntegration{platform: model.PlatformFacebook}}
	fb.On("SendMessageWithAttachments", mock.Anything, "psid-1", "", mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(nil, errors.New("upload interrupted"))

	start := time.Now()
	_, err := usecase.NewMessageUsecase(messengerFactory(fb), 20*time.Millisecond).
		SendMessageWithAttachments(context.Background(), model.PlatformFacebook, "u1", "psid-1", "", []model.Attachment{{Type: model.AttachmentImage, URL: "https://cdn.example.com/a.png"}})

	assert.True(t, errors.Is(err, model.ErrTimeout))
	assert.Less(t, time.Since(start), time.Second)
}
