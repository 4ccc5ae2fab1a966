package model_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"social-integration/domain/model"
)

func TestIntegrationError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("resolve: %w", model.NewError(model.KindReauthRequired, model.PlatformZalo, "token revoked", nil))

	assert.True(t, errors.Is(err, model.ErrReauthRequired))
	assert.False(t, errors.Is(err, model.ErrTimeout))
	assert.Equal(t, model.KindReauthRequired, model.KindOf(err))
	assert.Equal(t, "zalo reauth_required: token revoked", errors.Unwrap(err).Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, model.ErrorKind(""), model.KindOf(nil))
	assert.Equal(t, model.KindTimeout, model.KindOf(context.DeadlineExceeded))
	assert.Equal(t, model.KindInternal, model.KindOf(errors.New("x")))
}

func TestIntegrationError_Retryable(t *testing.T) {
	assert.True(t, model.NewError(model.KindTimeout, "", "", nil).Retryable())
	assert.True(t, model.NewError(model.KindTransport, "", "", nil).Retryable())
	assert.False(t, model.NewError(model.KindRemoteRejection, "", "", nil).Retryable())
}

func TestWithPlatform(t *testing.T) {
	err := model.WithPlatform(model.NewError(model.KindValidation, "", "bad", nil), model.PlatformYouTube)
	var ie *model.IntegrationError
	assert.True(t, errors.As(err, &ie))
	assert.Equal(t, model.PlatformYouTube, ie.Platform)
}

func TestPlatformCredential_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, (&model.PlatformCredential{AccessToken: "a", ExpiresAt: now}).Expired(now))
	assert.True(t, (&model.PlatformCredential{AccessToken: "a", ExpiresAt: now.Add(-time.Second)}).Expired(now))
	assert.False(t, (&model.PlatformCredential{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.False(t, (&model.PlatformCredential{AccessToken: "a"}).Expired(now))
	assert.True(t, (&model.PlatformCredential{}).Expired(now))

	c := &model.PlatformCredential{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}
	assert.True(t, c.ExpiresWithin(now, 5*time.Minute))
	assert.False(t, c.ExpiresWithin(now, 30*time.Second))
}
