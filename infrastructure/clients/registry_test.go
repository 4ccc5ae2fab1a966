package clients_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/poller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func platformsConfig() configuration.Platforms {
	return configuration.Platforms{
		Facebook: configuration.Facebook{
			AppID: "fb-app", BaseURL: "https://graph.facebook.com", GraphVersion: "v19.0",
			System: configuration.SystemCredential{AccessToken: "page-token", AccountID: "page-1"},
		},
		TikTok: configuration.TikTok{ClientKey: "tt-key", BaseURL: "https://open.tiktokapis.com"},
		Zalo: configuration.Zalo{
			AppID: "zalo-app", BaseURL: "https://openapi.zalo.me",
			System: configuration.SystemCredential{AccessToken: "oa-token", RefreshToken: "oa-refresh", ExpiresAt: "2030-01-01T00:00:00Z"},
		},
	}
}

func TestRegistry_BuildsEveryPlatform(t *testing.T) {
	reg := clients.NewRegistry(platformsConfig(), poller.New(time.Millisecond, 3), nil)
	tokens := remote.StaticToken(&model.PlatformCredential{AccessToken: "t"})

	for _, p := range []model.Platform{model.PlatformFacebook, model.PlatformTikTok, model.PlatformZalo} {
		in, err := reg.Builders[p](context.Background(), "u1", tokens)
		require.NoError(t, err, p)
		assert.Equal(t, p, in.Platform())
	}

	fb, _ := reg.Builders[model.PlatformFacebook](context.Background(), "u1", tokens)
	caps := repository.CapabilitiesOf(fb)
	assert.True(t, caps.SendMessage)
	assert.True(t, caps.Update)

	tt, _ := reg.Builders[model.PlatformTikTok](context.Background(), "u1", tokens)
	caps = repository.CapabilitiesOf(tt)
	assert.True(t, caps.AsyncPublish)
	assert.False(t, caps.SendMessage)
}

func TestRegistry_UnconfiguredPlatformIsConfigurationError(t *testing.T) {
	reg := clients.NewRegistry(platformsConfig(), poller.New(time.Millisecond, 3), nil)

	_, err := reg.Builders[model.PlatformYouTube](context.Background(), "u1", remote.StaticToken(&model.PlatformCredential{AccessToken: "t"}))

	assert.True(t, errors.Is(err, model.ErrConfiguration))
}

func TestRegistry_RefreshersCoverEveryPlatform(t *testing.T) {
	reg := clients.NewRegistry(platformsConfig(), poller.New(time.Millisecond, 3), nil)

	seen := map[model.Platform]bool{}
	for _, r := range reg.Refreshers {
		seen[r.Platform()] = true
	}
	assert.Len(t, seen, 4)
	assert.NotNil(t, reg.FacebookAuth)
	assert.NotNil(t, reg.YouTubeAuth)
}

func TestSystemCredentials(t *testing.T) {
	creds := clients.SystemCredentials(platformsConfig())

	require.Len(t, creds, 2)
	assert.Equal(t, model.PlatformFacebook, creds[0].Platform)
	assert.Equal(t, model.SystemIdentity, creds[0].Identity)
	assert.True(t, creds[0].ExpiresAt.IsZero())
	assert.Equal(t, model.PlatformZalo, creds[1].Platform)
	assert.Equal(t, 2030, creds[1].ExpiresAt.Year())
}
