package clients

import (
	"context"
	"net/http"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/facebook"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/clients/tiktok"
	"social-integration/infrastructure/clients/youtube"
	"social-integration/infrastructure/clients/zalo"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/poller"
	"social-integration/usecase"
)

// Registry holds everything platform specific the usecases are wired with.
type Registry struct {
	Builders     map[model.Platform]usecase.IntegrationBuilder
	Refreshers   []repository.ITokenRefresher
	System       []*model.PlatformCredential
	FacebookAuth *facebook.Auth
	YouTubeAuth  *youtube.Auth
}

// NewRegistry binds the platform adapters to cfg. Every adapter shares poll and httpClient.
func NewRegistry(cfg configuration.Platforms, poll *poller.Poller, httpClient *http.Client) *Registry {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	opts := []remote.Option{remote.WithHTTPClient(httpClient)}

	builders := map[model.Platform]usecase.IntegrationBuilder{
		model.PlatformFacebook: func(_ context.Context, _ model.Identity, tokens remote.TokenSource) (repository.IIntegration, error) {
			c, err := facebook.New(cfg.Facebook, tokens, opts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		model.PlatformTikTok: func(_ context.Context, _ model.Identity, tokens remote.TokenSource) (repository.IIntegration, error) {
			c, err := tiktok.New(cfg.TikTok, tokens, poll, opts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		model.PlatformZalo: func(_ context.Context, _ model.Identity, tokens remote.TokenSource) (repository.IIntegration, error) {
			c, err := zalo.New(cfg.Zalo, tokens, poll, opts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		model.PlatformYouTube: func(_ context.Context, _ model.Identity, tokens remote.TokenSource) (repository.IIntegration, error) {
			c, err := youtube.New(cfg.YouTube, tokens, nil)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}

	fbAuth := facebook.NewAuth(cfg.Facebook, opts...)
	ytAuth := youtube.NewAuth(cfg.YouTube)
	return &Registry{
		Builders: builders,
		Refreshers: []repository.ITokenRefresher{
			fbAuth,
			tiktok.NewRefresher(cfg.TikTok, opts...),
			zalo.NewRefresher(cfg.Zalo, opts...),
			ytAuth,
		},
		System:       SystemCredentials(cfg),
		FacebookAuth: fbAuth,
		YouTubeAuth:  ytAuth,
	}
}

// SystemCredentials lists the configuration-sourced tokens of the system identity.
func SystemCredentials(cfg configuration.Platforms) []*model.PlatformCredential {
	sources := []struct {
		platform model.Platform
		cred     configuration.SystemCredential
	}{
		{model.PlatformFacebook, cfg.Facebook.System},
		{model.PlatformTikTok, cfg.TikTok.System},
		{model.PlatformZalo, cfg.Zalo.System},
		{model.PlatformYouTube, cfg.YouTube.System},
	}
	var out []*model.PlatformCredential
	for _, s := range sources {
		if s.cred.AccessToken == "" {
			continue
		}
		out = append(out, &model.PlatformCredential{
			Identity:     model.SystemIdentity,
			Platform:     s.platform,
			AccessToken:  s.cred.AccessToken,
			RefreshToken: s.cred.RefreshToken,
			ExpiresAt:    s.cred.Expiry(),
			AccountID:    s.cred.AccountID,
			AccountName:  s.cred.AccountName,
		})
	}
	return out
}
