package tiktok

import (
	"context"
	"net/http"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
)

// Refresher renews TikTok access tokens with the stored refresh token.
type Refresher struct {
	cfg configuration.TikTok
	api *remote.Client
	now func() time.Time
}

var _ repository.ITokenRefresher = (*Refresher)(nil)

func NewRefresher(cfg configuration.TikTok, opts ...remote.Option) *Refresher {
	return &Refresher{cfg: cfg, api: remote.NewClient(platform, cfg.BaseURL, decodeError, opts...), now: time.Now}
}

func (r *Refresher) Platform() model.Platform { return platform }

type refreshResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	OpenID           string `json:"open_id"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
	Scope            string `json:"scope"`
}

func (r *Refresher) Refresh(ctx context.Context, c *model.PlatformCredential) (*model.PlatformCredential, error) {
	if r.cfg.ClientKey == "" || r.cfg.ClientSecret == "" {
		return nil, model.NewError(model.KindConfiguration, platform, "tiktok client key/secret are not configured", nil)
	}
	if c.RefreshToken == "" {
		return nil, model.NewError(model.KindReauthRequired, platform, "no refresh token stored", nil)
	}
	var out refreshResponse
	err := r.api.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   "/v2/oauth/token/",
		Form: map[string][]string{
			"client_key":    {r.cfg.ClientKey},
			"client_secret": {r.cfg.ClientSecret},
			"grant_type":    {"refresh_token"},
			"refresh_token": {c.RefreshToken},
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, model.NewError(model.KindRemoteRejection, platform, "token refresh returned no access token", nil)
	}

	next := c.Clone()
	now := r.now().UTC()
	next.AccessToken = out.AccessToken
	if out.RefreshToken != "" {
		next.RefreshToken = out.RefreshToken
	}
	if out.OpenID != "" {
		next.AccountID = out.OpenID
	}
	if out.Scope != "" {
		next.Scopes = out.Scope
	}
	next.ExpiresAt = time.Time{}
	if out.ExpiresIn > 0 {
		next.ExpiresAt = now.Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	next.UpdatedAt = now
	return next, nil
}
