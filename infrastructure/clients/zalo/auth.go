package zalo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
)

// Refresher renews OA access tokens against the Zalo OAuth server.
type Refresher struct {
	cfg configuration.Zalo
	api *remote.Client
	now func() time.Time
}

var _ repository.ITokenRefresher = (*Refresher)(nil)

func NewRefresher(cfg configuration.Zalo, opts ...remote.Option) *Refresher {
	return &Refresher{cfg: cfg, api: remote.NewClient(platform, cfg.OAuthURL, decodeError, opts...), now: time.Now}
}

func (r *Refresher) Platform() model.Platform { return platform }

func (r *Refresher) Refresh(ctx context.Context, c *model.PlatformCredential) (*model.PlatformCredential, error) {
	if r.cfg.AppID == "" || r.cfg.SecretKey == "" {
		return nil, model.NewError(model.KindConfiguration, platform, "zalo app id/secret key are not configured", nil)
	}
	if c.RefreshToken == "" {
		return nil, model.NewError(model.KindReauthRequired, platform, "no refresh token stored", nil)
	}
	// expires_in arrives as a quoted number
	var out struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		ExpiresIn    json.Number `json:"expires_in"`
	}
	err := r.api.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   "/v4/oa/access_token",
		Header: http.Header{"secret_key": {r.cfg.SecretKey}},
		Form: map[string][]string{
			"app_id":        {r.cfg.AppID},
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
	next.ExpiresAt = time.Time{}
	if secs, err := out.ExpiresIn.Int64(); err == nil && secs > 0 {
		next.ExpiresAt = now.Add(time.Duration(secs) * time.Second)
	}
	next.UpdatedAt = now
	return next, nil
}
