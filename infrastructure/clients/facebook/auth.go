package facebook

import (
	"context"
	"net/url"
	"strings"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
)

// Scopes requested when a user connects a page.
var Scopes = []string{"pages_show_list", "pages_read_engagement", "pages_manage_posts", "pages_messaging", "public_profile"}

// Auth runs the page connection flow and refreshes page tokens.
// The long-lived user token is stored as the credential's refresh token.
type Auth struct {
	cfg configuration.Facebook
	api *remote.Client
	now func() time.Time
}

var _ repository.ITokenRefresher = (*Auth)(nil)

func NewAuth(cfg configuration.Facebook, opts ...remote.Option) *Auth {
	return &Auth{cfg: cfg, api: remote.NewClient(platform, graphURL(cfg), decodeError, opts...), now: time.Now}
}

func (a *Auth) Platform() model.Platform { return platform }

func (a *Auth) configured() error {
	if a.cfg.AppID == "" || a.cfg.AppSecret == "" {
		return model.NewError(model.KindConfiguration, platform, "facebook app id/secret are not configured", nil)
	}
	return nil
}

// AuthURL builds the OAuth dialog URL the user approves in a browser.
func (a *Auth) AuthURL(state string) (string, error) {
	if err := a.configured(); err != nil {
		return "", err
	}
	if a.cfg.RedirectURI == "" {
		return "", model.NewError(model.KindConfiguration, platform, "facebook redirect uri is not configured", nil)
	}
	u := url.URL{Scheme: "https", Host: "www.facebook.com", Path: "/" + a.cfg.GraphVersion + "/dialog/oauth"}
	q := u.Query()
	q.Set("client_id", a.cfg.AppID)
	q.Set("redirect_uri", a.cfg.RedirectURI)
	q.Set("state", state)
	q.Set("scope", strings.Join(Scopes, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Exchange trades an authorization code for a page credential.
// pageID selects the page; empty selects the first page the user manages.
func (a *Auth) Exchange(ctx context.Context, code, pageID string) (*model.PlatformCredential, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	var short tokenResponse
	err := a.api.Do(ctx, remote.Request{
		Path: "oauth/access_token",
		Query: remote.Values(exchangeParams{
			ClientID:     a.cfg.AppID,
			ClientSecret: a.cfg.AppSecret,
			RedirectURI:  a.cfg.RedirectURI,
			Code:         code,
		}),
	}, &short)
	if err != nil {
		return nil, err
	}
	return a.pageCredential(ctx, short.AccessToken, pageID)
}

// Refresh renews the long-lived user token and re-selects the page token for AccountID.
func (a *Auth) Refresh(ctx context.Context, c *model.PlatformCredential) (*model.PlatformCredential, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	if c.RefreshToken == "" {
		return nil, model.NewError(model.KindReauthRequired, platform, "no refresh token stored", nil)
	}
	next, err := a.pageCredential(ctx, c.RefreshToken, c.AccountID)
	if err != nil {
		return nil, err
	}
	next.ID = c.ID
	next.Identity = c.Identity
	next.CreatedAt = c.CreatedAt
	return next, nil
}

func (a *Auth) pageCredential(ctx context.Context, userToken, pageID string) (*model.PlatformCredential, error) {
	var long tokenResponse
	err := a.api.Do(ctx, remote.Request{
		Path: "oauth/access_token",
		Query: remote.Values(exchangeParams{
			GrantType:       "fb_exchange_token",
			ClientID:        a.cfg.AppID,
			ClientSecret:    a.cfg.AppSecret,
			FbExchangeToken: userToken,
		}),
	}, &long)
	if err != nil {
		return nil, err
	}
	if long.AccessToken == "" {
		return nil, model.NewError(model.KindRemoteRejection, platform, "token exchange returned no access token", nil)
	}

	var pages pagesResponse
	err = a.api.Do(ctx, remote.Request{
		Path:  "me/accounts",
		Query: remote.Values(tokenParam{AccessToken: long.AccessToken}),
	}, &pages)
	if err != nil {
		return nil, err
	}
	for _, p := range pages.Data {
		if pageID != "" && p.ID != pageID {
			continue
		}
		now := a.now().UTC()
		cred := &model.PlatformCredential{
			Platform:     platform,
			AccessToken:  p.AccessToken,
			RefreshToken: long.AccessToken,
			AccountID:    p.ID,
			AccountName:  p.Name,
			Scopes:       strings.Join(Scopes, ","),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if long.ExpiresIn > 0 {
			cred.ExpiresAt = now.Add(time.Duration(long.ExpiresIn) * time.Second)
		}
		return cred, nil
	}
	if pageID != "" {
		return nil, model.NewError(model.KindReauthRequired, platform, "page "+pageID+" is no longer accessible", nil)
	}
	return nil, model.NewError(model.KindRemoteRejection, platform, "no pages available for this account", nil)
}
