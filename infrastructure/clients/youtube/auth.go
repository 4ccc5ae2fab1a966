package youtube

import (
	"context"
	"strings"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/configuration"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var Scopes = []string{youtube.YoutubeScope, youtube.YoutubeUploadScope, youtube.YoutubeForceSslScope}

// Auth runs the Google OAuth flow for a channel and refreshes its tokens.
type Auth struct {
	oauth    *oauth2.Config
	endpoint string
	now      func() time.Time
}

var _ repository.ITokenRefresher = (*Auth)(nil)

func NewAuth(cfg configuration.YouTube) *Auth {
	return NewAuthWithEndpoint(cfg, google.Endpoint)
}

// NewAuthWithEndpoint uses a custom OAuth endpoint (tests, proxies).
func NewAuthWithEndpoint(cfg configuration.YouTube, ep oauth2.Endpoint) *Auth {
	return &Auth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       Scopes,
			Endpoint:     ep,
		},
		endpoint: cfg.BaseURL,
		now:      time.Now,
	}
}

func (a *Auth) Platform() model.Platform { return platform }

func (a *Auth) configured() error {
	if a.oauth.ClientID == "" || a.oauth.ClientSecret == "" {
		return model.NewError(model.KindConfiguration, platform, "youtube client id/secret are not configured", nil)
	}
	return nil
}

// AuthURL asks for offline access so Google issues a refresh token.
func (a *Auth) AuthURL(state string) (string, error) {
	if err := a.configured(); err != nil {
		return "", err
	}
	return a.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// Exchange trades the authorization code for tokens and resolves the channel they act for.
func (a *Auth) Exchange(ctx context.Context, code string) (*model.PlatformCredential, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, normalize(ctx, err)
	}
	cred := a.toCredential(tok)

	opts := []option.ClientOption{option.WithHTTPClient(a.oauth.Client(ctx, tok))}
	if a.endpoint != "" {
		opts = append(opts, option.WithEndpoint(a.endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, model.NewError(model.KindConfiguration, platform, "failed to create youtube service", err)
	}
	resp, err := svc.Channels.List([]string{"id", "snippet"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return nil, normalize(ctx, err)
	}
	if len(resp.Items) == 0 {
		return nil, model.NewError(model.KindRemoteRejection, platform, "account has no youtube channel", nil)
	}
	cred.AccountID = resp.Items[0].Id
	if resp.Items[0].Snippet != nil {
		cred.AccountName = resp.Items[0].Snippet.Title
	}
	return cred, nil
}

func (a *Auth) Refresh(ctx context.Context, c *model.PlatformCredential) (*model.PlatformCredential, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}
	if c.RefreshToken == "" {
		return nil, model.NewError(model.KindReauthRequired, platform, "no refresh token stored", nil)
	}
	stale := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       a.now().Add(-time.Minute),
	}
	tok, err := a.oauth.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, normalize(ctx, err)
	}
	next := c.Clone()
	fresh := a.toCredential(tok)
	next.AccessToken = fresh.AccessToken
	next.ExpiresAt = fresh.ExpiresAt
	if fresh.RefreshToken != "" {
		next.RefreshToken = fresh.RefreshToken
	}
	next.UpdatedAt = fresh.UpdatedAt
	return next, nil
}

func (a *Auth) toCredential(tok *oauth2.Token) *model.PlatformCredential {
	now := a.now().UTC()
	cred := &model.PlatformCredential{
		Platform:     platform,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry.UTC(),
		Scopes:       strings.Join(Scopes, " "),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if tok.Expiry.IsZero() {
		cred.ExpiresAt = time.Time{}
	}
	return cred
}
