package facebook_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/clients/facebook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RefreshReselectsPage(t *testing.T) {
	g := newGraph(t, map[string]http.HandlerFunc{
		"GET /v19.0/oauth/access_token": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "fb_exchange_token", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "user-long", r.URL.Query().Get("fb_exchange_token"))
			jsonReply(`{"access_token":"user-long-2","expires_in":5184000}`)(w, r)
		},
		"GET /v19.0/me/accounts": jsonReply(`{"data":[{"id":"other","name":"Other","access_token":"x"},{"id":"page1","name":"Shop","access_token":"page-token-2"}]}`),
	})
	a := facebook.NewAuth(cfgFor(g.URL))

	next, err := a.Refresh(context.Background(), &model.PlatformCredential{
		ID: 7, Identity: "u1", Platform: model.PlatformFacebook,
		AccessToken: "page-token", RefreshToken: "user-long", AccountID: "page1",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), next.ID)
	assert.Equal(t, model.Identity("u1"), next.Identity)
	assert.Equal(t, "page-token-2", next.AccessToken)
	assert.Equal(t, "user-long-2", next.RefreshToken)
	assert.Equal(t, "Shop", next.AccountName)
	assert.WithinDuration(t, time.Now().Add(60*24*time.Hour), next.ExpiresAt, time.Minute)
}

func TestAuth_RefreshWithoutRefreshToken(t *testing.T) {
	a := facebook.NewAuth(cfgFor("http://unused"))

	_, err := a.Refresh(context.Background(), &model.PlatformCredential{AccessToken: "x", AccountID: "page1"})

	assert.True(t, errors.Is(err, model.ErrReauthRequired))
}

func TestAuth_RefreshPageGone(t *testing.T) {
	g := newGraph(t, map[string]http.HandlerFunc{
		"GET /v19.0/oauth/access_token": jsonReply(`{"access_token":"user-long-2"}`),
		"GET /v19.0/me/accounts":        jsonReply(`{"data":[]}`),
	})

	_, err := facebook.NewAuth(cfgFor(g.URL)).Refresh(context.Background(), &model.PlatformCredential{RefreshToken: "r", AccountID: "page1"})

	assert.True(t, errors.Is(err, model.ErrReauthRequired))
}

func TestAuth_ExchangeSelectsFirstPage(t *testing.T) {
	g := newGraph(t, map[string]http.HandlerFunc{
		"GET /v19.0/oauth/access_token": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("code") != "" {
				jsonReply(`{"access_token":"short"}`)(w, r)
				return
			}
			jsonReply(`{"access_token":"long","expires_in":100}`)(w, r)
		},
		"GET /v19.0/me/accounts": jsonReply(`{"data":[{"id":"p9","name":"Nine","access_token":"pt9"}]}`),
	})

	cred, err := facebook.NewAuth(cfgFor(g.URL)).Exchange(context.Background(), "code-1", "")

	require.NoError(t, err)
	assert.Equal(t, "p9", cred.AccountID)
	assert.Equal(t, "pt9", cred.AccessToken)
	assert.Equal(t, "long", cred.RefreshToken)
}

func TestAuth_AuthURL(t *testing.T) {
	cfg := cfgFor("http://unused")
	cfg.RedirectURI = "https://crm.example.com/cb"

	raw, err := facebook.NewAuth(cfg).AuthURL("st8")

	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/v19.0/dialog/oauth", u.Path)
	assert.Equal(t, "st8", u.Query().Get("state"))
	assert.Contains(t, u.Query().Get("scope"), "pages_manage_posts")
}
