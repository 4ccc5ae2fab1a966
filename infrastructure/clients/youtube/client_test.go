package youtube_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/clients/youtube"
	"social-integration/infrastructure/configuration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var ytCred = &model.PlatformCredential{Platform: model.PlatformYouTube, AccessToken: "yt-token", AccountID: "UC1"}

type fakeYouTube struct {
	uploads  int32
	updated  string
	deleted  string
	insertTy string
}

func (f *fakeYouTube) start(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/media/clip.mp4" {
			_, _ = w.Write([]byte("fake-video-bytes"))
			return
		}
		if r.URL.Path == "/media/missing.mp4" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "Bearer yt-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/videos") && r.Method == http.MethodPost:
			atomic.AddInt32(&f.uploads, 1)
			body, _ := io.ReadAll(r.Body)
			assert.Contains(t, string(body), "fake-video-bytes")
			assert.Contains(t, string(body), `"title":"Launch day"`)
			_, _ = w.Write([]byte(`{"id":"vid1"}`))
		case strings.HasSuffix(r.URL.Path, "/videos") && r.Method == http.MethodGet:
			if r.URL.Query().Get("id") == "gone" {
				_, _ = w.Write([]byte(`{"items":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"items":[{"id":"vid1","snippet":{"title":"old","categoryId":"22"},"statistics":{"viewCount":"120","likeCount":"9","commentCount":"4"}}]}`))
		case strings.HasSuffix(r.URL.Path, "/videos") && r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.updated = string(body)
			_, _ = w.Write([]byte(`{"id":"vid1"}`))
		case strings.HasSuffix(r.URL.Path, "/videos") && r.Method == http.MethodDelete:
			f.deleted = r.URL.Query().Get("id")
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/channels"):
			_, _ = w.Write([]byte(`{"items":[{"id":"UC1","snippet":{"title":"My Channel"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server, cred *model.PlatformCredential) *youtube.Client {
	c, err := youtube.New(configuration.YouTube{ClientID: "cid", BaseURL: srv.URL + "/", CategoryID: "22"}, remote.StaticToken(cred), srv.Client())
	require.NoError(t, err)
	return c
}

func TestTitleAndDescription(t *testing.T) {
	req := &model.PublishRequest{Body: strings.Repeat("x", 120) + "\nmore", Hashtags: []string{"a", "b"}, Mentions: []string{"c"}}
	assert.Len(t, []rune(youtube.Title(req)), 100)
	assert.Equal(t, req.Body+"\n\n#a #b\n\n@c", youtube.Description(req))
}

func TestPublish_UploadsFirstVideo(t *testing.T) {
	f := &fakeYouTube{}
	srv := f.start(t)

	res := newClient(t, srv, ytCred).Publish(context.Background(), &model.PublishRequest{
		Title: "Launch day",
		Media: []model.MediaItem{{Type: model.MediaVideo, URL: srv.URL + "/media/clip.mp4"}},
	})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "vid1", res.PostID)
	assert.Equal(t, "https://www.youtube.com/watch?v=vid1", res.Permalink)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.uploads))
}

func TestPublish_RequiresVideoWithoutCalls(t *testing.T) {
	f := &fakeYouTube{}
	srv := f.start(t)

	res := newClient(t, srv, ytCred).Publish(context.Background(), &model.PublishRequest{
		Title: "pics",
		Media: []model.MediaItem{{Type: model.MediaImage, URL: srv.URL + "/media/a.jpg"}},
	})

	assert.Equal(t, model.KindValidation, res.Kind)
	assert.Zero(t, atomic.LoadInt32(&f.uploads))
}

func TestPublish_UnreachableMediaIsValidation(t *testing.T) {
	f := &fakeYouTube{}
	srv := f.start(t)

	res := newClient(t, srv, ytCred).Publish(context.Background(), &model.PublishRequest{
		Title: "Launch day",
		Media: []model.MediaItem{{Type: model.MediaVideo, URL: srv.URL + "/media/missing.mp4"}},
	})

	assert.Equal(t, model.KindValidation, res.Kind)
}

func TestPublish_RevokedTokenNeedsReconnect(t *testing.T) {
	srv := (&fakeYouTube{}).start(t)
	revoked := ytCred.Clone()
	revoked.AccessToken = "revoked"

	res := newClient(t, srv, revoked).Publish(context.Background(), &model.PublishRequest{
		Title: "Launch day",
		Media: []model.MediaItem{{Type: model.MediaVideo, URL: srv.URL + "/media/clip.mp4"}},
	})

	assert.Equal(t, model.OutcomeNeedsReconnect, res.Outcome())
	assert.Equal(t, "Invalid Credentials", res.Error)
}

func TestUpdate_RewritesSnippet(t *testing.T) {
	f := &fakeYouTube{}
	srv := f.start(t)

	res := newClient(t, srv, ytCred).Update(context.Background(), "vid1", &model.PublishRequest{Title: "New name", Hashtags: []string{"go"}})

	require.True(t, res.Success, res.Error)
	assert.Contains(t, f.updated, `"title":"New name"`)
	assert.Contains(t, f.updated, `"tags":["go"]`)
}

func TestUpdate_MissingVideo(t *testing.T) {
	srv := (&fakeYouTube{}).start(t)

	res := newClient(t, srv, ytCred).Update(context.Background(), "gone", &model.PublishRequest{Title: "x"})

	assert.Equal(t, model.KindRemoteRejection, res.Kind)
}

func TestDeleteMetricsVerify(t *testing.T) {
	f := &fakeYouTube{}
	srv := f.start(t)
	c := newClient(t, srv, ytCred)

	ok, err := c.Delete(context.Background(), "vid1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "vid1", f.deleted)

	m, err := c.GetMetrics(context.Background(), "vid1")
	require.NoError(t, err)
	assert.Equal(t, &model.Metrics{PostID: "vid1", Views: 120, Likes: 9, Comments: 4}, m)

	verified, err := c.VerifyAuth(context.Background())
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestAuth_Refresh(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("refresh_token") == "revoked" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"yt-token-2","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer srv.Close()
	cfg := configuration.YouTube{ClientID: "cid", ClientSecret: "secret"}
	a := youtube.NewAuthWithEndpoint(cfg, oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams})

	next, err := a.Refresh(context.Background(), &model.PlatformCredential{ID: 4, AccessToken: "yt-token", RefreshToken: "rt", AccountID: "UC1"})
	require.NoError(t, err)
	assert.Equal(t, "yt-token-2", next.AccessToken)
	assert.Equal(t, "rt", next.RefreshToken)
	assert.Equal(t, "UC1", next.AccountID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next.ExpiresAt, time.Minute)

	_, err = a.Refresh(context.Background(), &model.PlatformCredential{AccessToken: "yt-token", RefreshToken: "revoked"})
	assert.True(t, errors.Is(err, model.ErrReauthRequired))

	_, err = a.Refresh(context.Background(), &model.PlatformCredential{AccessToken: "yt-token"})
	assert.True(t, errors.Is(err, model.ErrReauthRequired))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAuth_AuthURLRequiresConfig(t *testing.T) {
	_, err := youtube.NewAuth(configuration.YouTube{}).AuthURL("s")
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	raw, err := youtube.NewAuth(configuration.YouTube{ClientID: "cid", ClientSecret: "sec", RedirectURI: "https://crm/cb"}).AuthURL("s1")
	require.NoError(t, err)
	assert.Contains(t, raw, "access_type=offline")
	assert.Contains(t, raw, "state=s1")
}
