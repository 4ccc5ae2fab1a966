// Package tiktok publishes videos and photo posts through the TikTok Content Posting API.
// Publishing is asynchronous: the returned publish id is polled until TikTok reports a terminal state.
package tiktok

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/logger"
	"social-integration/infrastructure/poller"
)

const (
	platform      = model.PlatformTikTok
	maxCaption    = 2200
	maxPhotos     = 35
	profileURL    = "https://www.tiktok.com/"
	videoMetrics  = "id,view_count,like_count,comment_count,share_count"
	sourceFromURL = "PULL_FROM_URL"
)

type Client struct {
	api     *remote.Client
	tokens  remote.TokenSource
	poll    *poller.Poller
	privacy string
}

var (
	_ repository.IIntegration        = (*Client)(nil)
	_ repository.ICapabilityReporter = (*Client)(nil)
)

func New(cfg configuration.TikTok, tokens remote.TokenSource, poll *poller.Poller, opts ...remote.Option) (*Client, error) {
	if cfg.ClientKey == "" {
		return nil, model.NewError(model.KindConfiguration, platform, "tiktok client key is not configured", nil)
	}
	if tokens == nil || poll == nil {
		return nil, model.NewError(model.KindConfiguration, platform, "token source and poller are required", nil)
	}
	privacy := cfg.PrivacyLevel
	if privacy == "" {
		privacy = "PUBLIC_TO_EVERYONE"
	}
	return &Client{
		api:     remote.NewClient(platform, cfg.BaseURL, decodeError, opts...),
		tokens:  tokens,
		poll:    poll,
		privacy: privacy,
	}, nil
}

func (c *Client) Platform() model.Platform { return platform }

func (c *Client) Capabilities() repository.Capabilities {
	return repository.Capabilities{AsyncPublish: true}
}

// Caption joins title, body, hashtags and mentions with single spaces, capped at 2200 runes.
func Caption(req *model.PublishRequest) string {
	return remote.Truncate(remote.JoinNonEmpty(" ",
		req.Title,
		req.Body,
		remote.Prefixed("#", req.Hashtags),
		remote.Prefixed("@", req.Mentions),
	), maxCaption)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error apiError        `json:"error"`
}

func (c *Client) call(ctx context.Context, cred *model.PlatformCredential, req remote.Request, data any) error {
	req.Header = http.Header{"Authorization": {"Bearer " + cred.AccessToken}}
	var env envelope
	if err := c.api.Do(ctx, req, &env); err != nil {
		return err
	}
	if data == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return model.NewError(model.KindRemoteRejection, platform, "malformed response data", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (*model.PlatformCredential, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, model.WithPlatform(err, platform)
	}
	return cred, nil
}

func (c *Client) Publish(ctx context.Context, req *model.PublishRequest) *model.PublishResult {
	if err := req.Validate(false, false); err != nil {
		return model.FailedFrom(model.WithPlatform(err, platform))
	}
	if len(req.Media) == 0 {
		return model.FailedFrom(model.NewError(model.KindValidation, platform, "tiktok posts require a video or photos", nil))
	}
	req.Normalize()
	cred, err := c.token(ctx)
	if err != nil {
		return model.FailedFrom(err)
	}

	var publishID string
	if videos := req.Videos(); len(videos) > 0 {
		publishID, err = c.initVideo(ctx, cred, req, videos[0])
	} else {
		publishID, err = c.initPhotos(ctx, cred, req, req.Images())
	}
	if err != nil {
		return model.FailedFrom(err)
	}
	logger.GetLogger().WithField("platform", platform).WithField("publish_id", publishID).Info("tiktok publish accepted")

	return c.poll.Await(ctx, poller.Job{
		ID:                publishID,
		Platform:          platform,
		Identity:          cred.Identity,
		Permalink:         func(id string) string { return permalink(cred.AccountName, id) },
		FallbackPermalink: profile(cred.AccountName),
	}, func(ctx context.Context) (*poller.Status, error) {
		return c.status(ctx, publishID)
	})
}

func (c *Client) initVideo(ctx context.Context, cred *model.PlatformCredential, req *model.PublishRequest, v model.MediaItem) (string, error) {
	body := map[string]any{
		"post_info": map[string]any{
			"title":           Caption(req),
			"privacy_level":   c.privacy,
			"disable_comment": false,
		},
		"source_info": map[string]any{
			"source":    sourceFromURL,
			"video_url": v.URL,
		},
	}
	return c.initPublish(ctx, cred, "/v2/post/publish/video/init/", body)
}

func (c *Client) initPhotos(ctx context.Context, cred *model.PlatformCredential, req *model.PublishRequest, images []model.MediaItem) (string, error) {
	if len(images) > maxPhotos {
		return "", model.NewError(model.KindValidation, platform, "tiktok photo posts accept at most 35 images", nil)
	}
	urls := make([]string, len(images))
	for i, img := range images {
		urls[i] = img.URL
	}
	title := req.Title
	if title == "" {
		title = remote.FirstLine(req.Body, 90)
	}
	body := map[string]any{
		"post_info": map[string]any{
			"title":         remote.Truncate(title, 90),
			"description":   Caption(req),
			"privacy_level": c.privacy,
		},
		"source_info": map[string]any{
			"source":            sourceFromURL,
			"photo_images":      urls,
			"photo_cover_index": 0,
		},
		"post_mode":  "DIRECT_POST",
		"media_type": "PHOTO",
	}
	return c.initPublish(ctx, cred, "/v2/post/publish/content/init/", body)
}

func (c *Client) initPublish(ctx context.Context, cred *model.PlatformCredential, path string, body any) (string, error) {
	var data struct {
		PublishID string `json:"publish_id"`
	}
	if err := c.call(ctx, cred, remote.Request{Method: http.MethodPost, Path: path, JSON: body}, &data); err != nil {
		return "", err
	}
	if data.PublishID == "" {
		return "", model.NewError(model.KindRemoteRejection, platform, "tiktok returned no publish id", nil)
	}
	return data.PublishID, nil
}

type statusData struct {
	Status     string        `json:"status"`
	FailReason string        `json:"fail_reason"`
	PostIDs    []json.Number `json:"publicaly_available_post_id"`
}

func (c *Client) status(ctx context.Context, publishID string) (*poller.Status, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var data statusData
	err = c.call(ctx, cred, remote.Request{
		Method: http.MethodPost,
		Path:   "/v2/post/publish/status/fetch/",
		JSON:   map[string]string{"publish_id": publishID},
	}, &data)
	if err != nil {
		return nil, err
	}
	return toStatus(data), nil
}

func toStatus(d statusData) *poller.Status {
	switch {
	case d.Status == "PUBLISH_COMPLETE":
		st := &poller.Status{State: model.JobComplete}
		if len(d.PostIDs) > 0 {
			st.PostID = d.PostIDs[0].String()
		}
		return st
	case d.Status == "FAILED":
		return &poller.Status{State: model.JobFailed, Reason: d.FailReason}
	case d.Status == "SEND_TO_USER_INBOX":
		return &poller.Status{State: model.JobScheduled}
	case strings.HasPrefix(d.Status, "PROCESSING"):
		return &poller.Status{State: model.JobProcessing}
	}
	return &poller.Status{State: model.JobSubmitted}
}

func permalink(username, postID string) string {
	if username == "" {
		return profileURL + "video/" + postID
	}
	return profileURL + "@" + username + "/video/" + postID
}

func profile(username string) string {
	if username == "" {
		return profileURL
	}
	return profileURL + "@" + username
}

func (c *Client) Update(context.Context, string, *model.PublishRequest) *model.PublishResult {
	return model.Unsupported()
}

func (c *Client) Delete(context.Context, string) (bool, error) {
	return false, model.NewError(model.KindUnsupportedOperation, platform, model.NotSupportedMessage, nil)
}

func (c *Client) GetMetrics(ctx context.Context, postID string) (*model.Metrics, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var data struct {
		Videos []struct {
			ID           string `json:"id"`
			ViewCount    int64  `json:"view_count"`
			LikeCount    int64  `json:"like_count"`
			CommentCount int64  `json:"comment_count"`
			ShareCount   int64  `json:"share_count"`
		} `json:"videos"`
	}
	err = c.call(ctx, cred, remote.Request{
		Method: http.MethodPost,
		Path:   "/v2/video/query/",
		Query:  map[string][]string{"fields": {videoMetrics}},
		JSON:   map[string]any{"filters": map[string]any{"video_ids": []string{postID}}},
	}, &data)
	if err != nil {
		return nil, err
	}
	m := &model.Metrics{PostID: postID}
	if len(data.Videos) > 0 {
		v := data.Videos[0]
		m.Views, m.Likes, m.Comments, m.Shares = v.ViewCount, v.LikeCount, v.CommentCount, v.ShareCount
	}
	return m, nil
}

func (c *Client) VerifyAuth(ctx context.Context) (bool, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return false, err
	}
	var data struct {
		User struct {
			OpenID string `json:"open_id"`
		} `json:"user"`
	}
	err = c.call(ctx, cred, remote.Request{Path: "/v2/user/info/", Query: map[string][]string{"fields": {"open_id"}}}, &data)
	if err != nil {
		return false, err
	}
	return data.User.OpenID != "", nil
}
