// Package youtube uploads and manages channel videos through the YouTube Data API v3.
package youtube

import (
	"context"
	"net/http"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	platform = model.PlatformYouTube
	maxTitle = 100
	watchURL = "https://www.youtube.com/watch?v="
)

type Client struct {
	tokens     remote.TokenSource
	endpoint   string
	privacy    string
	categoryID string
	media      *http.Client
}

var (
	_ repository.IIntegration        = (*Client)(nil)
	_ repository.ICapabilityReporter = (*Client)(nil)
)

func New(cfg configuration.YouTube, tokens remote.TokenSource, media *http.Client) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, model.NewError(model.KindConfiguration, platform, "youtube client id is not configured", nil)
	}
	if tokens == nil {
		return nil, model.NewError(model.KindConfiguration, platform, "token source is required", nil)
	}
	if media == nil {
		media = &http.Client{Timeout: 10 * time.Minute}
	}
	privacy := cfg.Privacy
	if privacy == "" {
		privacy = "public"
	}
	return &Client{tokens: tokens, endpoint: cfg.BaseURL, privacy: privacy, categoryID: cfg.CategoryID, media: media}, nil
}

func (c *Client) Platform() model.Platform { return platform }

func (c *Client) Capabilities() repository.Capabilities {
	return repository.Capabilities{Update: true, Delete: true}
}

// service builds a Data API client bound to the credential valid right now.
func (c *Client) service(ctx context.Context) (*youtube.Service, *model.PlatformCredential, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, nil, model.WithPlatform(err, platform)
	}
	opts := []option.ClientOption{
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cred.AccessToken,
			TokenType:   "Bearer",
		}))),
	}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, model.NewError(model.KindConfiguration, platform, "failed to create youtube service", err)
	}
	return svc, cred, nil
}

// Title uses the request title or the first line of the body, capped at 100 runes.
func Title(req *model.PublishRequest) string {
	if req.Title != "" {
		return remote.Truncate(req.Title, maxTitle)
	}
	return remote.FirstLine(req.Body, maxTitle)
}

// Description is the body followed by a hashtag line and a mention line.
func Description(req *model.PublishRequest) string {
	return remote.JoinNonEmpty("\n\n", req.Body, remote.Prefixed("#", req.Hashtags), remote.Prefixed("@", req.Mentions))
}

func (c *Client) Publish(ctx context.Context, req *model.PublishRequest) *model.PublishResult {
	if err := req.Validate(false, true); err != nil {
		return model.FailedFrom(model.WithPlatform(err, platform))
	}
	req.Normalize()
	if Title(req) == "" {
		return model.FailedFrom(model.NewError(model.KindValidation, platform, "a title or body is required to name the video", nil))
	}
	svc, cred, err := c.service(ctx)
	if err != nil {
		return model.FailedFrom(err)
	}
	video := req.Videos()[0]
	log := logger.GetLogger().WithField("platform", platform).WithField("channel_id", cred.AccountID)

	body, err := remote.OpenMedia(ctx, c.media, platform, video.URL)
	if err != nil {
		return model.FailedFrom(err)
	}
	defer body.Close()

	insert := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       Title(req),
			Description: Description(req),
			Tags:        req.Hashtags,
			CategoryId:  c.categoryID,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: c.privacy},
	}
	uploaded, err := svc.Videos.Insert([]string{"snippet", "status"}, insert).Media(body).Context(ctx).Do()
	if err != nil {
		return model.FailedFrom(normalize(ctx, err))
	}
	log.WithField("video_id", uploaded.Id).Info("video uploaded")

	if video.Thumbnail != "" {
		c.setThumbnail(ctx, svc, uploaded.Id, video.Thumbnail)
	}
	return model.Published(uploaded.Id, watchURL+uploaded.Id)
}

func (c *Client) setThumbnail(ctx context.Context, svc *youtube.Service, videoID, thumbURL string) {
	log := logger.GetLogger().WithField("video_id", videoID)
	thumb, err := remote.OpenMedia(ctx, c.media, platform, thumbURL)
	if err != nil {
		log.WithField("error", err).Warn("thumbnail fetch failed")
		return
	}
	defer thumb.Close()
	if _, err := svc.Thumbnails.Set(videoID).Media(thumb).Context(ctx).Do(); err != nil {
		log.WithField("error", normalize(ctx, err)).Warn("thumbnail upload failed")
	}
}

func (c *Client) find(ctx context.Context, svc *youtube.Service, videoID string, parts ...string) (*youtube.Video, error) {
	resp, err := svc.Videos.List(parts).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, normalize(ctx, err)
	}
	if len(resp.Items) == 0 {
		return nil, model.NewError(model.KindRemoteRejection, platform, "video not found: "+videoID, nil)
	}
	return resp.Items[0], nil
}

// Update rewrites the snippet of an existing video; the media itself cannot be replaced.
func (c *Client) Update(ctx context.Context, postID string, req *model.PublishRequest) *model.PublishResult {
	if postID == "" {
		return model.Failed(model.KindValidation, "post id is required")
	}
	if err := req.Validate(true, false); err != nil {
		return model.FailedFrom(model.WithPlatform(err, platform))
	}
	req.Normalize()
	svc, _, err := c.service(ctx)
	if err != nil {
		return model.FailedFrom(err)
	}
	existing, err := c.find(ctx, svc, postID, "snippet")
	if err != nil {
		return model.FailedFrom(err)
	}
	existing.Snippet.Title = Title(req)
	existing.Snippet.Description = Description(req)
	existing.Snippet.Tags = req.Hashtags
	if existing.Snippet.CategoryId == "" {
		existing.Snippet.CategoryId = c.categoryID
	}
	updated, err := svc.Videos.Update([]string{"snippet"}, &youtube.Video{Id: postID, Snippet: existing.Snippet}).Context(ctx).Do()
	if err != nil {
		return model.FailedFrom(normalize(ctx, err))
	}
	return model.Published(updated.Id, watchURL+updated.Id)
}

func (c *Client) Delete(ctx context.Context, postID string) (bool, error) {
	if postID == "" {
		return false, model.NewError(model.KindValidation, platform, "post id is required", nil)
	}
	svc, _, err := c.service(ctx)
	if err != nil {
		return false, err
	}
	if err := svc.Videos.Delete(postID).Context(ctx).Do(); err != nil {
		return false, normalize(ctx, err)
	}
	return true, nil
}

func (c *Client) GetMetrics(ctx context.Context, postID string) (*model.Metrics, error) {
	svc, _, err := c.service(ctx)
	if err != nil {
		return nil, err
	}
	v, err := c.find(ctx, svc, postID, "statistics")
	if err != nil {
		return nil, err
	}
	m := &model.Metrics{PostID: postID}
	if s := v.Statistics; s != nil {
		m.Views = int64(s.ViewCount)
		m.Likes = int64(s.LikeCount)
		m.Comments = int64(s.CommentCount)
	}
	return m, nil
}

func (c *Client) VerifyAuth(ctx context.Context) (bool, error) {
	svc, _, err := c.service(ctx)
	if err != nil {
		return false, err
	}
	resp, err := svc.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
	if err != nil {
		return false, normalize(ctx, err)
	}
	return len(resp.Items) > 0, nil
}
