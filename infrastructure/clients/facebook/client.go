// Package facebook publishes to a Facebook Page and talks to its Messenger inbox through the Graph API.
package facebook

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/logger"
)

const (
	platform        = model.PlatformFacebook
	permalinkBase   = "https://www.facebook.com/"
	graphTimeLayout = "2006-01-02T15:04:05-0700"
)

type Client struct {
	api    *remote.Client
	tokens remote.TokenSource
}

var (
	_ repository.IIntegration        = (*Client)(nil)
	_ repository.ICapabilityReporter = (*Client)(nil)
	_ repository.IMessageSender      = (*Client)(nil)
	_ repository.IAttachmentSender   = (*Client)(nil)
	_ repository.IHistoryFetcher     = (*Client)(nil)
	_ repository.ITypingIndicator    = (*Client)(nil)
	_ repository.IReadMarker         = (*Client)(nil)
)

// New builds a Page client. tokens must yield a page access token with the page id as AccountID.
func New(cfg configuration.Facebook, tokens remote.TokenSource, opts ...remote.Option) (*Client, error) {
	if cfg.AppID == "" {
		return nil, model.NewError(model.KindConfiguration, platform, "facebook app id is not configured", nil)
	}
	if tokens == nil {
		return nil, model.NewError(model.KindConfiguration, platform, "token source is required", nil)
	}
	return &Client{api: remote.NewClient(platform, graphURL(cfg), decodeError, opts...), tokens: tokens}, nil
}

func graphURL(cfg configuration.Facebook) string {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.GraphVersion == "" {
		return base
	}
	return base + "/" + cfg.GraphVersion
}

func (c *Client) Platform() model.Platform { return platform }

func (c *Client) Capabilities() repository.Capabilities {
	return repository.Capabilities{Update: true, Delete: true}
}

// Caption orders the post text as title, body, hashtags, mentions separated by blank lines.
func Caption(req *model.PublishRequest) string {
	return remote.JoinNonEmpty("\n\n",
		req.Title,
		req.Body,
		remote.Prefixed("#", req.Hashtags),
		remote.Prefixed("@", req.Mentions),
	)
}

func (c *Client) page(ctx context.Context) (*model.PlatformCredential, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, model.WithPlatform(err, platform)
	}
	if cred.AccountID == "" {
		return nil, model.NewError(model.KindConfiguration, platform, "no page selected for this connection", nil)
	}
	return cred, nil
}

func (c *Client) Publish(ctx context.Context, req *model.PublishRequest) *model.PublishResult {
	if err := req.Validate(true, false); err != nil {
		return model.FailedFrom(model.WithPlatform(err, platform))
	}
	req.Normalize()
	cred, err := c.page(ctx)
	if err != nil {
		return model.FailedFrom(err)
	}
	log := logger.GetLogger().WithField("platform", platform).WithField("page_id", cred.AccountID)

	caption := Caption(req)
	images, videos := req.Images(), req.Videos()
	var res *model.PublishResult
	switch {
	case len(videos) > 0:
		if len(videos) > 1 || len(images) > 0 {
			log.Warn("page video posts carry a single video; extra media ignored")
		}
		res = c.publishVideo(ctx, cred, req.Title, caption, videos[0])
	case len(images) == 1:
		res = c.publishPhoto(ctx, cred, caption, images[0])
	case len(images) > 1:
		res = c.publishCarousel(ctx, cred, caption, images)
	default:
		res = c.publishText(ctx, cred, caption)
	}
	if res.Success {
		log.WithField("post_id", res.PostID).Info("published to page")
	} else {
		log.WithField("error", res.Error).Warn("page publish failed")
	}
	return res
}

func (c *Client) publishText(ctx context.Context, cred *model.PlatformCredential, caption string) *model.PublishResult {
	var out idResponse
	err := c.api.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   cred.AccountID + "/feed",
		Form:   remote.Values(feedParams{Message: caption, AccessToken: cred.AccessToken}),
	}, &out)
	if err != nil {
		return model.FailedFrom(err)
	}
	return postResult(out.ID)
}

func (c *Client) publishPhoto(ctx context.Context, cred *model.PlatformCredential, caption string, img model.MediaItem) *model.PublishResult {
	var out idResponse
	err := c.api.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   cred.AccountID + "/photos",
		Form:   remote.Values(photoParams{URL: img.URL, Caption: caption, AccessToken: cred.AccessToken}),
	}, &out)
	if err != nil {
		return model.FailedFrom(err)
	}
	if out.PostID != "" {
		return postResult(out.PostID)
	}
	return postResult(out.ID)
}

func (c *Client) publishVideo(ctx context.Context, cred *model.PlatformCredential, title, caption string, v model.MediaItem) *model.PublishResult {
	var out idResponse
	err := c.api.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   cred.AccountID + "/videos",
		Form: remote.Values(videoParams{
			FileURL:     v.URL,
			Description: caption,
			Title:       title,
			Thumb:       v.Thumbnail,
			AccessToken: cred.AccessToken,
		}),
	}, &out)
	if err != nil {
		return model.FailedFrom(err)
	}
	if out.ID == "" {
		return model.Failed(model.KindRemoteRejection, "graph returned no video id")
	}
	return model.Published(out.ID, fmt.Sprintf("%s%s/videos/%s", permalinkBase, cred.AccountID, out.ID))
}

// publishCarousel uploads every image unpublished and attaches them to a single feed post.
// When the feed post fails the uploaded photos are removed best effort.
func (c *Client) publishCarousel(ctx context.Context, cred *model.PlatformCredential, caption string, images []model.MediaItem) *model.PublishResult {
	unpublished := false
	photoIDs := make([]string, 0, len(images))
	for _, img := range images {
		var out idResponse
		err := c.api.Do(ctx, remote.Request{
			Method: http.MethodPost,
			Path:   cred.AccountID + "/photos",
			Form:   remote.Values(photoParams{URL: img.URL, Published: &unpublished, AccessToken: cred.AccessToken}),
		}, &out)
		if err != nil {
			c.cleanup(ctx, cred, photoIDs)
			return model.FailedFrom(err)
		}
		photoIDs = append(photoIDs, out.ID)
	}

	form := remote.Values(feedParams{Message: caption, AccessToken: cred.AccessToken})
	for i, id := range photoIDs {
		form.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":%q}`, id))
	}
	var out idResponse
	if err := c.api.Do(ctx, remote.Request{Method: http.MethodPost, Path: cred.AccountID + "/feed", Form: form}, &out); err != nil {
		c.cleanup(ctx, cred, photoIDs)
		return model.FailedFrom(err)
	}
	return postResult(out.ID)
}

func (c *Client) cleanup(ctx context.Context, cred *model.PlatformCredential, photoIDs []string) {
	for _, id := range photoIDs {
		err := c.api.Do(context.WithoutCancel(ctx), remote.Request{
			Method: http.MethodDelete,
			Path:   id,
			Query:  remote.Values(tokenParam{AccessToken: cred.AccessToken}),
		}, nil)
		if err != nil {
			logger.GetLogger().WithField("photo_id", id).WithField("error", err).Warn("failed to remove orphan photo")
		}
	}
}

func postResult(postID string) *model.PublishResult {
	if postID == "" {
		return model.Failed(model.KindRemoteRejection, "graph returned no post id")
	}
	return model.Published(postID, permalinkBase+postID)
}

func (c *Client) Update(ctx context.Context, postID string, req *model.PublishRequest) *model.PublishResult {
	if postID == "" {
		return model.Failed(model.KindValidation, "post id is required")
	}
	if err := req.Validate(true, false); err != nil {
		return model.FailedFrom(model.WithPlatform(err, platform))
	}
	req.Normalize()
	cred, err := c.page(ctx)
	if err != nil {
		return model.FailedFrom(err)
	}
	var out successResponse
	err = c.api.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   postID,
		Form:   remote.Values(feedParams{Message: Caption(req), AccessToken: cred.AccessToken}),
	}, &out)
	if err != nil {
		return model.FailedFrom(err)
	}
	if !out.Success {
		return model.Failed(model.KindRemoteRejection, "graph did not confirm the update")
	}
	return model.Published(postID, permalinkBase+postID)
}

func (c *Client) Delete(ctx context.Context, postID string) (bool, error) {
	if postID == "" {
		return false, model.NewError(model.KindValidation, platform, "post id is required", nil)
	}
	cred, err := c.page(ctx)
	if err != nil {
		return false, err
	}
	var out successResponse
	err = c.api.Do(ctx, remote.Request{
		Method: http.MethodDelete,
		Path:   postID,
		Query:  remote.Values(tokenParam{AccessToken: cred.AccessToken}),
	}, &out)
	if err != nil {
		return false, err
	}
	return out.Success, nil
}

// GetMetrics combines engagement counters with page insights; insights are optional.
func (c *Client) GetMetrics(ctx context.Context, postID string) (*model.Metrics, error) {
	cred, err := c.page(ctx)
	if err != nil {
		return nil, err
	}
	var eng engagementResponse
	err = c.api.Do(ctx, remote.Request{
		Path: postID,
		Query: remote.Values(fieldsParams{
			Fields:      "shares,likes.summary(true).limit(0),comments.summary(true).limit(0)",
			AccessToken: cred.AccessToken,
		}),
	}, &eng)
	if err != nil {
		return nil, err
	}
	m := &model.Metrics{
		PostID:   postID,
		Likes:    eng.Likes.Summary.TotalCount,
		Comments: eng.Comments.Summary.TotalCount,
		Shares:   eng.Shares.Count,
	}

	var ins insightsResponse
	err = c.api.Do(ctx, remote.Request{
		Path:  postID + "/insights",
		Query: remote.Values(fieldsParams{Metric: "post_impressions,post_impressions_unique", AccessToken: cred.AccessToken}),
	}, &ins)
	if err != nil {
		logger.GetLogger().WithField("post_id", postID).WithField("error", err).Debug("post insights unavailable")
		return m, nil
	}
	for _, d := range ins.Data {
		if len(d.Values) == 0 {
			continue
		}
		switch d.Name {
		case "post_impressions":
			m.Impressions = d.Values[0].Value
		case "post_impressions_unique":
			m.Reach = d.Values[0].Value
		}
	}
	return m, nil
}

func (c *Client) VerifyAuth(ctx context.Context) (bool, error) {
	cred, err := c.page(ctx)
	if err != nil {
		return false, err
	}
	var out idResponse
	err = c.api.Do(ctx, remote.Request{
		Path:  "me",
		Query: remote.Values(fieldsParams{Fields: "id", AccessToken: cred.AccessToken}),
	}, &out)
	if err != nil {
		return false, err
	}
	return out.ID != "", nil
}

func (c *Client) SendMessage(ctx context.Context, recipientID, text string) (*model.MessageResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewError(model.KindValidation, platform, "message text is required", nil)
	}
	return c.send(ctx, sendRequest{
		Recipient:     sendRecipient{ID: recipientID},
		MessagingType: "RESPONSE",
		Message:       &sendMessage{Text: text},
	})
}

// SendMessageWithAttachments sends the text first, then one message per attachment.
// The result is the last message delivered.
func (c *Client) SendMessageWithAttachments(ctx context.Context, recipientID, text string, attachments []model.Attachment) (*model.MessageResult, error) {
	kinds := make([]string, len(attachments))
	for i, a := range attachments {
		kind, err := remote.AttachmentKind(platform, a.Type)
		if err != nil {
			return nil, err
		}
		kinds[i] = kind
	}

	var last *model.MessageResult
	if strings.TrimSpace(text) != "" {
		res, err := c.SendMessage(ctx, recipientID, text)
		if err != nil {
			return nil, err
		}
		last = res
	}
	for i, a := range attachments {
		res, err := c.send(ctx, sendRequest{
			Recipient:     sendRecipient{ID: recipientID},
			MessagingType: "RESPONSE",
			Message: &sendMessage{Attachment: &sendAttachment{
				Type:    kinds[i],
				Payload: sendPayload{URL: a.URL, IsReusable: true},
			}},
		})
		if err != nil {
			return last, err
		}
		last = res
	}
	if last == nil {
		return nil, model.NewError(model.KindValidation, platform, "nothing to send", nil)
	}
	return last, nil
}

func (c *Client) send(ctx context.Context, body sendRequest) (*model.MessageResult, error) {
	cred, err := c.page(ctx)
	if err != nil {
		return nil, err
	}
	var out sendResponse
	err = c.api.Do(ctx, remote.Request{
		Method: http.MethodPost,
		Path:   "me/messages",
		Query:  remote.Values(tokenParam{AccessToken: cred.AccessToken}),
		JSON:   body,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &model.MessageResult{MessageID: out.MessageID, RecipientID: out.RecipientID}, nil
}

func (c *Client) SendTypingIndicator(ctx context.Context, recipientID string, on bool) error {
	action := "typing_off"
	if on {
		action = "typing_on"
	}
	_, err := c.send(ctx, sendRequest{Recipient: sendRecipient{ID: recipientID}, SenderAction: action})
	return err
}

func (c *Client) MarkAsRead(ctx context.Context, recipientID string) error {
	_, err := c.send(ctx, sendRequest{Recipient: sendRecipient{ID: recipientID}, SenderAction: "mark_seen"})
	return err
}

// FetchHistory returns the newest messages of the page's conversation with participantID.
func (c *Client) FetchHistory(ctx context.Context, participantID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	cred, err := c.page(ctx)
	if err != nil {
		return nil, err
	}
	var out conversationsResponse
	err = c.api.Do(ctx, remote.Request{
		Path: cred.AccountID + "/conversations",
		Query: remote.Values(fieldsParams{
			Fields:      fmt.Sprintf("messages.limit(%d){id,message,from,created_time}", limit),
			UserID:      participantID,
			Platform:    "messenger",
			AccessToken: cred.AccessToken,
		}),
	}, &out)
	if err != nil {
		return nil, err
	}
	msgs := []model.Message{}
	for _, conv := range out.Data {
		for _, m := range conv.Messages.Data {
			sentAt, _ := time.Parse(graphTimeLayout, m.CreatedTime)
			msgs = append(msgs, model.Message{
				ID:       m.ID,
				SenderID: m.From.ID,
				Text:     m.Message,
				SentAt:   sentAt,
				FromPage: m.From.ID == cred.AccountID,
			})
		}
	}
	return msgs, nil
}
