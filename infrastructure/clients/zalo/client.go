// Package zalo publishes articles and exchanges messages through the Zalo Official Account API.
// Articles are created asynchronously: the create call yields a token that is verified until an id appears.
package zalo

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/infrastructure/clients/remote"
	"social-integration/infrastructure/configuration"
	"social-integration/infrastructure/logger"
	"social-integration/infrastructure/poller"
)

const (
	platform = model.PlatformZalo
	oaPage   = "https://zalo.me/"
)

type Client struct {
	api    *remote.Client
	tokens remote.TokenSource
	poll   *poller.Poller
	author string
}

var (
	_ repository.IIntegration        = (*Client)(nil)
	_ repository.ICapabilityReporter = (*Client)(nil)
	_ repository.IMessageSender      = (*Client)(nil)
	_ repository.IAttachmentSender   = (*Client)(nil)
	_ repository.IHistoryFetcher     = (*Client)(nil)
)

func New(cfg configuration.Zalo, tokens remote.TokenSource, poll *poller.Poller, opts ...remote.Option) (*Client, error) {
	if cfg.AppID == "" {
		return nil, model.NewError(model.KindConfiguration, platform, "zalo app id is not configured", nil)
	}
	if tokens == nil || poll == nil {
		return nil, model.NewError(model.KindConfiguration, platform, "token source and poller are required", nil)
	}
	return &Client{
		api:    remote.NewClient(platform, cfg.BaseURL, decodeError, opts...),
		tokens: tokens,
		poll:   poll,
		author: cfg.Author,
	}, nil
}

func (c *Client) Platform() model.Platform { return platform }

func (c *Client) Capabilities() repository.Capabilities {
	return repository.Capabilities{Update: true, Delete: true, AsyncPublish: true}
}

func (c *Client) token(ctx context.Context) (*model.PlatformCredential, error) {
	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, model.WithPlatform(err, platform)
	}
	return cred, nil
}

func (c *Client) call(ctx context.Context, cred *model.PlatformCredential, req remote.Request, data any) error {
	req.Header = http.Header{"access_token": {cred.AccessToken}}
	var env envelope
	if err := c.api.Do(ctx, req, &env); err != nil {
		return err
	}
	if data == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return model.NewError(model.KindRemoteRejection, platform, "malformed response data", err)
	}
	return nil
}

func (c *Client) Publish(ctx context.Context, req *model.PublishRequest) *model.PublishResult {
	return c.submit(ctx, "/v2.0/article/create", "", req)
}

func (c *Client) Update(ctx context.Context, postID string, req *model.PublishRequest) *model.PublishResult {
	if postID == "" {
		return model.Failed(model.KindValidation, "post id is required")
	}
	return c.submit(ctx, "/v2.0/article/update", postID, req)
}

// submit sends an article create/update and waits for Zalo to assign the article id.
func (c *Client) submit(ctx context.Context, path, articleID string, req *model.PublishRequest) *model.PublishResult {
	if err := req.Validate(true, false); err != nil {
		return model.FailedFrom(model.WithPlatform(err, platform))
	}
	req.Normalize()
	cred, err := c.token(ctx)
	if err != nil {
		return model.FailedFrom(err)
	}
	log := logger.GetLogger().WithField("platform", platform).WithField("oa_id", cred.AccountID)
	if len(req.Videos()) > 0 {
		log.Warn("zalo articles carry images only; video items ignored")
	}

	a := buildArticle(req, c.author)
	a.ID = articleID
	var data struct {
		Token string `json:"token"`
	}
	if err := c.call(ctx, cred, remote.Request{Method: http.MethodPost, Path: path, JSON: a}, &data); err != nil {
		return model.FailedFrom(err)
	}
	if data.Token == "" {
		return model.Failed(model.KindRemoteRejection, "zalo returned no article token")
	}
	log.WithField("token", data.Token).Info("zalo article accepted")

	return c.poll.Await(ctx, poller.Job{
		ID:                data.Token,
		Platform:          platform,
		Identity:          cred.Identity,
		FallbackPermalink: oaPage + cred.AccountID,
	}, func(ctx context.Context) (*poller.Status, error) {
		return c.verify(ctx, data.Token)
	})
}

func (c *Client) verify(ctx context.Context, token string) (*poller.Status, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var data struct {
		ID string `json:"id"`
	}
	err = c.call(ctx, cred, remote.Request{
		Method: http.MethodPost,
		Path:   "/v2.0/article/verify",
		JSON:   map[string]string{"token": token},
	}, &data)
	switch {
	case model.KindOf(err) == model.KindRemoteRejection:
		var ie *model.IntegrationError
		model.AsIntegrationError(err, &ie)
		return &poller.Status{State: model.JobFailed, Reason: ie.Message}, nil
	case err != nil:
		return nil, err
	case data.ID == "":
		return &poller.Status{State: model.JobProcessing}, nil
	}
	st := &poller.Status{State: model.JobComplete, PostID: data.ID}
	if d, err := c.detail(ctx, cred, data.ID); err == nil {
		st.Permalink = d.Link
	}
	return st, nil
}

type articleDetail struct {
	ID         string `json:"id"`
	Link       string `json:"link"`
	TotalView  int64  `json:"total_view"`
	TotalShare int64  `json:"total_share"`
}

func (c *Client) detail(ctx context.Context, cred *model.PlatformCredential, id string) (*articleDetail, error) {
	var d articleDetail
	err := c.call(ctx, cred, remote.Request{Path: "/v2.0/article/getdetail", Query: map[string][]string{"id": {id}}}, &d)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) Delete(ctx context.Context, postID string) (bool, error) {
	if postID == "" {
		return false, model.NewError(model.KindValidation, platform, "post id is required", nil)
	}
	cred, err := c.token(ctx)
	if err != nil {
		return false, err
	}
	err = c.call(ctx, cred, remote.Request{
		Method: http.MethodPost,
		Path:   "/v2.0/article/remove",
		JSON:   map[string]string{"id": postID},
	}, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) GetMetrics(ctx context.Context, postID string) (*model.Metrics, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	d, err := c.detail(ctx, cred, postID)
	if err != nil {
		return nil, err
	}
	return &model.Metrics{PostID: postID, Views: d.TotalView, Shares: d.TotalShare}, nil
}

func (c *Client) VerifyAuth(ctx context.Context) (bool, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return false, err
	}
	var data struct {
		OAID string `json:"oa_id"`
		Name string `json:"name"`
	}
	if err := c.call(ctx, cred, remote.Request{Path: "/v2.0/oa/getoa"}, &data); err != nil {
		return false, err
	}
	return data.OAID != "", nil
}

type mediaElement struct {
	MediaType string `json:"media_type"`
	URL       string `json:"url"`
}

type messageAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		TemplateType string         `json:"template_type"`
		Elements     []mediaElement `json:"elements"`
	} `json:"payload"`
}

type csMessage struct {
	Text       string             `json:"text,omitempty"`
	Attachment *messageAttachment `json:"attachment,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, recipientID, text string) (*model.MessageResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.NewError(model.KindValidation, platform, "message text is required", nil)
	}
	return c.send(ctx, recipientID, csMessage{Text: text})
}

// SendMessageWithAttachments sends one media-template message per image; the text rides on the first.
func (c *Client) SendMessageWithAttachments(ctx context.Context, recipientID, text string, attachments []model.Attachment) (*model.MessageResult, error) {
	for _, a := range attachments {
		if _, err := remote.AttachmentKind(platform, a.Type); err != nil {
			return nil, err
		}
	}
	if len(attachments) == 0 {
		return c.SendMessage(ctx, recipientID, text)
	}
	var last *model.MessageResult
	for i, a := range attachments {
		kind, _ := remote.AttachmentKind(platform, a.Type)
		att := &messageAttachment{Type: "template"}
		att.Payload.TemplateType = "media"
		att.Payload.Elements = []mediaElement{{MediaType: kind, URL: a.URL}}
		msg := csMessage{Attachment: att}
		if i == 0 {
			msg.Text = text
		}
		res, err := c.send(ctx, recipientID, msg)
		if err != nil {
			return last, err
		}
		last = res
	}
	return last, nil
}

func (c *Client) send(ctx context.Context, recipientID string, msg csMessage) (*model.MessageResult, error) {
	cred, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var data struct {
		MessageID string `json:"message_id"`
		UserID    string `json:"user_id"`
	}
	err = c.call(ctx, cred, remote.Request{
		Method: http.MethodPost,
		Path:   "/v3.0/oa/message/cs",
		JSON: map[string]any{
			"recipient": map[string]string{"user_id": recipientID},
			"message":   msg,
		},
	}, &data)
	if err != nil {
		return nil, err
	}
	return &model.MessageResult{MessageID: data.MessageID, RecipientID: data.UserID}, nil
}

// FetchHistory returns the newest messages exchanged with participantID.
func (c *Client) FetchHistory(ctx context.Context, participantID string, limit int) ([]model.Message, error) {
	if limit <= 0 || limit > 10 {
		limit = 10
	}
	cred, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	filter, _ := json.Marshal(map[string]any{"user_id": participantID, "offset": 0, "count": limit})
	var data []struct {
		MessageID string `json:"message_id"`
		Src       int    `json:"src"`
		Time      int64  `json:"time"`
		Message   string `json:"message"`
		FromID    string `json:"from_id"`
	}
	err = c.call(ctx, cred, remote.Request{Path: "/v2.0/oa/conversation", Query: map[string][]string{"data": {string(filter)}}}, &data)
	if err != nil {
		return nil, err
	}
	msgs := make([]model.Message, 0, len(data))
	for _, m := range data {
		msgs = append(msgs, model.Message{
			ID:       m.MessageID,
			SenderID: m.FromID,
			Text:     m.Message,
			SentAt:   time.UnixMilli(m.Time).UTC(),
			FromPage: m.Src == 0,
		})
	}
	return msgs, nil
}
