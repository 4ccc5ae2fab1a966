package model

import (
	"sort"
	"strings"
)

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// MediaItem is a publicly reachable media file attached to a publish request
type MediaItem struct {
	Type      MediaType `json:"type"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Order     int       `json:"order,omitempty"`
}

// PublishRequest is the normalized content handed to every adapter
type PublishRequest struct {
	Title    string      `json:"title,omitempty"`
	Body     string      `json:"body,omitempty"`
	Media    []MediaItem `json:"media,omitempty"`
	Hashtags []string    `json:"hashtags,omitempty"`
	Mentions []string    `json:"mentions,omitempty"`
}

// Normalize strips leading '#'/'@' symbols, drops blanks and orders media by Order (stable).
func (r *PublishRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Body = strings.TrimSpace(r.Body)
	r.Hashtags = cleanTokens(r.Hashtags, "#")
	r.Mentions = cleanTokens(r.Mentions, "@")
	sort.SliceStable(r.Media, func(i, j int) bool { return r.Media[i].Order < r.Media[j].Order })
}

// Clone returns a deep copy so concurrent adapters can normalize their own request.
func (r *PublishRequest) Clone() *PublishRequest {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Media = append([]MediaItem(nil), r.Media...)
	cp.Hashtags = append([]string(nil), r.Hashtags...)
	cp.Mentions = append([]string(nil), r.Mentions...)
	return &cp
}

func cleanTokens(in []string, symbol string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.TrimLeft(strings.TrimSpace(t), symbol)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks the request against the platform's content rules. textual platforms need a title
// or a body; video-only platforms need at least one video item.
func (r *PublishRequest) Validate(textual, videoOnly bool) error {
	if r == nil {
		return NewError(KindValidation, "", "publish request is required", nil)
	}
	if textual && strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Body) == "" {
		return NewError(KindValidation, "", "title and body must not both be empty", nil)
	}
	if videoOnly && len(r.Videos()) == 0 {
		return NewError(KindValidation, "", "at least one video media item is required", nil)
	}
	for _, m := range r.Media {
		if strings.TrimSpace(m.URL) == "" {
			return NewError(KindValidation, "", "media item url is required", nil)
		}
		if m.Type != MediaImage && m.Type != MediaVideo {
			return NewError(KindValidation, "", "unknown media type: "+string(m.Type), nil)
		}
	}
	return nil
}

func (r *PublishRequest) Images() []MediaItem { return r.mediaOf(MediaImage) }

func (r *PublishRequest) Videos() []MediaItem { return r.mediaOf(MediaVideo) }

func (r *PublishRequest) mediaOf(t MediaType) []MediaItem {
	var out []MediaItem
	for _, m := range r.Media {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// PublishResult is the normalized outcome of a publish or update.
// Exactly one of {Success with PostID, failure with Error} holds.
type PublishResult struct {
	Success   bool      `json:"success"`
	PostID    string    `json:"post_id,omitempty"`
	Permalink string    `json:"permalink,omitempty"`
	Error     string    `json:"error,omitempty"`
	Kind      ErrorKind `json:"kind,omitempty"`
	// Unconfirmed marks a degraded success: the platform reported completion but never exposed
	// a public post id, so Permalink points at a generic page.
	Unconfirmed bool   `json:"unconfirmed,omitempty"`
	JobID       string `json:"job_id,omitempty"`
}

// NotSupportedMessage is the error text of operations an adapter declares unsupported.
const NotSupportedMessage = "not supported"

func Published(postID, permalink string) *PublishResult {
	return &PublishResult{Success: true, PostID: postID, Permalink: permalink}
}

func Failed(kind ErrorKind, msg string) *PublishResult {
	if msg == "" {
		msg = string(kind)
	}
	return &PublishResult{Success: false, Error: msg, Kind: kind}
}

// FailedFrom converts any error into a failed result, keeping its kind.
func FailedFrom(err error) *PublishResult {
	var ie *IntegrationError
	if AsIntegrationError(err, &ie) {
		msg := ie.Message
		if msg == "" && ie.Err != nil {
			msg = ie.Err.Error()
		}
		return Failed(ie.Kind, msg)
	}
	return Failed(KindOf(err), err.Error())
}

func Unsupported() *PublishResult {
	return Failed(KindUnsupportedOperation, NotSupportedMessage)
}

type Outcome string

const (
	OutcomePublished      Outcome = "published"
	OutcomeFailed         Outcome = "failed"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeNeedsReconnect Outcome = "needs_reconnect"
)

// Outcome maps the result onto the four states callers present per platform.
func (r *PublishResult) Outcome() Outcome {
	switch {
	case r == nil:
		return OutcomeFailed
	case r.Success:
		return OutcomePublished
	case r.Kind == KindReauthRequired:
		return OutcomeNeedsReconnect
	case r.Kind == KindUnsupportedOperation || r.Kind == KindUnsupportedPlatform:
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

// PlatformOutcome is one entry of a multi-platform fan-out
type PlatformOutcome struct {
	Platform Platform       `json:"platform"`
	Outcome  Outcome        `json:"outcome"`
	Result   *PublishResult `json:"result"`
}

// Metrics is zero-filled for any counter the platform does not expose
type Metrics struct {
	PostID      string `json:"post_id"`
	Views       int64  `json:"views"`
	Likes       int64  `json:"likes"`
	Comments    int64  `json:"comments"`
	Shares      int64  `json:"shares"`
	Impressions int64  `json:"impressions"`
	Reach       int64  `json:"reach"`
}
