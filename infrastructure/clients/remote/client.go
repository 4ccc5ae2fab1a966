// Package remote holds the HTTP plumbing shared by the platform adapters: request building,
// retries of idempotent reads, and classification of transport and remote failures.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-integration/domain/model"
	"social-integration/infrastructure/logger"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/go-querystring/query"
)

const maxBodyBytes = 4 << 20

// TokenSource yields a credential that is valid at the time of the call.
type TokenSource interface {
	Token(ctx context.Context) (*model.PlatformCredential, error)
}

type TokenSourceFunc func(ctx context.Context) (*model.PlatformCredential, error)

func (f TokenSourceFunc) Token(ctx context.Context) (*model.PlatformCredential, error) { return f(ctx) }

// StaticToken is a TokenSource for a fixed credential (tests, one-shot tools).
func StaticToken(c *model.PlatformCredential) TokenSource {
	return TokenSourceFunc(func(context.Context) (*model.PlatformCredential, error) { return c, nil })
}

// ErrorDecoder turns a platform response into an error, or nil when the body reports success.
type ErrorDecoder func(status int, body []byte) error

type Client struct {
	platform model.Platform
	baseURL  string
	http     *http.Client
	decode   ErrorDecoder
	attempts uint
	delay    time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRetry configures retries of GET requests on transport errors, 429 and 5xx.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.delay = delay
	}
}

func NewClient(platform model.Platform, baseURL string, decode ErrorDecoder, opts ...Option) *Client {
	c := &Client{
		platform: platform,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 60 * time.Second},
		decode:   decode,
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Platform() model.Platform { return c.platform }

func (c *Client) HTTPClient() *http.Client { return c.http }

type Request struct {
	Method string
	// Path is appended to the base URL unless it is absolute
	Path   string
	Query  url.Values
	Form   url.Values
	JSON   any
	Header http.Header
}

// Do sends req and decodes a successful JSON body into out (when non-nil).
// Every error returned is a *model.IntegrationError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Method != http.MethodGet {
		return c.once(ctx, req, out)
	}
	return retry.Do(
		func() error { return c.once(ctx, req, out) },
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return model.KindOf(err) == model.KindTransport
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.GetLogger().WithField("platform", c.platform).WithField("attempt", n).WithField("error", err).Debug("retrying platform read")
		}),
	)
}

func (c *Client) once(ctx context.Context, req Request, out any) error {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return model.NewError(model.KindInternal, c.platform, "build request", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ClassifyTransport(ctx, c.platform, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ClassifyTransport(ctx, c.platform, err)
	}

	platformErr := c.decodeErr(resp.StatusCode, body)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if platformErr != nil {
			msg = messageOf(platformErr)
		}
		return model.NewError(model.KindTransport, c.platform, msg, nil)
	}
	if platformErr != nil {
		return model.WithPlatform(platformErr, c.platform)
	}
	if resp.StatusCode >= 400 {
		return StatusError(c.platform, resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return model.NewError(model.KindRemoteRejection, c.platform, "malformed response", err)
	}
	return nil
}

func (c *Client) decodeErr(status int, body []byte) error {
	if c.decode == nil {
		return nil
	}
	return c.decode(status, body)
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	}
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		contentType = "application/json; charset=UTF-8"
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	return httpReq, nil
}

// ClassifyTransport maps a failed round trip onto timeout or transport kinds.
func ClassifyTransport(ctx context.Context, platform model.Platform, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return model.NewError(model.KindTimeout, platform, "deadline exceeded", err)
	case errors.Is(ctx.Err(), context.Canceled):
		return model.NewError(model.KindTimeout, platform, "request cancelled", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return model.NewError(model.KindTimeout, platform, "network timeout", err)
	}
	return model.NewError(model.KindTransport, platform, "request failed", err)
}

// StatusError is the fallback classification for an HTTP error the platform decoder did not recognize.
func StatusError(platform model.Platform, status int, body []byte) error {
	msg := Truncate(strings.TrimSpace(string(body)), 300)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusUnauthorized {
		return model.NewError(model.KindReauthRequired, platform, msg, nil)
	}
	return model.NewError(model.KindRemoteRejection, platform, msg, nil)
}

func messageOf(err error) string {
	var ie *model.IntegrationError
	if errors.As(err, &ie) && ie.Message != "" {
		return ie.Message
	}
	return err.Error()
}

// Values encodes a struct tagged with `url:"..."` into url.Values.
func Values(v any) url.Values {
	vals, err := query.Values(v)
	if err != nil {
		return url.Values{}
	}
	return vals
}

// OpenMedia streams a publicly reachable media file.
func OpenMedia(ctx context.Context, h *http.Client, platform model.Platform, mediaURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, http.NoBody)
	if err != nil {
		return nil, model.NewError(model.KindValidation, platform, "invalid media url", err)
	}
	resp, err := h.Do(req)
	if err != nil {
		return nil, ClassifyTransport(ctx, platform, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, model.NewError(model.KindValidation, platform, fmt.Sprintf("media fetch returned HTTP %d", resp.StatusCode), nil)
	}
	return resp.Body, nil
}
