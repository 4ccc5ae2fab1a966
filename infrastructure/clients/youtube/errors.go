package youtube

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"social-integration/domain/model"
	"social-integration/infrastructure/clients/remote"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// normalize converts Data API and OAuth failures into integration errors.
func normalize(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var ie *model.IntegrationError
	if errors.As(err, &ie) {
		return model.WithPlatform(err, platform)
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		switch {
		case gerr.Code == http.StatusUnauthorized:
			return model.NewError(model.KindReauthRequired, platform, msg, nil)
		case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return model.NewError(model.KindTransport, platform, msg, nil)
		}
		return model.NewError(model.KindRemoteRejection, platform, msg, nil)
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		msg := rerr.ErrorDescription
		if msg == "" {
			msg = rerr.ErrorCode
		}
		if rerr.ErrorCode == "invalid_grant" || rerr.Response != nil && rerr.Response.StatusCode == http.StatusUnauthorized {
			return model.NewError(model.KindReauthRequired, platform, msg, nil)
		}
		return model.NewError(model.KindRemoteRejection, platform, strings.TrimSpace(msg), nil)
	}
	return remote.ClassifyTransport(ctx, platform, err)
}
