package tiktok

import (
	"encoding/json"
	"net/http"

	"social-integration/domain/model"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

var reauthCodes = map[string]bool{
	"access_token_invalid": true,
	"scope_not_authorized": true,
	"invalid_grant":        true,
}

// decodeError understands both envelopes: {"error":{"code":...}} on the content API and
// {"error":"invalid_grant","error_description":...} on the OAuth endpoint.
func decodeError(status int, body []byte) error {
	var env struct {
		Error            json.RawMessage `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	_ = json.Unmarshal(body, &env)

	var e apiError
	if len(env.Error) > 0 {
		if env.Error[0] == '"' {
			_ = json.Unmarshal(env.Error, &e.Code)
			e.Message = env.ErrorDescription
		} else {
			_ = json.Unmarshal(env.Error, &e)
		}
	}
	if e.Code == "" || e.Code == "ok" {
		if status == http.StatusUnauthorized {
			return model.NewError(model.KindReauthRequired, model.PlatformTikTok, "unauthorized", nil)
		}
		return nil
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if reauthCodes[e.Code] || status == http.StatusUnauthorized {
		return model.NewError(model.KindReauthRequired, model.PlatformTikTok, msg, nil)
	}
	return model.NewError(model.KindRemoteRejection, model.PlatformTikTok, msg, nil)
}
