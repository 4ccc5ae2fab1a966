package zalo

import (
	"encoding/json"
	"fmt"
	"net/http"

	"social-integration/domain/model"
)

// Zalo error codes meaning the OA token is invalid or expired.
var reauthCodes = map[int]bool{-216: true, -124: true, -220: true, -14014: true, -14019: true}

type envelope struct {
	Error   int             `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decodeError handles the OpenAPI envelope {"error":<int>,"message":...} and the OAuth
// envelope {"error":<int>,"error_name":...,"error_description":...}.
func decodeError(status int, body []byte) error {
	var env struct {
		Error            int    `json:"error"`
		Message          string `json:"message"`
		ErrorName        string `json:"error_name"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Error == 0 {
		if status == http.StatusUnauthorized {
			return model.NewError(model.KindReauthRequired, model.PlatformZalo, "unauthorized", nil)
		}
		return nil
	}
	msg := env.Message
	if msg == "" {
		msg = env.ErrorDescription
	}
	if msg == "" {
		msg = env.ErrorName
	}
	if msg == "" {
		msg = fmt.Sprintf("zalo error %d", env.Error)
	}
	if reauthCodes[env.Error] {
		return model.NewError(model.KindReauthRequired, model.PlatformZalo, msg, nil)
	}
	return model.NewError(model.KindRemoteRejection, model.PlatformZalo, msg, nil)
}
