package facebook

import (
	"encoding/json"
	"net/http"

	"social-integration/domain/model"
)

type graphError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
}

// Graph codes meaning the token is no longer usable.
var reauthCodes = map[int]bool{102: true, 190: true, 463: true, 467: true}

func decodeError(status int, body []byte) error {
	var env struct {
		Error *graphError `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		if status == http.StatusUnauthorized {
			return model.NewError(model.KindReauthRequired, model.PlatformFacebook, "unauthorized", nil)
		}
		return nil
	}
	if reauthCodes[env.Error.Code] || status == http.StatusUnauthorized {
		return model.NewError(model.KindReauthRequired, model.PlatformFacebook, env.Error.Message, nil)
	}
	return model.NewError(model.KindRemoteRejection, model.PlatformFacebook, env.Error.Message, nil)
}
