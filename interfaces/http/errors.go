package http

import (
	"net/http"

	"social-integration/domain/model"
	"social-integration/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// StatusOf maps an error kind onto the HTTP status returned to API callers.
// reauth_required uses 409 so it never reads as the caller's own session expiring.
func StatusOf(kind model.ErrorKind) int {
	switch kind {
	case "":
		return http.StatusOK
	case model.KindValidation, model.KindUnsupportedPlatform:
		return http.StatusBadRequest
	case model.KindReauthRequired:
		return http.StatusConflict
	case model.KindUnsupportedOperation:
		return http.StatusNotImplemented
	case model.KindConfiguration:
		return http.StatusServiceUnavailable
	case model.KindRemoteRejection:
		return http.StatusUnprocessableEntity
	case model.KindTransport:
		return http.StatusBadGateway
	case model.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx *gin.Context, err error) {
	kind := model.KindOf(err)
	status := StatusOf(kind)
	body := gin.H{"error": err.Error(), "kind": kind}
	var ie *model.IntegrationError
	if model.AsIntegrationError(err, &ie) && ie.Platform != "" {
		body["platform"] = ie.Platform
	}
	if status >= http.StatusInternalServerError {
		logger.GetLogger().WithField("path", ctx.FullPath()).WithField("error", err).Error("request failed")
	}
	ctx.JSON(status, body)
}

func identityOf(ctx *gin.Context) (model.Identity, bool) {
	id := ctx.GetString("user_id")
	if id == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: missing user_id"})
		return "", false
	}
	// Configuration-sourced credentials are never reachable over HTTP.
	if model.Identity(id).IsSystem() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "forbidden: reserved identity"})
		return "", false
	}
	return model.Identity(id), true
}

func platformOf(ctx *gin.Context) model.Platform {
	return model.ParsePlatform(ctx.Param("platform"))
}
