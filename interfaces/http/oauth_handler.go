package http

import (
	"context"
	"net/http"

	"social-integration/domain/model"
	"social-integration/infrastructure/logger"
	"social-integration/usecase"

	"github.com/gin-gonic/gin"
)

type IOAuthHandler interface {
	GetAuthURL(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

type FacebookAuthenticator interface {
	AuthURL(state string) (string, error)
	Exchange(ctx context.Context, code, pageID string) (*model.PlatformCredential, error)
}

type YouTubeAuthenticator interface {
	AuthURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*model.PlatformCredential, error)
}

type exchangeFunc func(ctx *gin.Context, code string) (*model.PlatformCredential, error)

type OAuthHandler struct {
	platform model.Platform
	authURL  func(state string) (string, error)
	exchange exchangeFunc
	tokens   usecase.ITokenManager
	factory  usecase.IIntegrationFactory
	states   *stateStore
}

// NewFacebookOAuthHandler connects a Facebook page. The callback accepts an optional page_id query
// parameter; without it the first managed page is used.
func NewFacebookOAuthHandler(auth FacebookAuthenticator, tokens usecase.ITokenManager, factory usecase.IIntegrationFactory) IOAuthHandler {
	return &OAuthHandler{
		platform: model.PlatformFacebook,
		authURL:  auth.AuthURL,
		exchange: func(ctx *gin.Context, code string) (*model.PlatformCredential, error) {
			return auth.Exchange(ctx.Request.Context(), code, ctx.Query("page_id"))
		},
		tokens:  tokens,
		factory: factory,
		states:  newStateStore(),
	}
}

func NewYouTubeOAuthHandler(auth YouTubeAuthenticator, tokens usecase.ITokenManager, factory usecase.IIntegrationFactory) IOAuthHandler {
	return &OAuthHandler{
		platform: model.PlatformYouTube,
		authURL:  auth.AuthURL,
		exchange: func(ctx *gin.Context, code string) (*model.PlatformCredential, error) {
			return auth.Exchange(ctx.Request.Context(), code)
		},
		tokens:  tokens,
		factory: factory,
		states:  newStateStore(),
	}
}

// GetAuthURL builds the consent URL for the authenticated user.
func (h *OAuthHandler) GetAuthURL(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	state := h.states.issue(identity)
	u, err := h.authURL(state)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"auth_url": u, "state": state})
}

// Callback exchanges the authorization code and stores the credential for the user who issued state.
func (h *OAuthHandler) Callback(ctx *gin.Context) {
	lg := logger.GetLogger().WithField("platform", h.platform)
	if e := ctx.Query("error"); e != "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": e, "description": ctx.Query("error_description")})
		return
	}
	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	identity, ok := h.states.consume(ctx.Query("state"))
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state"})
		return
	}

	cred, err := h.exchange(ctx, code)
	if err != nil {
		lg.WithField("identity", identity).WithField("error", err).Warn("oauth exchange failed")
		respondError(ctx, model.WithPlatform(err, h.platform))
		return
	}
	cred.Identity = identity
	cred.Platform = h.platform
	if err := h.tokens.Connect(ctx.Request.Context(), cred); err != nil {
		respondError(ctx, err)
		return
	}
	h.factory.Invalidate(h.platform, identity)
	ctx.JSON(http.StatusOK, gin.H{
		"platform":     h.platform,
		"connected":    true,
		"account_id":   cred.AccountID,
		"account_name": cred.AccountName,
	})
}
