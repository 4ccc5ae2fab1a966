package http

import (
	"net/http"
	"time"

	"social-integration/domain/model"
	"social-integration/usecase"

	"github.com/gin-gonic/gin"
)

type ICredentialHandler interface {
	List(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
}

type CredentialHandler struct {
	tokens  usecase.ITokenManager
	factory usecase.IIntegrationFactory
}

func NewCredentialHandler(tokens usecase.ITokenManager, factory usecase.IIntegrationFactory) ICredentialHandler {
	return &CredentialHandler{tokens: tokens, factory: factory}
}

// connection is what callers see of a credential; tokens never leave the service.
type connection struct {
	Platform    model.Platform `json:"platform"`
	AccountID   string         `json:"account_id,omitempty"`
	AccountName string         `json:"account_name,omitempty"`
	Scopes      string         `json:"scopes,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Expired     bool           `json:"expired"`
	Refreshable bool           `json:"refreshable"`
	ConnectedAt time.Time      `json:"connected_at"`
}

// List handles GET /api/credentials.
func (h *CredentialHandler) List(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	list, err := h.tokens.ListConnections(ctx.Request.Context(), identity)
	if err != nil {
		respondError(ctx, err)
		return
	}
	now := time.Now()
	out := make([]connection, 0, len(list))
	for _, c := range list {
		conn := connection{
			Platform:    c.Platform,
			AccountID:   c.AccountID,
			AccountName: c.AccountName,
			Scopes:      c.Scopes,
			Expired:     c.Expired(now),
			Refreshable: c.RefreshToken != "",
			ConnectedAt: c.CreatedAt,
		}
		if !c.ExpiresAt.IsZero() {
			exp := c.ExpiresAt
			conn.ExpiresAt = &exp
		}
		out = append(out, conn)
	}
	ctx.JSON(http.StatusOK, gin.H{"connections": out})
}

// Disconnect handles DELETE /api/credentials/:platform and drops the cached adapter.
func (h *CredentialHandler) Disconnect(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	platform := platformOf(ctx)
	if err := h.tokens.Disconnect(ctx.Request.Context(), identity, platform); err != nil {
		respondError(ctx, err)
		return
	}
	h.factory.Invalidate(platform, identity)
	ctx.Status(http.StatusNoContent)
}
