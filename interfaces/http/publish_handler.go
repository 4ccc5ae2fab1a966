package http

import (
	"errors"
	"net/http"
	"strconv"

	"social-integration/domain/model"
	"social-integration/domain/repository"
	"social-integration/usecase"

	"github.com/gin-gonic/gin"
)

type IPublishHandler interface {
	Publish(ctx *gin.Context)
	PublishToMany(ctx *gin.Context)
	Update(ctx *gin.Context)
	Delete(ctx *gin.Context)
	GetMetrics(ctx *gin.Context)
	VerifyAuth(ctx *gin.Context)
	GetJob(ctx *gin.Context)
	GetPlatforms(ctx *gin.Context)
	History(ctx *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
	audit          repository.IPublishAudit
}

// NewPublishHandler wires the publish usecase; audit may be nil when no audit store is configured.
func NewPublishHandler(uc usecase.IPublishUsecase, audit repository.IPublishAudit) IPublishHandler {
	return &PublishHandler{publishUsecase: uc, audit: audit}
}

type publishManyRequest struct {
	Platforms []string             `json:"platforms"`
	Request   model.PublishRequest `json:"request"`
}

func bindPublishRequest(ctx *gin.Context) (*model.PublishRequest, bool) {
	var req model.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, false
	}
	return &req, true
}

func respondResult(ctx *gin.Context, platform model.Platform, res *model.PublishResult) {
	status := http.StatusOK
	if !res.Success {
		status = StatusOf(res.Kind)
	}
	ctx.JSON(status, gin.H{"platform": platform, "outcome": res.Outcome(), "result": res})
}

// Publish handles POST /api/platforms/:platform/posts.
func (h *PublishHandler) Publish(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	req, ok := bindPublishRequest(ctx)
	if !ok {
		return
	}
	platform := platformOf(ctx)
	respondResult(ctx, platform, h.publishUsecase.Publish(ctx.Request.Context(), platform, identity, req))
}

// PublishToMany handles POST /api/publish. Per platform failures never fail the request.
func (h *PublishHandler) PublishToMany(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	var body publishManyRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(body.Platforms) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "at least one platform is required"})
		return
	}
	platforms := make([]model.Platform, 0, len(body.Platforms))
	for _, p := range body.Platforms {
		platforms = append(platforms, model.ParsePlatform(p))
	}
	outcomes := h.publishUsecase.PublishToMany(ctx.Request.Context(), platforms, identity, &body.Request)
	ctx.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

// Update handles PUT /api/platforms/:platform/posts/:postId.
func (h *PublishHandler) Update(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	req, ok := bindPublishRequest(ctx)
	if !ok {
		return
	}
	platform := platformOf(ctx)
	respondResult(ctx, platform, h.publishUsecase.Update(ctx.Request.Context(), platform, identity, ctx.Param("postId"), req))
}

// Delete handles DELETE /api/platforms/:platform/posts/:postId.
func (h *PublishHandler) Delete(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	platform := platformOf(ctx)
	postID := ctx.Param("postId")
	deleted, err := h.publishUsecase.Delete(ctx.Request.Context(), platform, identity, postID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"platform": platform, "post_id": postID, "deleted": deleted})
}

// GetMetrics handles GET /api/platforms/:platform/posts/:postId/metrics.
func (h *PublishHandler) GetMetrics(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	m, err := h.publishUsecase.GetMetrics(ctx.Request.Context(), platformOf(ctx), identity, ctx.Param("postId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, m)
}

// VerifyAuth handles GET /api/platforms/:platform/verify.
func (h *PublishHandler) VerifyAuth(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	platform := platformOf(ctx)
	valid, err := h.publishUsecase.VerifyAuth(ctx.Request.Context(), platform, identity)
	if err != nil && model.KindOf(err) != model.KindReauthRequired {
		respondError(ctx, err)
		return
	}
	body := gin.H{"platform": platform, "valid": valid}
	if err != nil {
		body["error"] = err.Error()
	}
	ctx.JSON(http.StatusOK, body)
}

// GetJob handles GET /api/publish/jobs/:jobId.
func (h *PublishHandler) GetJob(ctx *gin.Context) {
	job, err := h.publishUsecase.GetJob(ctx.Request.Context(), ctx.Param("jobId"))
	if errors.Is(err, repository.ErrJobNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	if identity := model.Identity(ctx.GetString("user_id")); job.Identity != "" && !job.Identity.IsSystem() && job.Identity != identity {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	ctx.JSON(http.StatusOK, job)
}

// GetPlatforms handles GET /api/platforms.
func (h *PublishHandler) GetPlatforms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"platforms": h.publishUsecase.Platforms(ctx.Request.Context())})
}

// History handles GET /api/publish/history?limit=n.
func (h *PublishHandler) History(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	if h.audit == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "publish history is not configured"})
		return
	}
	limit, _ := strconv.ParseInt(ctx.DefaultQuery("limit", "50"), 10, 64)
	events, err := h.audit.ListByIdentity(ctx.Request.Context(), identity, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if events == nil {
		events = []*repository.PublishOutcomeEvent{}
	}
	ctx.JSON(http.StatusOK, gin.H{"events": events})
}
