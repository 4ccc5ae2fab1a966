package http

import (
	"net/http"
	"strconv"

	"social-integration/domain/model"
	"social-integration/usecase"

	"github.com/gin-gonic/gin"
)

type IMessageHandler interface {
	Send(ctx *gin.Context)
	History(ctx *gin.Context)
	Typing(ctx *gin.Context)
	MarkRead(ctx *gin.Context)
}

type MessageHandler struct {
	messageUsecase usecase.IMessageUsecase
}

func NewMessageHandler(uc usecase.IMessageUsecase) IMessageHandler {
	return &MessageHandler{messageUsecase: uc}
}

type sendMessageRequest struct {
	RecipientID string             `json:"recipient_id"`
	Text        string             `json:"text"`
	Attachments []model.Attachment `json:"attachments"`
}

type typingRequest struct {
	RecipientID string `json:"recipient_id"`
	On          *bool  `json:"on"`
}

// Send handles POST /api/platforms/:platform/messages.
func (h *MessageHandler) Send(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var (
		res *model.MessageResult
		err error
	)
	platform := platformOf(ctx)
	if len(req.Attachments) > 0 {
		res, err = h.messageUsecase.SendMessageWithAttachments(ctx.Request.Context(), platform, identity, req.RecipientID, req.Text, req.Attachments)
	} else {
		res, err = h.messageUsecase.SendMessage(ctx.Request.Context(), platform, identity, req.RecipientID, req.Text)
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// History handles GET /api/platforms/:platform/conversations/:participantId/messages?limit=n.
func (h *MessageHandler) History(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	msgs, err := h.messageUsecase.FetchHistory(ctx.Request.Context(), platformOf(ctx), identity, ctx.Param("participantId"), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	ctx.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Typing handles POST /api/platforms/:platform/messages/typing. "on" defaults to true.
func (h *MessageHandler) Typing(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	var req typingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	on := req.On == nil || *req.On
	if err := h.messageUsecase.SendTypingIndicator(ctx.Request.Context(), platformOf(ctx), identity, req.RecipientID, on); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// MarkRead handles POST /api/platforms/:platform/messages/read.
func (h *MessageHandler) MarkRead(ctx *gin.Context) {
	identity, ok := identityOf(ctx)
	if !ok {
		return
	}
	var req typingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.messageUsecase.MarkAsRead(ctx.Request.Context(), platformOf(ctx), identity, req.RecipientID); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
