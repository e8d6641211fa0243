package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/instaclone-server/internal/realtime"
)

// SendMessage persists the message first; live delivery to the receiver is
// best effort and never fails the request.
func (h *Handler) SendMessage(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" validate:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "Message text is required")
		return
	}
	if !h.validate.ValidateStruct(ctx, &req) {
		return
	}

	senderID := currentUser(ctx)
	receiverID := ctx.Param("id")

	if _, err := h.users.UserByID(ctx, receiverID); isNotFound(err) {
		fail(ctx, http.StatusNotFound, "User not found")
		return
	} else if err != nil {
		h.internalError(ctx, "send message lookup", err)
		return
	}

	msg, err := h.messages.SendMessage(ctx, senderID, receiverID, req.Text)
	if err != nil {
		h.internalError(ctx, "send message", err)
		return
	}

	h.notifier.DeliverTo(receiverID, realtime.EventNewMessage, msg)

	ctx.JSON(http.StatusCreated, gin.H{"success": true, "newMessage": msg})
}

func (h *Handler) GetMessages(ctx *gin.Context) {
	messages, err := h.messages.Conversation(ctx, currentUser(ctx), ctx.Param("id"))
	if err != nil {
		h.internalError(ctx, "get messages", err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}
