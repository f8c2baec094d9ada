package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
)

// MessageSender delivers manual notifications.
type MessageSender interface {
	Send(ctx context.Context, req models.OutboundMessageRequest) error
}

// NotificationHandler lets operators message farmers directly.
type NotificationHandler struct {
	svc    MessageSender
	logger *zap.Logger
}

// NewNotificationHandler constructs the HTTP handler adapter.
func NewNotificationHandler(svc MessageSender, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{svc: svc, logger: logger}
}

// SendMessage pushes a WhatsApp message to any number.
func (h *NotificationHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	if err := h.svc.Send(c.Request.Context(), req); err != nil {
		status, msg := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("failed sending outbound", zap.Error(err))
			status, msg = http.StatusBadGateway, "unable to send message"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.Status(http.StatusAccepted)
}
