package handlers

import (
	"github.com/gin-gonic/gin"

	"dapur/internal/core/appctx"
	"dapur/internal/domain/notify"
	"dapur/internal/infrastructure/http/v1/dto"
)

// NotificationHandler handles the in-app notification feed.
type NotificationHandler struct {
	*BaseHandler
	service *notify.Service
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(base *BaseHandler, service *notify.Service) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := h.ParseIntQuery(c, "limit", 20)
	offset := h.ParseIntQuery(c, "offset", 0)

	items, total, err := h.service.List(ctx, appctx.GetUserID(ctx), limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromNotificationList(items, total, limit, offset))
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()

	notificationID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkRead(ctx, notificationID, appctx.GetUserID(ctx)); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers notification routes.
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/:id/read", h.MarkRead)
}
