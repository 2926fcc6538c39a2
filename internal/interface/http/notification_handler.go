package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/internal/application"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/pkg/response"
)

type NotificationHandler struct {
	Svc    *application.NotificationService
	Logger *logrus.Logger
}

func NewNotificationHandler(svc *application.NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{Svc: svc, Logger: logger}
}

func notificationBody(n *entity.Notification) gin.H {
	return gin.H{
		"id":         n.ID,
		"type":       n.Type,
		"title":      n.Title,
		"message":    n.Message,
		"reference":  n.Reference,
		"is_read":    n.IsRead,
		"created_at": n.CreatedAt,
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	uid, _ := actor(c)
	ns, err := h.Svc.ListForUser(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationBody(n))
	}
	response.List(c, out, "notifications")
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	uid, _ := actor(c)
	n, err := h.Svc.MarkRead(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, notificationBody(n), "notification read")
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	uid, _ := actor(c)
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		writeErr(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "notification deleted")
}
