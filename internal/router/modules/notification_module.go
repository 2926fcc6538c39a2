package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uzimatech/borehole-api/internal/container"
	handlers "github.com/uzimatech/borehole-api/internal/interface/http"
	"github.com/uzimatech/borehole-api/internal/interface/middleware"
	"github.com/uzimatech/borehole-api/pkg/helpers"
)

// NotificationModule wires the in-app notification routes.
type NotificationModule struct {
	Handler *handlers.NotificationHandler
	JWT     *helpers.JWTManager
}

func NewNotification(h *handlers.NotificationHandler, jwt *helpers.JWTManager) *NotificationModule {
	return &NotificationModule{Handler: h, JWT: jwt}
}

func (m *NotificationModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/notifications")
	g.Use(middleware.Auth(container.GetRedis(), m.JWT))
	g.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		g.GET("", m.Handler.List)
		g.PUT("/:id/mark-read", m.Handler.MarkRead)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
