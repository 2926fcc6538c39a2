package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uzimatech/borehole-api/internal/container"
	handlers "github.com/uzimatech/borehole-api/internal/interface/http"
	"github.com/uzimatech/borehole-api/internal/interface/middleware"
	"github.com/uzimatech/borehole-api/pkg/helpers"
)

// RequestModule wires service-request routes. All routes require auth;
// transition and search additionally require the admin role.
type RequestModule struct {
	Handler *handlers.RequestHandler
	JWT     *helpers.JWTManager
}

func NewRequest(h *handlers.RequestHandler, jwt *helpers.JWTManager) *RequestModule {
	return &RequestModule{Handler: h, JWT: jwt}
}

func (m *RequestModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/service-requests")
	g.Use(middleware.Auth(container.GetRedis(), m.JWT))
	g.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		g.POST("", m.Handler.Create)
		g.GET("", m.Handler.List)
		g.GET("/search", middleware.RequireAdmin(), m.Handler.Search)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Cancel)
		g.GET("/:id/status", m.Handler.Status)
		g.GET("/:id/timeline", m.Handler.Timeline)
		g.POST("/:id/comments", m.Handler.AddComment)
		g.POST("/:id/attachments", m.Handler.AddAttachment)
		g.PATCH("/:id/status", middleware.RequireAdmin(), m.Handler.Transition)
	}
}
