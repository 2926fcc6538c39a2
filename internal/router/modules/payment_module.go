package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uzimatech/borehole-api/internal/container"
	handlers "github.com/uzimatech/borehole-api/internal/interface/http"
	"github.com/uzimatech/borehole-api/internal/interface/middleware"
	"github.com/uzimatech/borehole-api/pkg/helpers"
)

// PaymentModule wires payment routes. Processing is tightly rate limited;
// refunds are staff only.
type PaymentModule struct {
	Handler *handlers.PaymentHandler
	JWT     *helpers.JWTManager
}

func NewPayment(h *handlers.PaymentHandler, jwt *helpers.JWTManager) *PaymentModule {
	return &PaymentModule{Handler: h, JWT: jwt}
}

func (m *PaymentModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/payments")
	g.Use(middleware.Auth(container.GetRedis(), m.JWT))
	g.Use(middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByUserID(), nil))
	{
		processLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByUserID(), nil)
		g.POST("/process", processLimiter, m.Handler.Process)
		g.POST("/calculate-charges", m.Handler.CalculateCharges)
		g.GET("/history", m.Handler.History)
		g.GET("/:id", m.Handler.Get)
		g.POST("/:id/refund", middleware.RequireAdmin(), m.Handler.Refund)
	}
}
