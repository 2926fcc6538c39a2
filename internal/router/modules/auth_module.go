package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uzimatech/borehole-api/internal/container"
	handlers "github.com/uzimatech/borehole-api/internal/interface/http"
	"github.com/uzimatech/borehole-api/internal/interface/middleware"
	"github.com/uzimatech/borehole-api/pkg/helpers"
)

// AuthModule wires identity routes.
// Public: register, login, refresh, verify-email, forgot/reset password.
// Protected: logout, profile, password change, resend verification.
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuth(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// probes from inside the network (health checks, smoke tests) skip the
	// public limits
	internal := middleware.AllowPrivateIP()
	registerLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), internal)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), internal)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), internal)
	resetLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), internal)

	authGroup := rg.Group("/auth")
	authGroup.POST("/register", registerLimiter, m.Handler.Register)
	authGroup.POST("/login", loginLimiter, m.Handler.Login)
	authGroup.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	authGroup.GET("/verify-email/:token", resetLimiter, m.Handler.VerifyEmail)
	authGroup.POST("/forgotpassword", resetLimiter, m.Handler.ForgotPassword)
	authGroup.PUT("/resetpassword/:token", resetLimiter, m.Handler.ResetPassword)

	protected := rg.Group("/")
	protected.Use(middleware.Auth(container.GetRedis(), m.JWT))
	protected.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		protected.POST("/auth/logout", m.Handler.Logout)
		protected.POST("/auth/verify-email/resend", m.Handler.ResendVerification)
		protected.GET("/profile", m.Handler.GetProfile)
		protected.PUT("/profile", m.Handler.UpdateProfile)
		protected.PUT("/profile/password", m.Handler.UpdatePassword)
	}
}
