package router

import (
	"github.com/uzimatech/borehole-api/internal/application"
	"github.com/uzimatech/borehole-api/internal/container"
	pginfra "github.com/uzimatech/borehole-api/internal/infrastructure/postgres"
	handlers "github.com/uzimatech/borehole-api/internal/interface/http"
	"github.com/uzimatech/borehole-api/internal/router/modules"
)

// InitModules builds all services and registers the feature modules with the
// router registry. Called once during startup after the container singletons
// are set.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	userRepo := pginfra.NewUserRepository(pool)
	requestRepo := pginfra.NewServiceRequestRepository(pool)
	paymentRepo := pginfra.NewPaymentRepository(pool)
	notificationRepo := pginfra.NewNotificationRepository(pool)

	var pub application.EmailEnqueuer
	if rp := container.GetRabbitPub(); rp != nil {
		pub = rp
	}

	notificationSvc := application.NewNotificationService(notificationRepo, container.GetNotifier(), logger)

	authSvc := application.NewAuthService(userRepo, container.GetJWT(), container.GetRedis(), pub, cfg, logger)

	requestSvc := application.NewRequestService(
		requestRepo,
		userRepo,
		container.GetGeocoder(),
		notificationSvc,
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetES(),
		cfg.ESRequestsIndex,
		logger,
	)

	paymentSvc := application.NewPaymentService(
		paymentRepo,
		requestRepo,
		userRepo,
		container.GetGateways(),
		notificationSvc,
		pub,
		cfg,
		logger,
	)

	authHandler := handlers.NewAuthHandler(authSvc, logger, cfg.CookieDomain, cfg.CookieSecure)
	requestHandler := handlers.NewRequestHandler(requestSvc, logger, cfg.MaxUploadBytes)
	paymentHandler := handlers.NewPaymentHandler(paymentSvc, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationSvc, logger)

	jwt := container.GetJWT()
	r.Add(modules.NewAuth(authHandler, jwt))
	r.Add(modules.NewRequest(requestHandler, jwt))
	r.Add(modules.NewPayment(paymentHandler, jwt))
	r.Add(modules.NewNotification(notificationHandler, jwt))
}
