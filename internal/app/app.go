package app

import (
	"github.com/Dhoini/Stars-subscription-service/internal/config"
	"github.com/Dhoini/Stars-subscription-service/internal/http/handlers"
	"github.com/Dhoini/Stars-subscription-service/internal/metrics"
	"github.com/Dhoini/Stars-subscription-service/internal/middleware"
	"github.com/Dhoini/Stars-subscription-service/internal/services"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// App представляет собой контейнер для всех компонентов приложения
type App struct {
	Config            *config.Config
	Validator         *services.ValidatorService
	Entitlement       *services.EntitlementService
	PaymentHandler    *handlers.PaymentHandler
	SubscriberHandler *handlers.SubscriberHandler
	LoggerMiddleware  gin.HandlerFunc
	Registry          *prometheus.Registry
	Logger            *logger.Logger
}

// NewApp создает и инициализирует новый экземпляр приложения
func NewApp(
	cfg *config.Config,
	validator *services.ValidatorService,
	entitlement *services.EntitlementService,
	m metrics.PaymentMetrics,
	registry *prometheus.Registry,
	log *logger.Logger,
) *App {
	paymentHandler := handlers.NewPaymentHandler(validator, entitlement, m, log)
	subscriberHandler := handlers.NewSubscriberHandler(entitlement, log)

	return &App{
		Config:            cfg,
		Validator:         validator,
		Entitlement:       entitlement,
		PaymentHandler:    paymentHandler,
		SubscriberHandler: subscriberHandler,
		LoggerMiddleware:  middleware.RequestLogger(log),
		Registry:          registry,
		Logger:            log,
	}
}
