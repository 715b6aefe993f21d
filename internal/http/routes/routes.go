package routes

import (
	"github.com/Dhoini/Stars-subscription-service/internal/app"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes настраивает все маршруты API для Gin роутера
func SetupRoutes(router *gin.Engine, app *app.App, log *logger.Logger) {
	// Метрики Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})))

	// Группа API
	api := router.Group("/api/v1")
	{
		// Здоровье сервиса
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		// Выставление инвойса на премиум-подписку
		api.POST("/invoices", app.PaymentHandler.CreateInvoice)

		// Платежный цикл провайдера
		payments := api.Group("/payments")
		{
			// Валидация до списания средств
			payments.POST("/pre-checkout", app.PaymentHandler.PreCheckout)

			// Подтверждение успешного платежа
			payments.POST("/confirm", app.PaymentHandler.ConfirmPayment)
		}

		// Статус подписки пользователя
		api.GET("/subscribers/:user_id/status", app.SubscriberHandler.Status)
	}

	log.Infow("API routes successfully configured")
}
