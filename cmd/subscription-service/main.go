package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dhoini/Stars-subscription-service/internal/app"
	"github.com/Dhoini/Stars-subscription-service/internal/config"
	"github.com/Dhoini/Stars-subscription-service/internal/http/routes"
	"github.com/Dhoini/Stars-subscription-service/internal/kafka"
	"github.com/Dhoini/Stars-subscription-service/internal/metrics"
	"github.com/Dhoini/Stars-subscription-service/internal/repository"
	"github.com/Dhoini/Stars-subscription-service/internal/services"
	"github.com/Dhoini/Stars-subscription-service/pkg/logger"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер PostgreSQL для sqlx
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Инициализируем логгер
	log := logger.New(os.Getenv("APP_ENV"))
	defer func() { _ = log.Sync() }()

	log.Infow("Stars subscription service starting up...")

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}

	// Устанавливаем режим Gin в зависимости от окружения
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Выбираем базовое хранилище: PostgreSQL при заданном DSN, иначе in-memory
	var baseStore repository.SubscriberStore
	if cfg.Database.DSN != "" {
		db, err := sqlx.Connect("pgx", cfg.Database.DSN)
		if err != nil {
			log.Fatalw("Failed to connect to database", "error", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Errorw("Error closing database connection", "error", err)
			}
		}()
		baseStore = repository.NewPostgresSubscriberStore(db, log)
		log.Infow("Database connection established")
	} else {
		baseStore = repository.NewMemorySubscriberStore()
		log.Infow("Using in-memory subscriber store")
	}

	// Инициализируем Redis кеш; его недоступность не фатальна
	store := baseStore
	if cfg.Redis.Addr != "" {
		redisCache, err := repository.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warnw("Failed to initialize Redis cache, continuing without caching", "error", err)
		} else {
			defer func() {
				if err := redisCache.Close(); err != nil {
					log.Errorw("Error closing Redis connection", "error", err)
				}
			}()
			store = repository.NewCachedSubscriberStore(baseStore, redisCache, log)
			log.Infow("Using cached subscriber store")
		}
	}

	// Инициализируем Kafka Producer; недоступность Kafka не критична для выдачи
	var producer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Errorw("Failed to initialize Kafka producer, continuing without event publishing", "error", err)
			producer = nil
		} else {
			defer func() {
				if err := producer.Close(); err != nil {
					log.Errorw("Error closing Kafka producer", "error", err)
				}
			}()
		}
	}

	// Метрики
	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)
	systemMetrics := metrics.NewSystemMetrics(registry, log)
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Инициализируем service layer
	validatorService := services.NewValidatorService(cfg)
	entitlementService := services.NewEntitlementService(store, validatorService, producer, paymentMetrics, log)

	// Инициализируем application и HTTP сервер с роутами
	application := app.NewApp(cfg, validatorService, entitlementService, paymentMetrics, registry, log)

	router := gin.New()
	router.Use(application.LoggerMiddleware)
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, application, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Запускаем HTTP сервер в горутине
	go func() {
		log.Infow("Starting HTTP server", "port", cfg.App.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutdown signal received")

	// Даем 10 секунд на завершение текущих запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Infow("HTTP server gracefully stopped")
	}

	log.Infow("Cleanup finished. Goodbye!")
}
