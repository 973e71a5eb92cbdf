package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/slotify/slotify/config"
	"github.com/slotify/slotify/internal/availability"
	"github.com/slotify/slotify/internal/consumer"
	"github.com/slotify/slotify/internal/handler"
	"github.com/slotify/slotify/internal/middleware"
	"github.com/slotify/slotify/internal/repository"
	"github.com/slotify/slotify/internal/service"
	"github.com/slotify/slotify/pkg/cache"
	"github.com/slotify/slotify/pkg/database"
	"github.com/slotify/slotify/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.NewPostgresDB(cfg.DSN())

	// Repositories
	appointmentRepo := repository.NewAppointmentRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	transactor := repository.NewTransactor(db, cfg.LockTimeout)

	// RabbitMQ publisher: reservation lifecycle events
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	// RabbitMQ consumer: customer notifications
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}
	consumer.NewNotificationConsumer(notificationRepo).Start(msgs)

	// Availability: Redis cache with pub/sub fan-out, or in-process only
	hub := availability.NewHub()
	var availabilityCache service.AvailabilityCache = availability.NewLocal(hub)
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		redisCache := availability.NewCache(rdb, availability.WithTTL(cfg.AvailabilityTTL))
		redisCache.Listen(ctx, hub.Broadcast)
		availabilityCache = redisCache
	} else {
		log.Println("[Availability] REDIS_ADDR not set, serving availability from the database")
	}

	// Services
	allocator := service.NewSlotAllocator(transactor, slotRepo, reservationRepo, publisher, availabilityCache)
	catalog := service.NewCatalogService(appointmentRepo, slotRepo, publisher, availabilityCache)

	limiter := middleware.NewRateLimiter(cfg.ReserveRateLimit, cfg.ReserveRateBurst)
	limiter.StartJanitor(ctx, time.Minute)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = middleware.NewRequestValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": "slotify"})
	})

	handler.NewReservationHandler(allocator, hub).RegisterRoutes(e, limiter.Middleware())
	handler.NewCatalogHandler(catalog).RegisterRoutes(e)
	handler.NewNotificationHandler(notificationRepo).RegisterRoutes(e)

	go func() {
		log.Printf("Slotify starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
