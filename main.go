package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evreg/lottery-service/internal/di"
	"github.com/evreg/lottery-service/internal/metrics"
	"github.com/evreg/lottery-service/internal/service"
	"github.com/evreg/lottery-service/pkg/config"
	"github.com/evreg/lottery-service/pkg/database"
	"github.com/evreg/lottery-service/pkg/logger"
	pkgredis "github.com/evreg/lottery-service/pkg/redis"
	"github.com/evreg/lottery-service/pkg/telemetry"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	level := "info"
	if cfg.App.Debug {
		level = "debug"
	}
	logCfg := &logger.Config{
		Level:       level,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Lottery Service...")

	ctx := context.Background()

	// Initialize tracing
	telCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telCfg); err != nil {
		appLog.Fatal(fmt.Sprintf("Telemetry init failed: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	if err := metrics.Init(); err != nil {
		appLog.Fatal(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Initialize Redis connection
	redisCfg := &pkgredis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize delivery publisher
	var publisher service.DeliveryPublisher = service.NewNoOpDeliveryPublisher()
	if cfg.Kafka.Enabled {
		kafkaPub, err := service.NewKafkaDeliveryPublisher(ctx, &service.DeliveryPublisherConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.DeliveryTopic,
			ClientID: cfg.Kafka.ClientID,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		} else {
			publisher = kafkaPub
			appLog.Info("Kafka delivery publisher connected")
		}
	}
	defer publisher.Close()

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		Publisher:      publisher,
		OptInBatchSize: cfg.Notifier.OptInBatchSize,
		NotifierConfig: &service.NotifierConfig{
			FanOutConcurrency: cfg.Notifier.FanOutConcurrency,
			WriteTimeout:      cfg.Notifier.WriteTimeout,
		},
		LotteryConfig: &service.LotteryConfig{
			DrawLockTTL: cfg.Lottery.DrawLockTTL,
		},
	})

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.OTel.Enabled {
		router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	}

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/health/ready", container.HealthHandler.Ready)

	// API routes
	v1 := router.Group("/api/v1")
	{
		events := v1.Group("/events")
		{
			events.POST("", container.WaitlistHandler.CreateEvent)
			events.GET("/:event_id", container.WaitlistHandler.GetEvent)

			// Waiting list
			events.POST("/:event_id/waitlist", container.WaitlistHandler.Join)
			events.GET("/:event_id/waitlist", container.WaitlistHandler.GetWaitlist)
			events.GET("/:event_id/waitlist/:user_id", container.WaitlistHandler.GetStatus)
			events.DELETE("/:event_id/waitlist/:user_id", container.WaitlistHandler.Leave)
			events.POST("/:event_id/waitlist/:user_id/accept", container.WaitlistHandler.Accept)
			events.POST("/:event_id/waitlist/:user_id/decline", container.WaitlistHandler.Decline)
			events.POST("/:event_id/waitlist/:user_id/cancel", container.WaitlistHandler.Cancel)
			events.POST("/:event_id/waitlist/:user_id/rejoin", container.WaitlistHandler.Rejoin)

			// Lottery
			events.POST("/:event_id/lottery/draw", container.LotteryHandler.Draw)
			events.POST("/:event_id/lottery/reselect", container.LotteryHandler.Reselect)

			// Organizer fan-out
			events.POST("/:event_id/notifications/users", container.NotificationHandler.NotifyList)
			events.POST("/:event_id/notifications/group", container.NotificationHandler.NotifyGroup)
		}

		users := v1.Group("/users")
		{
			users.GET("/:user_id/notifications", container.NotificationHandler.GetInbox)
			users.GET("/:user_id/notifications/unread-count", container.NotificationHandler.GetUnreadCount)
			users.POST("/:user_id/notifications/:notification_id/read", container.NotificationHandler.MarkRead)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/notification-logs", container.NotificationHandler.GetAuditLogs)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Lottery Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
