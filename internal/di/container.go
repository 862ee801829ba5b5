package di

import (
	"math/rand"
	"time"

	"github.com/evreg/lottery-service/internal/handler"
	"github.com/evreg/lottery-service/internal/repository"
	"github.com/evreg/lottery-service/internal/service"
	"github.com/evreg/lottery-service/pkg/database"
	"github.com/evreg/lottery-service/pkg/redis"
)

// Container holds all dependencies for the lottery service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	EventRepo    repository.EventRepository
	WaitlistRepo repository.WaitlistRepository
	EntrantRepo  repository.EntrantSource
	Notification repository.NotificationStore
	Audit        repository.AuditStore
	Unread       repository.UnreadCounter
	DrawLock     repository.DrawLock

	// Publishers
	Publisher service.DeliveryPublisher

	// Services
	WaitlistService     service.WaitlistService
	LotteryService      service.LotteryService
	NotifierService     service.NotifierService
	NotificationService service.NotificationService

	// Handlers
	HealthHandler       *handler.HealthHandler
	WaitlistHandler     *handler.WaitlistHandler
	LotteryHandler      *handler.LotteryHandler
	NotificationHandler *handler.NotificationHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB             *database.PostgresDB
	Redis          *redis.Client
	Publisher      service.DeliveryPublisher
	OptInBatchSize int
	NotifierConfig *service.NotifierConfig
	LotteryConfig  *service.LotteryConfig
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:        cfg.DB,
		Redis:     cfg.Redis,
		Publisher: cfg.Publisher,
	}

	pool := cfg.DB.Pool()

	// Repositories
	c.EventRepo = repository.NewPostgresEventRepository(pool)
	c.WaitlistRepo = repository.NewPostgresWaitlistRepository(pool)
	c.EntrantRepo = repository.NewPostgresEntrantRepository(pool, cfg.OptInBatchSize)
	c.Notification = repository.NewPostgresNotificationRepository(pool)
	c.Audit = repository.NewPostgresAuditRepository(pool)
	c.Unread = repository.NewRedisUnreadRepository(cfg.Redis)
	c.DrawLock = repository.NewRedisDrawLockRepository(cfg.Redis)

	// Services
	c.NotifierService = service.NewNotifierService(
		c.EntrantRepo,
		c.Notification,
		c.Audit,
		c.Unread,
		c.Publisher,
		cfg.NotifierConfig,
	)
	c.WaitlistService = service.NewWaitlistService(c.EventRepo, c.WaitlistRepo)
	c.LotteryService = service.NewLotteryService(
		c.EventRepo,
		c.WaitlistRepo,
		c.DrawLock,
		c.NotifierService,
		rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg.LotteryConfig,
	)
	c.NotificationService = service.NewNotificationService(c.Notification, c.Audit, c.Unread)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.WaitlistHandler = handler.NewWaitlistHandler(c.WaitlistService)
	c.LotteryHandler = handler.NewLotteryHandler(c.LotteryService)
	c.NotificationHandler = handler.NewNotificationHandler(c.NotifierService, c.NotificationService)

	return c
}
