package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/cache"
	"github.com/sefazor/festival-backend/internal/config"
	"github.com/sefazor/festival-backend/internal/handler"
	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/middleware"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/database"
	"github.com/sefazor/festival-backend/pkg/email"
	"github.com/sefazor/festival-backend/pkg/jwt"
	"github.com/sefazor/festival-backend/pkg/logger"
	"github.com/sefazor/festival-backend/pkg/qrcode"
	"github.com/sefazor/festival-backend/pkg/storage"
)

// Stores is the persistence layer picked by STORE_DRIVER.
type Stores struct {
	Events        service.EventStore
	Teams         service.TeamStore
	Registrations service.RegistrationStore
	Profiles      service.ProfileStore
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

func provideStores(cfg *config.Config, log *zap.Logger) (*Stores, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return &Stores{Events: mem, Teams: mem, Registrations: mem, Profiles: mem}, func() {}, nil
	}

	db, err := database.NewDatabase(database.Options{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Debug:           cfg.Database.Debug,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := database.RunMigrations(db, repository.Migrate, log); err != nil {
		cleanup()
		return nil, nil, err
	}

	return &Stores{
		Events:        repository.NewEventRepository(db),
		Teams:         repository.NewTeamRepository(db),
		Registrations: repository.NewRegistrationRepository(db),
		Profiles:      repository.NewProfileRepository(db),
	}, cleanup, nil
}

// provideRedis returns nil when REDIS_URL is unset.
func provideRedis(cfg *config.Config, log *zap.Logger) (redis.UniversalClient, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, event cache will fall through", zap.Error(err))
	}
	return client, func() { _ = client.Close() }, nil
}

// provideEventService serves the catalog through the Redis cache when one
// is configured. The registration engine keeps reading the store directly.
func provideEventService(stores *Stores, client redis.UniversalClient, cfg *config.Config, m *metrics.Metrics, log *zap.Logger) *service.EventService {
	if client == nil {
		return service.NewEventService(stores.Events, log)
	}
	return service.NewEventService(cache.NewEventCache(stores.Events, client, cfg.EventCacheTTL, log, m), log)
}

func provideBlobStorage(cfg *config.Config, log *zap.Logger) (service.BlobStorage, error) {
	if !cfg.R2.Enabled() {
		log.Warn("R2 is not configured; payment proofs are kept in memory")
		return storage.NewMemoryStorage("memory://payment-proofs"), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return storage.NewCloudflareStorage(ctx, cfg.R2, log)
}

func provideMailer(cfg *config.Config, log *zap.Logger) service.Mailer {
	if cfg.Email.ResendAPIKey == "" {
		log.Warn("RESEND_API_KEY is not set; emails are logged instead of sent")
		return email.NewLogSender(log)
	}
	return email.NewEmailService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.Email.FromName, log)
}

func provideRenderer(cfg *config.Config) (*email.Renderer, error) {
	return email.NewRenderer(cfg.FestivalName, cfg.FrontendURL)
}

func provideQRService(cfg *config.Config) *qrcode.QRService {
	return qrcode.NewQRService(cfg.FrontendURL)
}

func provideTeamOptions(cfg *config.Config) service.TeamOptions {
	return service.TeamOptions{ExclusiveSoloAndTeam: cfg.ExclusiveSoloAndTeam}
}

func provideTokens(cfg *config.Config) (*jwt.Manager, error) {
	return jwt.NewManager(cfg.JWTSecret)
}

func newFiberApp(
	cfg *config.Config,
	handlers *handler.Handlers,
	tokens *jwt.Manager,
	stores *Stores,
	adminService *service.AdminService,
	registry *prometheus.Registry,
	log *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   cfg.FestivalName,
		BodyLimit: service.MaxProofBytes + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(handler.StatusFor(err)).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE",
	}))
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")
	api.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitPerMinute,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	handler.RegisterRoutes(api, handlers,
		middleware.AuthMiddleware(tokens, stores.Profiles, log),
		middleware.RequireAdmin(adminService, log))
	return app
}
