package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/upark/internal/adapter/cache"
	extnotify "github.com/seu-repo/upark/internal/adapter/external/notification"
	"github.com/seu-repo/upark/internal/adapter/external/payment"
	"github.com/seu-repo/upark/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/upark/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/upark/internal/adapter/queue"
	"github.com/seu-repo/upark/internal/adapter/storage/postgres"
	"github.com/seu-repo/upark/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/upark/internal/adapter/websocket"
	"github.com/seu-repo/upark/internal/observability/telemetry"
	"github.com/seu-repo/upark/internal/ports"
	"github.com/seu-repo/upark/internal/service/admin"
	"github.com/seu-repo/upark/internal/service/auth"
	"github.com/seu-repo/upark/internal/service/email"
	"github.com/seu-repo/upark/internal/service/health"
	"github.com/seu-repo/upark/internal/service/ingest"
	"github.com/seu-repo/upark/internal/service/notification"
	"github.com/seu-repo/upark/internal/service/reconcile"
	"github.com/seu-repo/upark/internal/service/reservation"
	"github.com/seu-repo/upark/pkg/config"
)

const serviceName = "upark-backend"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting uPark backend",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Resolve secrets from Vault when enabled
	if cfg.Vault.Enabled {
		if err := resolveSecrets(cfg, logger); err != nil {
			logger.Fatal("Failed to resolve secrets from Vault", zap.Error(err))
		}
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// 6. Initialize Cache (Redis with in-process fallback)
	appCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process cache", zap.Error(err))
		appCache = cache.NewLocalCache(5*time.Minute, logger)
	}
	defer appCache.Close()

	// 7. Initialize Message Queue
	mq, err := queue.New(cfg.Queue.Driver, cfg.Queue.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer mq.Close()

	// 8. Initialize Repositories
	slotRepo := postgres.NewSlotRepository(db)
	reservationRepo := postgres.NewReservationRepository(db)
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)

	if err := slotRepo.Provision(context.Background(), cfg.Parking.TotalSlots); err != nil {
		logger.Fatal("Failed to provision slots", zap.Error(err))
	}

	// 9. Initialize WebSocket Hub (live viewer feed)
	wsHub := wsAdapter.NewHub()
	go wsHub.Run()

	// 10. Notification fan-out and reconciler
	fanout := notification.NewFanout(wsHub, mq, slotRepo, notification.Topics{
		ReservationStatus: cfg.Queue.Topics.ReservationStatus,
		AdminOverride:     cfg.Queue.Topics.AdminOverride,
		GateControl:       cfg.Queue.Topics.GateControl,
		EntryGateControl:  cfg.Queue.Topics.EntryGateControl,
		ExitGateControl:   cfg.Queue.Topics.ExitGateControl,
		VehicleStatus:     cfg.Queue.Topics.VehicleStatus,
	}, logger)
	reconciler := reconcile.NewService(slotRepo, fanout, logger)

	// 11. Sensor ingest wired to the bus
	ingestService := ingest.NewService(reconciler, slotRepo, logger)
	if err := mq.Subscribe(cfg.Queue.Topics.SlotStatus, func(data []byte) error {
		return ingestService.HandleSweep(context.Background(), data)
	}); err != nil {
		logger.Fatal("Failed to subscribe to sensor sweeps", zap.Error(err))
	}
	if err := mq.Subscribe(cfg.Queue.Topics.DeviceStatus, func(data []byte) error {
		return fanout.HandleDeviceStatus(context.Background(), data)
	}); err != nil {
		logger.Fatal("Failed to subscribe to device status", zap.Error(err))
	}
	if err := mq.Subscribe(cfg.Queue.Topics.GateStatus, func(data []byte) error {
		return fanout.HandleGateStatus(context.Background(), data)
	}); err != nil {
		logger.Fatal("Failed to subscribe to gate status", zap.Error(err))
	}

	// The display unit may have restarted while we were down.
	fanout.RepublishReservedSet(context.Background())

	// 12. Outbound notification channels
	var smsSender ports.SMSSender
	if cfg.Notification.SMS.AccountSID != "" {
		smsSender = extnotify.NewSMSAdapter(
			cfg.Notification.SMS.AccountSID,
			cfg.Notification.SMS.AuthToken,
			cfg.Notification.SMS.From,
			logger,
		)
	} else {
		logger.Warn("SMS provider not configured, OTP codes will be returned in responses")
	}

	emailService, err := email.NewService(emailConfig(cfg), logger)
	if err != nil {
		logger.Warn("Email service unavailable, receipts fall back to SMS", zap.Error(err))
		emailService = nil
	}
	receipts := extnotify.NewReceiptAdapter(userRepo, emailService, smsSender, logger)

	// 13. Payment gateway
	var gateway ports.PaymentGateway
	switch cfg.Payment.Provider {
	case "stripe":
		gateway = payment.NewStripeGateway(cfg.Payment.Stripe.SecretKey, cfg.Payment.Stripe.Currency, logger)
	default:
		logger.Warn("Using mock payment gateway", zap.String("provider", cfg.Payment.Provider))
		gateway = payment.NewMockGateway(cfg.Payment.MockFailureRate, logger)
	}
	gateway = payment.WithBreaker(gateway, logger)

	// 14. Initialize Services (Business Logic Layer)
	authService := auth.NewService(userRepo, appCache, smsSender, cfg.JWT.Secret, cfg.JWT.AdminPhones, logger)
	reservationService := reservation.NewService(reservationRepo, slotRepo, userRepo, profileRepo, reconciler, gateway, receipts, logger)
	adminService := admin.NewService(reconciler, fanout, logger)

	healthService := health.NewService(cfg.App.Version, logger)
	healthService.RegisterChecker("database", func(ctx context.Context) error {
		return sqlDB.PingContext(ctx)
	})
	healthService.RegisterChecker("cache", func(ctx context.Context) error {
		return appCache.Ping()
	})

	// 15. Background expiry sweep
	expiryCtx, stopExpiry := context.WithCancel(context.Background())
	defer stopExpiry()
	go runExpirySweep(expiryCtx, reservationService, cfg.Parking.ExpiryInterval, logger)

	// 16. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(logger))
	}

	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// 17. Routes
	authRequired := middleware.AuthRequired(authService)

	health.NewFiberHandler(healthService).RegisterRoutes(app)
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(app, authRequired)
	handlers.NewSlotHandler(reconciler).RegisterRoutes(app)
	reservation.NewHandler(reservationService).RegisterRoutes(app, authRequired)
	admin.NewHandler(adminService, reconciler).RegisterRoutes(app, authRequired, admin.AdminMiddleware())

	// Live viewer feed. New connections get a full snapshot first, then the
	// per-slot change stream.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/updates", websocket.New(func(c *websocket.Conn) {
		wsHub.AddClient(c, func() []byte {
			snapshot, err := reconciler.Snapshot(context.Background())
			if err != nil {
				logger.Error("Failed to load snapshot for new viewer", zap.Error(err))
				return nil
			}
			initial, err := json.Marshal(fiber.Map{"type": "snapshot", "slots": snapshot})
			if err != nil {
				return nil
			}
			return initial
		})
	}))

	// 18. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 19. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopExpiry()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// resolveSecrets overwrites config credentials with their Vault counterparts.
// Missing keys keep whatever the environment provided.
func resolveSecrets(cfg *config.Config, logger *zap.Logger) error {
	sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, cfg.Vault.Mount)
	if err != nil {
		return err
	}

	if url, err := sm.GetDatabaseURL(); err == nil && url != "" {
		cfg.Database.URL = url
	}
	if secret, err := sm.GetJWTSecret(); err == nil && secret != "" {
		cfg.JWT.Secret = secret
	}
	if key, err := sm.GetStripeKey(); err == nil && key != "" {
		cfg.Payment.Stripe.SecretKey = key
	}
	if token, err := sm.GetTwilioToken(); err == nil && token != "" {
		cfg.Notification.SMS.AuthToken = token
	}

	logger.Info("Secrets resolved from Vault", zap.String("address", cfg.Vault.Address))
	return nil
}

func emailConfig(cfg *config.Config) *email.Config {
	ec := email.DefaultConfig()
	if cfg.Notification.Email.Provider != "" {
		ec.Provider = cfg.Notification.Email.Provider
	}
	if cfg.Notification.Email.From != "" {
		ec.FromEmail = cfg.Notification.Email.From
	}
	if cfg.Notification.Email.FromName != "" {
		ec.FromName = cfg.Notification.Email.FromName
	}
	ec.SendGridAPIKey = cfg.Notification.Email.APIKey
	return ec
}

// runExpirySweep periodically expires reservations whose booking window has
// ended and releases their slots.
func runExpirySweep(ctx context.Context, service *reservation.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := service.Expire(ctx, time.Now())
			if err != nil {
				logger.Error("Expiry sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				logger.Info("Expired reservations released", zap.Int("count", count))
			}
		}
	}
}
