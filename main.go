// Package main is the entry point of the partner program service
//
//	@title						Orochi Partners API
//	@version					1.0
//	@description				Partner program onboarding, provisioning and link settings.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/orochi-partners/app/handlers"
	"github.com/amirphl/orochi-partners/app/middleware"
	"github.com/amirphl/orochi-partners/app/router"
	"github.com/amirphl/orochi-partners/app/services"
	businessflow "github.com/amirphl/orochi-partners/business_flow"
	"github.com/amirphl/orochi-partners/config"
	"github.com/amirphl/orochi-partners/logging"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application holds the wired server and the hooks run on shutdown
type Application struct {
	router     router.Router
	config     *config.ProductionConfig
	server     *fiber.App
	dispatcher *businessflow.BestEffortDispatcherImpl
	stopFuncs  []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		Caller:     cfg.Logging.EnableCaller,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})

	logging.Info().
		Str("version", cfg.Deployment.Version).
		Str("commit", cfg.Deployment.CommitHash).
		Str("env", cfg.Deployment.Environment).
		Msg("Starting partners service")

	app, err := initializeApplication(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize application")
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		logging.Info().Str("address", address).Msg("Server starting")

		if err := app.router.Start(address); err != nil {
			logging.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-sigChan
	logging.Info().Msg("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}

	// Let in-flight invitations and imports finish before closing their clients
	app.dispatcher.Wait()

	for _, fn := range app.stopFuncs {
		fn()
	}

	logging.Info().Msg("Server stopped")
}

// initializeDatabase opens the postgres pool
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Database connection established")

	return db, nil
}

// initializeCache connects to redis. It returns nil when caching is disabled.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logging.Info().Int("db", cfg.RedisDB).Msg("Redis connection established")
	return rc, nil
}

// startCacheHealthMonitor pings redis on an interval until the returned func is called
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					logging.Warn().Err(err).Msg("Redis healthcheck failed")
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeNotificationService(cfg config.EmailConfig) services.NotificationService {
	var provider services.EmailProvider
	switch cfg.Provider {
	case "smtp":
		provider = services.NewBreakerEmailProvider(services.NewSMTPEmailProvider(cfg), cfg)
	default:
		provider = services.NewMockEmailProvider()
	}
	return services.NewNotificationService(provider)
}

func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() { _ = sqlDB.Close() })

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, errors.New("redis is required by the campaign importer")
	}
	stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval))
	stopFuncs = append(stopFuncs, func() { _ = rc.Close() })

	// Repositories
	workspaceRepo := repository.NewWorkspaceRepository(db)
	domainRepo := repository.NewDomainRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	programRepo := repository.NewProgramRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	enrollmentRepo := repository.NewProgramEnrollmentRepository(db)
	onboardingRepo := repository.NewProgramOnboardingRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	transactor := repository.NewTransactor(db)

	// Services
	tokenService, err := services.NewTokenService(
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logging.Info().Str("issuer", cfg.JWT.Issuer).Str("audience", cfg.JWT.Audience).Msg("Token service initialized")

	notifier := initializeNotificationService(cfg.Email)
	storage := services.NewLocalStorageService(cfg.Storage)
	logoProcessor := services.NewLogoProcessor(cfg.Storage.MaxLogoSide)
	importer := services.NewCampaignImporter(rc, cfg.Importer)
	programCache := services.NewProgramCache(rc, cfg.Cache.RedisPrefix, cfg.Cache.ProgramTTL)
	dispatcher := businessflow.NewBestEffortDispatcher(cfg.Partners.InviteConcurrency)

	// Flows
	domainVerifier := businessflow.NewDomainVerifier(domainRepo)
	linkFlow := businessflow.NewLinkFlow(linkRepo, domainVerifier)
	enrollmentFlow := businessflow.NewPartnerEnrollmentFlow(partnerRepo, enrollmentRepo, linkRepo, transactor)
	onboardingFlow := businessflow.NewOnboardingFlow(onboardingRepo, auditRepo, storage, logoProcessor)
	provisioningFlow := businessflow.NewProgramProvisioningFlow(
		workspaceRepo,
		onboardingRepo,
		folderRepo,
		programRepo,
		rewardRepo,
		auditRepo,
		transactor,
		domainVerifier,
		linkFlow,
		enrollmentFlow,
		storage,
		logoProcessor,
		notifier,
		importer,
		dispatcher,
		cfg.Partners,
	)
	settingsFlow := businessflow.NewProgramSettingsFlow(programRepo, folderRepo, auditRepo, domainVerifier, programCache)

	appRouter := router.NewFiberRouter(
		cfg,
		router.Handlers{
			Onboarding: handlers.NewOnboardingHandler(onboardingFlow),
			Programs:   handlers.NewProgramHandler(provisioningFlow, settingsFlow, cfg.Partners.AppBaseURL),
		},
		middleware.NewAuthMiddleware(tokenService),
		middleware.NewWorkspaceGuard(workspaceRepo),
		map[string]router.HealthCheck{
			"database": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return rc.Ping(ctx).Err() },
		},
	)

	return &Application{
		router:     appRouter,
		config:     cfg,
		server:     appRouter.GetApp(),
		dispatcher: dispatcher,
		stopFuncs:  stopFuncs,
	}, nil
}
