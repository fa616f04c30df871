package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dgtech/config"
	"dgtech/internal/events"
	"dgtech/internal/handler"
	"dgtech/internal/httpserver"
	"dgtech/internal/onboarding"
	"dgtech/internal/repository"
	"dgtech/internal/service/auth"
	"dgtech/internal/service/dashboard"
	"dgtech/internal/service/deliverable"
	"dgtech/internal/service/profile"
	"dgtech/internal/service/project"
	"dgtech/pkg/circuitbreaker"
	"dgtech/pkg/db"
	"dgtech/pkg/logger"
	"dgtech/pkg/mq"
	"dgtech/pkg/redis"
	"dgtech/pkg/storage"
	"dgtech/pkg/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Debug)
	defer log.Sync()

	log.Info("Starting portal...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.Bool("mq_enabled", cfg.MQ.URL != ""),
		zap.Bool("redis_enabled", cfg.Redis.Addr != ""),
		zap.Bool("storage_enabled", cfg.Storage.Endpoint != ""),
	)

	// Migrations
	if cfg.DB.MigrationsPath != "" {
		if err := db.Migrate(cfg.DB, true, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// MQ Publisher
	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.MQ.URL != "" {
		mqPublisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer mqPublisher.Close()
		publisher = events.Guard(mqPublisher, circuitbreaker.New(circuitbreaker.DefaultConfig()))
	}
	emitter := events.NewEmitter(publisher, log)

	// Redis token revocation
	var revoker auth.Revoker
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to init Redis", zap.Error(err))
		}
		defer rdb.Close()
		revoker = util.NewTokenRevoker(rdb, log)
	}

	// Object storage
	objects, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatal("Failed to init storage", zap.Error(err))
	}

	// Repositories
	profileRepo := repository.NewProfileRepository(dbConn, log)
	projectRepo := repository.NewProjectRepository(dbConn, log)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	messageRepo := repository.NewMessageRepository(dbConn, log)
	deliverableRepo := repository.NewDeliverableRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)

	// Services
	profileService := profile.NewService(profileRepo, log)
	projectService := project.NewService(projectRepo, profileService, emitter, log)
	workspace := project.NewWorkspace(projectService, milestoneRepo, messageRepo, log)
	authService := auth.NewService(userRepo, profileService, revoker, cfg.JWT.Secret, cfg.JWT.TTL(), log)
	dashboardService := dashboard.NewService(projectRepo, milestoneRepo, messageRepo, deliverableRepo, log)
	deliverableService := deliverable.NewService(projectService, milestoneRepo, deliverableRepo, objects, log)
	controller := onboarding.NewController(projectService, log)
	wizard := onboarding.NewWizard(projectService, log)

	// HTTP Server
	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:        handler.NewAuthHandler(authService, log),
		Profile:     handler.NewProfileHandler(profileService, controller, log),
		Onboarding:  handler.NewOnboardingHandler(controller, wizard, log),
		Project:     handler.NewProjectHandler(projectService, workspace, log),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		Deliverable: handler.NewDeliverableHandler(deliverableService, log),
	}, httpserver.Deps{
		AuthService:           authService,
		Profiles:              profileService,
		Controller:            controller,
		DB:                    dbConn,
		Logger:                log,
		AuthRequestsPerMinute: cfg.Server.AuthRequestsPerMinute,
		AuthBurst:             cfg.Server.AuthBurst,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("portal is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down portal gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("portal shutdown complete")
}
