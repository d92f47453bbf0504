package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/stjcampus/events-api/api/swagger"
	"github.com/stjcampus/events-api/internal/repository"
	"github.com/stjcampus/events-api/internal/service"
	"github.com/stjcampus/events-api/pkg/cache"
	"github.com/stjcampus/events-api/pkg/config"
	"github.com/stjcampus/events-api/pkg/database"
	"github.com/stjcampus/events-api/pkg/export"
	"github.com/stjcampus/events-api/pkg/jobs"
	"github.com/stjcampus/events-api/pkg/logger"
	"github.com/stjcampus/events-api/pkg/storage"
)

// @title Campus Events API
// @version 1.0.0
// @description Event management, registration and attendance API for college fests
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The dashboard degrades to uncached reads without Redis.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	eventRepo := repository.NewEventRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	resultRepo := repository.NewResultRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	// Services
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "campus-events-api",
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	programSvc := service.NewProgramService(programRepo, nil, logr)
	eventSvc := service.NewEventService(eventRepo, programRepo, registrationRepo, userRepo, nil, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, eventRepo, userRepo, metricsSvc, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, eventRepo, nil, logr, cfg.Geofence.RadiusMeters)
	notificationSvc := service.NewNotificationService(notificationRepo, nil, logr)
	resultSvc := service.NewResultService(resultRepo, eventRepo, registrationRepo, notificationSvc, userRepo, nil, logr)

	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(eventRepo, registrationRepo, attendanceRepo, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})

	reportSvc := service.NewReportService(reportRepo, eventRepo, queue, exportSvc, nil, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Programs:      programRepo,
		Events:        eventRepo,
		Registrations: registrationRepo,
		Users:         userRepo,
		Attendance:    attendanceRepo,
		Results:       resultRepo,
		Notifications: notificationRepo,
		Cache:         cacheRepo,
		Metrics:       metricsSvc,
		Logger:        logr,
		CacheTTL:      cfg.Dashboard.CacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	reportSvc.RecoverPendingJobs(ctx)
	go reportSvc.StartCleanup(ctx)

	router := newRouter(cfg, logr, routerDeps{
		auth:          authSvc,
		users:         userSvc,
		programs:      programSvc,
		events:        eventSvc,
		registrations: registrationSvc,
		attendance:    attendanceSvc,
		notifications: notificationSvc,
		results:       resultSvc,
		reports:       reportSvc,
		dashboard:     dashboardSvc,
		metrics:       metricsSvc,
		audit:         userRepo,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("forced shutdown", "error", err)
	}
}
