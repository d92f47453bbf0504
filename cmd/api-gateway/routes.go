package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/stjcampus/events-api/internal/handler"
	"github.com/stjcampus/events-api/internal/middleware"
	"github.com/stjcampus/events-api/internal/models"
	"github.com/stjcampus/events-api/internal/repository"
	"github.com/stjcampus/events-api/internal/service"
	"github.com/stjcampus/events-api/pkg/config"
	"github.com/stjcampus/events-api/pkg/logger"
	corsmiddleware "github.com/stjcampus/events-api/pkg/middleware/cors"
	reqidmiddleware "github.com/stjcampus/events-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth          *service.AuthService
	users         *service.UserService
	programs      *service.ProgramService
	events        *service.EventService
	registrations *service.RegistrationService
	attendance    *service.AttendanceService
	notifications *service.NotificationService
	results       *service.ResultService
	reports       *service.ReportService
	dashboard     *service.DashboardService
	metrics       *service.MetricsService
	audit         *repository.UserRepository
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	authHandler := handler.NewAuthHandler(deps.auth)
	userHandler := handler.NewUserHandler(deps.users)
	programHandler := handler.NewProgramHandler(deps.programs)
	eventHandler := handler.NewEventHandler(deps.events)
	registrationHandler := handler.NewRegistrationHandler(deps.registrations)
	attendanceHandler := handler.NewAttendanceHandler(deps.attendance)
	notificationHandler := handler.NewNotificationHandler(deps.notifications)
	resultHandler := handler.NewResultHandler(deps.results)
	reportHandler := handler.NewReportHandler(deps.reports)
	dashboardHandler := handler.NewDashboardHandler(deps.dashboard, deps.metrics)

	authRequired := middleware.JWT(deps.auth)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(deps.metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/register", userHandler.Register)
		auth.POST("/logout", authRequired, authHandler.Logout)
		auth.PUT("/password", authRequired, authHandler.ChangePassword)
		auth.GET("/me", authRequired, authHandler.Me)
	}

	users := api.Group("/users", authRequired)
	{
		users.GET("", adminOnly, userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", adminOnly, userHandler.Create)
		users.PUT("/:id", adminOnly, userHandler.Update)
		users.DELETE("/:id", adminOnly, userHandler.Delete)
	}

	programs := api.Group("/programs")
	{
		programs.GET("", programHandler.List)
		programs.GET("/:id", programHandler.Get)
		programs.POST("", authRequired, adminOnly, programHandler.Create)
		programs.PUT("/:id", authRequired, adminOnly, programHandler.Update)
		programs.DELETE("/:id", authRequired, adminOnly, programHandler.Delete)
	}

	events := api.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.GET("/:id", eventHandler.Get)
		events.GET("/:id/results", resultHandler.ListByEvent)
		events.POST("", authRequired, staff, eventHandler.Create)
		events.PUT("/:id", authRequired, staff, eventHandler.Update)
		events.POST("/:id/approve", authRequired, adminOnly, eventHandler.Approve)
		events.DELETE("/:id", authRequired, adminOnly,
			middleware.Audit(deps.audit, models.AuditActionEventDelete, "event"), eventHandler.Delete)
		events.GET("/:id/registrations", authRequired, staff, registrationHandler.ListByEvent)
		events.POST("/:id/results", authRequired, staff, resultHandler.Announce)
	}

	registrations := api.Group("/registrations", authRequired)
	{
		registrations.POST("", registrationHandler.Register)
		registrations.GET("/mine", registrationHandler.Mine)
		registrations.POST("/:id/confirm", staff, registrationHandler.Confirm)
	}

	attendance := api.Group("/attendance", authRequired)
	{
		attendance.POST("", attendanceHandler.Mark)
		attendance.GET("/mine", attendanceHandler.Mine)
		attendance.GET("", staff, attendanceHandler.List)
		attendance.POST("/:id/review", staff, attendanceHandler.Review)
	}

	notifications := api.Group("/notifications", authRequired)
	{
		notifications.GET("", notificationHandler.Inbox)
		notifications.GET("/:id", notificationHandler.Get)
		notifications.POST("", staff, notificationHandler.Send)
		notifications.POST("/:id/replies", notificationHandler.Reply)
	}

	reports := api.Group("/reports")
	{
		// Download is token-authenticated; the signature covers expiry.
		reports.GET("/download/:token", reportHandler.Download)
		reports.POST("", authRequired, staff, reportHandler.Create)
		reports.GET("/:id", authRequired, staff, reportHandler.Status)
	}

	dashboard := api.Group("/dashboard", authRequired, adminOnly)
	{
		dashboard.GET("", dashboardHandler.Summary)
		dashboard.GET("/metrics", dashboardHandler.SystemMetrics)
	}

	return r
}
