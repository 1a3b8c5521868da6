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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/prakarsa-dev/hcm-api/api/swagger"
	"github.com/prakarsa-dev/hcm-api/internal/handler"
	"github.com/prakarsa-dev/hcm-api/internal/middleware"
	"github.com/prakarsa-dev/hcm-api/internal/models"
	"github.com/prakarsa-dev/hcm-api/internal/repository"
	"github.com/prakarsa-dev/hcm-api/internal/service"
	"github.com/prakarsa-dev/hcm-api/pkg/cache"
	"github.com/prakarsa-dev/hcm-api/pkg/config"
	"github.com/prakarsa-dev/hcm-api/pkg/database"
	"github.com/prakarsa-dev/hcm-api/pkg/jobs"
	"github.com/prakarsa-dev/hcm-api/pkg/logger"
	corsmiddleware "github.com/prakarsa-dev/hcm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/prakarsa-dev/hcm-api/pkg/middleware/requestid"
)

// @title HCM API
// @version 1.0.0
// @description HR backend with multi-level approval workflows
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Approvals.RoleCacheTTL, logr, redisClient != nil)

	userRepo := repository.NewUserRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	chainRepo := repository.NewApprovalChainRepository(db)
	settingRepo := repository.NewAppSettingRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	deductionRepo := repository.NewDeductionRepository(db)
	paymentRepo := repository.NewProjectPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
	})
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	roleSvc := service.NewRoleConfigService(settingRepo, employeeRepo, cacheSvc, auditSvc, validate, logr, service.RoleConfigServiceConfig{
		CacheTTL: cfg.Approvals.RoleCacheTTL,
		Fallbacks: map[models.RoleKey]string{
			models.RoleKeyHRManager:      cfg.Approvals.FallbackHRManagerID,
			models.RoleKeyFinanceManager: cfg.Approvals.FallbackFinanceManagerID,
			models.RoleKeyGeneralManager: cfg.Approvals.FallbackGeneralManagerID,
		},
	})

	engine := service.NewApprovalService(chainRepo, employeeRepo, departmentRepo, projectRepo, roleSvc, metrics, logr, service.ApprovalServiceConfig{
		NamePlaceholder: cfg.Approvals.TimelineNamePlaceholder,
	})

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hcm-api",
	})

	employeeSvc := service.NewEmployeeService(employeeRepo, departmentRepo, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, employeeRepo, validate, logr)
	projectSvc := service.NewProjectService(projectRepo, employeeRepo, departmentRepo, validate, logr)
	chainSvc := service.NewApprovalChainService(chainRepo, employeeRepo, auditSvc, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, employeeRepo, engine, auditSvc, metrics, validate, logr)
	loanSvc := service.NewLoanService(loanRepo, employeeRepo, engine, auditSvc, metrics, validate, logr)
	deductionSvc := service.NewDeductionService(deductionRepo, employeeRepo, engine, auditSvc, metrics, validate, logr)
	paymentSvc := service.NewProjectPaymentService(paymentRepo, projectRepo, engine, auditSvc, metrics, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		auth:       handler.NewAuthHandler(authSvc),
		employees:  handler.NewEmployeeHandler(employeeSvc),
		depts:      handler.NewDepartmentHandler(departmentSvc),
		projects:   handler.NewProjectHandler(projectSvc),
		chains:     handler.NewApprovalChainHandler(chainSvc),
		settings:   handler.NewSettingHandler(roleSvc),
		leaves:     handler.NewLeaveHandler(leaveSvc),
		loans:      handler.NewLoanHandler(loanSvc),
		deductions: handler.NewDeductionHandler(deductionSvc),
		payments:   handler.NewProjectPaymentHandler(paymentSvc),
		metrics:    metricsHandler,
		authSvc:    authSvc,
		features:   cfg.Features,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("closing redis failed", "error", err)
	}
}

type routeDeps struct {
	auth       *handler.AuthHandler
	employees  *handler.EmployeeHandler
	depts      *handler.DepartmentHandler
	projects   *handler.ProjectHandler
	chains     *handler.ApprovalChainHandler
	settings   *handler.SettingHandler
	leaves     *handler.LeaveHandler
	loans      *handler.LoanHandler
	deductions *handler.DeductionHandler
	payments   *handler.ProjectPaymentHandler
	metrics    *handler.MetricsHandler
	authSvc    *service.AuthService
	features   config.FeaturesConfig
}

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	admin := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleHRAdmin)
	hrOrFinance := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleHRAdmin, models.RoleFinance)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.auth.Login)
		auth.POST("/refresh", deps.auth.Refresh)
		auth.POST("/logout", middleware.JWT(deps.authSvc), deps.auth.Logout)
		auth.POST("/change-password", middleware.JWT(deps.authSvc), deps.auth.ChangePassword)
		auth.GET("/me", middleware.JWT(deps.authSvc), deps.auth.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.authSvc))

	employees := protected.Group("/employees")
	{
		employees.GET("", deps.employees.List)
		employees.GET("/:id", deps.employees.Get)
		employees.POST("", admin, deps.employees.Create)
		employees.PUT("/:id", admin, deps.employees.Update)
		employees.DELETE("/:id", admin, deps.employees.Delete)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", deps.depts.List)
		departments.GET("/:id", deps.depts.Get)
		departments.POST("", admin, deps.depts.Create)
		departments.PUT("/:id", admin, deps.depts.Update)
	}

	projects := protected.Group("/projects")
	{
		projects.GET("", deps.projects.List)
		projects.GET("/:id", deps.projects.Get)
		projects.POST("", admin, deps.projects.Create)
		projects.PUT("/:id", admin, deps.projects.Update)
	}

	chains := protected.Group("/approval-chains")
	chains.Use(admin)
	{
		chains.GET("", deps.chains.List)
		chains.GET("/:id", deps.chains.Get)
		chains.POST("", deps.chains.Create)
		chains.PUT("/:id", deps.chains.Update)
		chains.DELETE("/:id", deps.chains.Delete)
	}

	settings := protected.Group("/settings")
	settings.Use(admin)
	{
		settings.GET("/role-holders", deps.settings.ListRoleHolders)
		settings.PUT("/role-holders", deps.settings.SetRoleHolder)
	}

	leaves := protected.Group("/leaves")
	{
		leaves.GET("", deps.leaves.List)
		leaves.POST("", deps.leaves.Submit)
		leaves.GET("/:id", deps.leaves.Get)
		leaves.POST("/:id/approve", deps.leaves.Approve)
		leaves.POST("/:id/reject", deps.leaves.Reject)
		leaves.GET("/:id/timeline", deps.leaves.Timeline)
	}
	protected.GET("/exports/leaves", deps.leaves.Export)

	loans := protected.Group("/loans")
	{
		loans.GET("", deps.loans.List)
		loans.POST("", deps.loans.Submit)
		loans.GET("/:id", deps.loans.Get)
		loans.POST("/:id/approve", deps.loans.Approve)
		loans.POST("/:id/reject", deps.loans.Reject)
		loans.GET("/:id/timeline", deps.loans.Timeline)
	}

	if deps.features.Deductions {
		deductions := protected.Group("/deductions")
		{
			deductions.GET("", deps.deductions.List)
			deductions.POST("", hrOrFinance, deps.deductions.Submit)
			deductions.GET("/:id", deps.deductions.Get)
			deductions.POST("/:id/approve", deps.deductions.Approve)
			deductions.POST("/:id/reject", deps.deductions.Reject)
			deductions.GET("/:id/timeline", deps.deductions.Timeline)
		}
	}

	if deps.features.ProjectPayments {
		payments := protected.Group("/project-payments")
		{
			payments.GET("", deps.payments.List)
			payments.POST("", deps.payments.Submit)
			payments.GET("/:id", deps.payments.Get)
			payments.POST("/:id/approve", deps.payments.Approve)
			payments.POST("/:id/reject", deps.payments.Reject)
			payments.GET("/:id/timeline", deps.payments.Timeline)
		}
	}

	protected.GET("/metrics/snapshot", admin, deps.metrics.Snapshot)
}
