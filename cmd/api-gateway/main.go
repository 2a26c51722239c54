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
	"go.uber.org/zap"

	_ "github.com/edubright/gamesync-api/api/swagger"
	"github.com/edubright/gamesync-api/internal/handler"
	"github.com/edubright/gamesync-api/internal/middleware"
	"github.com/edubright/gamesync-api/internal/repository"
	"github.com/edubright/gamesync-api/internal/service"
	"github.com/edubright/gamesync-api/pkg/cache"
	"github.com/edubright/gamesync-api/pkg/config"
	"github.com/edubright/gamesync-api/pkg/database"
	"github.com/edubright/gamesync-api/pkg/export"
	"github.com/edubright/gamesync-api/pkg/logger"
	corsmiddleware "github.com/edubright/gamesync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edubright/gamesync-api/pkg/middleware/requestid"
)

// @title EduBright Game Sync API
// @version 1.0.0
// @description Game session synchronization and impact engine service
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Results caching and UI sync degrade gracefully without Redis.
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	sessionRepo := repository.NewSessionRepository(db)
	playRepo := repository.NewPlayRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	gameRepo := repository.NewGameRepository(db)
	subjectRepo := repository.NewSubjectScoreRepository(db)
	skillRepo := repository.NewSkillScoreRepository(db)
	traitRepo := repository.NewTraitRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	actionPlanRepo := repository.NewActionPlanRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	ruleRepo := repository.NewImpactRuleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	metricsSvc := service.NewMetricsService()

	impactSvc := service.NewImpactService(
		ruleRepo,
		traitRepo,
		subjectRepo,
		skillRepo,
		activityRepo,
		studentRepo,
		gameRepo,
		recommendationRepo,
		badgeRepo,
		actionPlanRepo,
		playRepo,
		metricsSvc,
		logr,
	)

	dispatcher := service.NewEngineDispatcher(impactSvc, cfg.Engine, logr)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	sessionSvc := service.NewSessionService(
		sessionRepo,
		playRepo,
		studentRepo,
		gameRepo,
		cacheRepo,
		dispatcher,
		metricsSvc,
		cfg.Sessions.ResultsTTL,
		validate,
		logr,
	)
	uiSyncSvc := service.NewUISyncService(cacheRepo, cfg.UISync.TTL, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, actionPlanRepo, logr)
	reportSvc := service.NewReportService(
		studentRepo,
		subjectRepo,
		skillRepo,
		badgeRepo,
		playRepo,
		export.NewCSVExporter(),
		export.NewPDFExporter(),
		logr,
	)

	sessionHandler := handler.NewSessionHandler(sessionSvc)
	uiSyncHandler := handler.NewUISyncHandler(uiSyncSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)

	gameSync := api.Group("/game-sync")
	{
		gameSync.POST("/sessions", sessionHandler.Register)
		gameSync.GET("/sessions", sessionHandler.List)
		gameSync.GET("/sessions/next", sessionHandler.Next)
		gameSync.GET("/sessions/:id", sessionHandler.Status)
		gameSync.POST("/sessions/:id/start", sessionHandler.Start)
		gameSync.POST("/sessions/:id/end", sessionHandler.End)
		gameSync.GET("/results", sessionHandler.Results)
		gameSync.POST("/ui-sync", uiSyncHandler.Update)
		gameSync.GET("/ui-sync-status", uiSyncHandler.Status)
	}

	students := api.Group("/students")
	{
		students.GET("/:id/action-plans", studentHandler.ActionPlans)
		if cfg.Reports.Enabled {
			students.GET("/:id/progress-report", middleware.Admin(cfg.Admin.TokenSecret), studentHandler.ProgressReport)
		}
	}

	admin := api.Group("/admin", middleware.Admin(cfg.Admin.TokenSecret))
	{
		admin.POST("/sessions/cleanup", sessionHandler.Cleanup)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Sessions.SweepEnabled {
		go runSweep(ctx, sessionSvc, metricsSvc, cfg.Sessions, logr)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}

// runSweep periodically deletes pending sessions older than the
// configured maximum age. Started and completed sessions are never
// touched.
func runSweep(ctx context.Context, sessions *service.SessionService, metrics *service.MetricsService, cfg config.SessionsConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := sessions.Cleanup(ctx, cfg.MaxPendingAge)
			if err != nil {
				logr.Sugar().Errorw("stale session sweep failed", "error", err)
				continue
			}
			metrics.SweepDeleted(deleted)
			if deleted > 0 {
				logr.Sugar().Infow("stale sessions removed", "count", deleted)
			}
		}
	}
}
