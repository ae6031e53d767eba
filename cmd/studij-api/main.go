package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/studijbot/studij-api/api/swagger"
	"github.com/studijbot/studij-api/internal/handler"
	"github.com/studijbot/studij-api/internal/middleware"
	"github.com/studijbot/studij-api/internal/platform/discord"
	"github.com/studijbot/studij-api/internal/repository"
	"github.com/studijbot/studij-api/internal/service"
	"github.com/studijbot/studij-api/pkg/cache"
	"github.com/studijbot/studij-api/pkg/config"
	"github.com/studijbot/studij-api/pkg/database"
	"github.com/studijbot/studij-api/pkg/logger"
	corsmiddleware "github.com/studijbot/studij-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studijbot/studij-api/pkg/middleware/requestid"
)

// @title Studij API
// @version 0.1.0
// @description Course catalog, study materials and deadline notifications for Discord study servers
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
		}
	}

	validate := validator.New()

	catalogRepo := repository.NewCatalogRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	deadlineRepo := repository.NewDeadlineRepository(db)
	guildRepo := repository.NewGuildConfigRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "studij-api",
	})
	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, materialRepo, deadlineRepo, cacheSvc, validate, logr)
	materialSvc := service.NewMaterialService(materialRepo, subjectRepo, cacheSvc, validate, logr)
	deadlineSvc := service.NewDeadlineService(deadlineRepo, subjectRepo, cacheSvc, validate, logr)
	guildSvc := service.NewGuildConfigService(guildRepo, catalogRepo, validate, logr)
	exportSvc := service.NewExportService(deadlineRepo, catalogRepo, logr, nil, nil)

	var sender *discord.Sender
	if cfg.Discord.Token != "" {
		sender, err = discord.New(cfg.Discord.Token, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to create discord sender", "error", err)
		}
		if err := sender.Open(); err != nil {
			logr.Sugar().Fatalw("failed to open discord session", "error", err)
		}
		defer sender.Close() //nolint:errcheck
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notifier *service.NotifierService
	if cfg.Notifier.Enabled && sender != nil {
		notifier = service.NewNotifierService(guildRepo, deadlineRepo, sender, metricsSvc, logr, service.NotifierConfig{
			Schedule:      cfg.Notifier.Schedule,
			WeekThreshold: cfg.Notifier.WeekThresholdDays,
			DayThreshold:  cfg.Notifier.DayThresholdDays,
		})
		if err := notifier.Start(ctx); err != nil {
			logr.Sugar().Fatalw("failed to start notifier", "error", err)
		}
		defer notifier.Stop()
	} else {
		logr.Info("notifier disabled", zap.Bool("enabled", cfg.Notifier.Enabled), zap.Bool("sender", sender != nil))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	authHandler := handler.NewAuthHandler(authSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	materialHandler := handler.NewMaterialHandler(materialSvc)
	deadlineHandler := handler.NewDeadlineHandler(deadlineSvc)
	guildHandler := handler.NewGuildConfigHandler(guildSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db.Ping)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/programs", catalogHandler.ListPrograms)
		protected.POST("/programs", catalogHandler.CreateProgram)
		protected.DELETE("/programs/:id", catalogHandler.DeleteProgram)
		protected.GET("/programs/:id/years", catalogHandler.ListYears)
		protected.POST("/years", catalogHandler.CreateYear)
		protected.GET("/years/:id/semesters", catalogHandler.ListSemesters)
		protected.POST("/semesters", catalogHandler.CreateSemester)
		protected.GET("/semesters/:id/deadlines", deadlineHandler.ListUpcoming)

		protected.GET("/subjects", subjectHandler.List)
		protected.POST("/subjects", subjectHandler.Create)
		protected.GET("/subjects/:id", subjectHandler.Get)
		protected.DELETE("/subjects/:id", subjectHandler.Delete)
		protected.GET("/subjects/:id/detail", subjectHandler.Detail)
		protected.GET("/subjects/:id/materials", materialHandler.ListForSubject)
		protected.GET("/subjects/:id/deadlines", deadlineHandler.ListForSubject)

		protected.POST("/materials", materialHandler.Create)
		protected.DELETE("/materials/:id", materialHandler.Delete)

		protected.POST("/deadlines", deadlineHandler.Create)
		protected.DELETE("/deadlines/:id", deadlineHandler.Delete)

		protected.GET("/guilds/:id/config", guildHandler.Get)
		protected.PUT("/guilds/:id/setup", guildHandler.Setup)
		protected.PUT("/guilds/:id/channel", guildHandler.SetChannel)

		protected.GET("/export/deadlines", exportHandler.Deadlines)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
