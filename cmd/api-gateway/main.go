package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/subject-catalog-api/api/swagger"
	"github.com/noah-isme/subject-catalog-api/internal/catalog"
	"github.com/noah-isme/subject-catalog-api/internal/handler"
	"github.com/noah-isme/subject-catalog-api/internal/middleware"
	"github.com/noah-isme/subject-catalog-api/internal/repository"
	"github.com/noah-isme/subject-catalog-api/internal/service"
	"github.com/noah-isme/subject-catalog-api/pkg/cache"
	"github.com/noah-isme/subject-catalog-api/pkg/config"
	"github.com/noah-isme/subject-catalog-api/pkg/database"
	"github.com/noah-isme/subject-catalog-api/pkg/docstore"
	"github.com/noah-isme/subject-catalog-api/pkg/export"
	"github.com/noah-isme/subject-catalog-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/subject-catalog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/subject-catalog-api/pkg/middleware/requestid"
)

// @title Subject Catalog API
// @version 1.0.0
// @description Browse, filter and administer the course subject catalog.
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

	if missing := cfg.Store.Missing(); len(missing) > 0 {
		// Every read falls back to sample subjects until these are set.
		logr.Warn("document store is not fully configured", zap.Strings("missing", missing))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collection, db := openCollection(ctx, cfg, logr)
	if db != nil {
		defer db.Close() //nolint:errcheck
	}

	redisClient := openRedis(ctx, cfg, logr)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)

	gateway := repository.NewSubjectGateway(collection, metrics, logr, repository.GatewayOptions{
		RemapWildcardOnCreate: cfg.Catalog.RemapWildcardOnCreate,
	})
	engine := catalog.NewEngine()
	subjects := service.NewSubjectService(gateway, engine, cacheSvc, metrics, validator.New(), logr, service.SubjectServiceConfig{
		CacheTTL: cfg.Catalog.CacheTTL,
	})
	initial := subjects.Load(ctx)
	logr.Info("catalog loaded",
		zap.String("source", string(initial.Source)),
		zap.Int("size", initial.Size),
		zap.Bool("cache_hit", initial.CacheHit),
	)

	sessions, err := service.NewSessionService(service.SessionConfig{
		Secret:          cfg.Session.Secret,
		AdminPassphrase: cfg.Session.AdminPassphrase,
	}, logr)
	if err != nil {
		logr.Fatal("failed to init sessions", zap.Error(err))
	}

	exporter := service.NewExportService(subjects, logr, export.NewCSVExporter(), export.NewPDFExporter())

	syncer := service.NewCatalogSyncer(subjects, service.CatalogSyncConfig{
		Interval:   cfg.Catalog.RefreshInterval,
		Workers:    cfg.Catalog.RefreshWorkers,
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
	}, logr)
	syncer.Start(ctx)
	defer syncer.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, subjects)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := strings.TrimRight(cfg.APIPrefix, "/")
	api := r.Group(prefix)
	api.Use(middleware.Session(sessions))

	subjectHandler := handler.NewSubjectHandler(subjects, exporter, prefix+"/subjects")
	sessionHandler := handler.NewSessionHandler(sessions)
	catalogHandler := handler.NewCatalogHandler(engine, syncer)
	streamHandler := handler.NewStreamHandler(engine, logr, cfg.CORS.AllowedOrigins)

	api.GET("/subjects", subjectHandler.List)
	api.GET("/subjects/search", subjectHandler.Search)
	api.GET("/subjects/export", subjectHandler.Export)
	api.GET("/subjects/:id", subjectHandler.Get)
	api.GET("/ws/catalog", streamHandler.Catalog)
	api.GET("/catalog", catalogHandler.Status)
	api.GET("/metrics/summary", metricsHandler.Summary)

	admin := api.Group("")
	admin.Use(middleware.RequireAdminView())
	admin.POST("/subjects", middleware.Audit(logr, "subject.create"), subjectHandler.Create)
	admin.PATCH("/subjects/:id", middleware.Audit(logr, "subject.update"), subjectHandler.Update)
	admin.PUT("/subjects/:id", middleware.Audit(logr, "subject.update"), subjectHandler.Update)
	admin.DELETE("/subjects/:id", middleware.Audit(logr, "subject.delete"), subjectHandler.Delete)
	admin.POST("/catalog/refresh", middleware.Audit(logr, "catalog.refresh"), catalogHandler.Refresh)

	api.GET("/session", sessionHandler.Get)
	api.POST("/session/admin", sessionHandler.EnterAdmin)
	api.DELETE("/session/admin", sessionHandler.ExitAdmin)
	api.PUT("/session/preferences", sessionHandler.UpdatePreferences)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http server shutdown error", zap.Error(err))
	}
}

// openCollection selects the document store driver. A store that cannot be
// reached at startup is still returned so reads degrade to fallback data.
func openCollection(ctx context.Context, cfg *config.Config, logr *zap.Logger) (docstore.Collection, *sqlx.DB) {
	if cfg.Store.Driver == config.StoreDriverHTTP {
		return docstore.NewHTTPCollection(docstore.HTTPConfig{
			Endpoint:     cfg.Store.Endpoint,
			ProjectID:    cfg.Store.ProjectID,
			DatabaseID:   cfg.Store.DatabaseID,
			CollectionID: cfg.Store.Collection,
			APIKey:       cfg.Store.APIKey,
			Timeout:      cfg.Store.Timeout,
		}, nil), nil
	}

	db, err := database.NewPostgres(cfg.Database)
	if db == nil {
		logr.Fatal("failed to open postgres", zap.Error(err))
	}
	if err != nil {
		logr.Warn("postgres unavailable, serving fallback subjects", zap.Error(err))
	}
	collection := docstore.NewPostgresCollection(db, cfg.Store.Collection)
	if err == nil {
		if err := collection.EnsureSchema(ctx); err != nil {
			logr.Warn("failed to ensure documents schema", zap.Error(err))
		}
	}
	return collection, db
}

func openRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Catalog.CacheEnabled {
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		return nil
	}
	return client
}
