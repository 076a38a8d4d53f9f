package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"macrocal/internal/auth"
	"macrocal/internal/cache"
	"macrocal/internal/client/statapi"
	"macrocal/internal/config"
	cronrunner "macrocal/internal/cron"
	"macrocal/internal/db"
	"macrocal/internal/fetcher"
	"macrocal/internal/handler"
	applog "macrocal/internal/logger"
	"macrocal/internal/metrics"
	"macrocal/internal/normalize"
	gormrepository "macrocal/internal/repository/gorm"
	"macrocal/internal/service"

	_ "macrocal/docs"
)

func main() {
	cfgPath := os.Getenv("MC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("MC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := applog.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	cacheStore, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer cache.Close(cacheStore)

	store := gormrepository.New(dbConn.Gorm)
	collector := metrics.NewCollector()

	sourcesSvc := &service.DataSourceService{
		Store:    store,
		Logger:   applog.Component(logger, "data_sources"),
		Sources:  cfg.Sources,
		StatAPIs: cfg.StatAPIs,
	}
	if _, err := sourcesSvc.EnsureDefaults(ctx); err != nil {
		logger.Warn("ensure default data sources failed", zap.Error(err))
	}

	retries := cfg.Fetcher.RetryAttempts - 1
	if retries < 0 {
		retries = 0
	}
	calendarFetcher := fetcher.New(&http.Client{}, fetcher.Config{
		UserAgent:     cfg.Fetcher.UserAgent,
		Timeout:       cfg.Fetcher.Timeout,
		MaxRetries:    retries,
		BaseBackoff:   cfg.Fetcher.RetryDelay,
		MaxBackoff:    cfg.Fetcher.MaxBackoff,
		RatePerSecond: cfg.Fetcher.RatePerSecond,
		Burst:         cfg.Fetcher.Burst,
		MaxBodyBytes:  cfg.Fetcher.MaxBodyBytes,
	}, applog.Component(logger, "fetcher"))

	tracker := &service.RevisionTracker{
		Store:     store,
		Lookup:    newSeriesRouter(cfg, cacheStore),
		Logger:    applog.Component(logger, "revisions"),
		Recorder:  collector,
		BatchSize: cfg.Revision.BatchSize,
	}
	pipeline := &service.SourcePipeline{
		Store:      store,
		Fetcher:    calendarFetcher,
		Normalizer: &normalize.Normalizer{},
		Reconciler: &service.ReleaseReconciler{Store: store, Logger: applog.Component(logger, "reconciler")},
		Revisions:  tracker,
		Logger:     applog.Component(logger, "pipeline"),
		SampleSize: cfg.Orchestrator.SampleSize,
	}
	orchestrator := &service.SyncOrchestrator{
		Store:    store,
		Sources:  sourcesSvc,
		Pipeline: pipeline,
		Logger:   applog.Component(logger, "orchestrator"),
		Recorder: collector,
		Deadline: cfg.Orchestrator.Deadline,
		Prefetch: cfg.Orchestrator.Prefetch,
		ErrorCap: cfg.Orchestrator.ErrorCap,
	}
	dedup := &service.IndicatorDedupService{Store: store, Logger: applog.Component(logger, "dedup"), Recorder: collector}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(handler.WriteAuditMiddleware(applog.Component(logger, "audit")))
	engine.Use(auth.RequireBearer(auth.JWT{Secret: []byte(cfg.Auth.JWTSecret), Leeway: cfg.Auth.Leeway}, cfg.Auth.Enabled))

	healthHandler := &handler.HealthHandler{
		DB:    handler.PingFunc(func(ctx context.Context) error { return db.Ping(ctx, dbConn) }),
		Cache: cacheStore,
	}
	healthHandler.Register(engine)
	httpLogger := applog.Component(logger, "http")
	(&handler.SyncHandler{Orchestrator: orchestrator, Logger: httpLogger}).Register(engine)
	(&handler.RevisionHandler{Tracker: tracker, Logger: httpLogger}).Register(engine)
	(&handler.MaintenanceHandler{Dedup: dedup, Logger: httpLogger}).Register(engine)
	(&handler.CatalogHandler{Store: store, Logger: httpLogger}).Register(engine)

	engine.GET("/metrics", gin.WrapH(metrics.Handler(metrics.NewRegistry(collector))))
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(applog.Component(logger, "cron"), ctx)
		jobs := []struct {
			name string
			spec string
			run  func(context.Context) error
		}{
			{"sync_schedules", cfg.Cron.SyncSchedules, func(ctx context.Context) error {
				res, err := orchestrator.Run(ctx)
				if err == nil {
					logger.Info("cron sync ok",
						zap.String("source", res.Source),
						zap.Bool("fallback", res.Fallback),
						zap.Int("inserted", res.ReleasesInserted),
						zap.Int("errors", res.ErrorsCount),
					)
				}
				return err
			}},
			{"import_release_data", cfg.Cron.ImportReleaseData, func(ctx context.Context) error {
				_, err := tracker.RunOnce(ctx)
				return err
			}},
			{"dedup_indicators", cfg.Cron.DedupIndicators, func(ctx context.Context) error {
				_, err := dedup.Run(ctx)
				return err
			}},
		}
		for _, job := range jobs {
			if _, err := cronRunner.Add(job.name, job.spec, job.run); err != nil {
				logger.Warn("cron register failed", zap.String("job", job.name), zap.Error(err))
			}
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// newSeriesRouter wires the enabled statistics APIs behind the shared cache.
func newSeriesRouter(cfg config.Config, store cache.Store) *statapi.Router {
	var providers []statapi.Provider
	store = cache.Namespace(store, "statapi")
	wrap := func(p statapi.Provider) {
		providers = append(providers, statapi.NewCachedProvider(p, store, cfg.Cache.TTL))
	}
	if cfg.StatAPIs.FRED.Enabled {
		wrap(statapi.NewFRED(nil, cfg.StatAPIs.FRED.BaseURL, cfg.StatAPIs.FRED.APIKey, cfg.StatAPIs.FRED.Timeout))
	}
	if cfg.StatAPIs.BLS.Enabled {
		wrap(statapi.NewBLS(nil, cfg.StatAPIs.BLS.BaseURL, cfg.StatAPIs.BLS.APIKey, cfg.StatAPIs.BLS.Timeout))
	}
	if cfg.StatAPIs.ECB.Enabled {
		wrap(statapi.NewECB(nil, cfg.StatAPIs.ECB.BaseURL, cfg.StatAPIs.ECB.Timeout))
	}
	return statapi.NewRouter(statapi.DefaultSeries(), providers...)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
