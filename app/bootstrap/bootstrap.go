// Package bootstrap builds the object graph shared by the HTTP server and
// the command line tool.
package bootstrap

import (
	"context"
	"errors"

	"github.com/address-simplifier/app/config"
	"github.com/address-simplifier/app/controllers"
	"github.com/address-simplifier/app/services"
	"github.com/address-simplifier/internal/metrics"
	"github.com/address-simplifier/internal/normalizer"
	"github.com/address-simplifier/internal/oracle"
	"github.com/address-simplifier/routes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// App holds the wired services
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Pool    *oracle.Pool
	Cache   services.ICacheService

	AddressService *services.AddressService
	BatchService   *services.BatchService
	AdminService   *services.AdminService
}

// NewLogger builds the zap logger for app.env
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	return zc.Build()
}

// New wires every service. factory opens browser sessions; pass nil to use
// headless Chrome as configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory oracle.SessionFactory) (*App, error) {
	n, err := normalizer.NewAddressNormalizer()
	if err != nil {
		return nil, err
	}

	if factory == nil {
		factory = oracle.NewChromeSessionFactory(cfg.Chrome(), logger)
	}
	limiter := oracle.NewLimiter(cfg.Oracle.RatePerSecond, cfg.Oracle.Burst)
	pool := oracle.NewPool(factory, cfg.Oracle.PoolSize, limiter, logger)

	if cfg.Oracle.WarmUp {
		if err := pool.Warm(ctx); err != nil {
			// sessions are retried lazily on the first lookup
			logger.Warn("Failed to open browser sessions at start-up", zap.Error(err))
		}
	}

	cache := NewCache(cfg, logger)
	m := metrics.New()

	addressService := services.NewAddressService(pool, n, cache, m, cfg.Address.CityPrefix, logger)
	batchService := services.NewBatchService(addressService, cfg.Jobs.MaxAddresses, cfg.Jobs.Retention, logger)

	return &App{
		Config:         cfg,
		Logger:         logger,
		Metrics:        m,
		Pool:           pool,
		Cache:          cache,
		AddressService: addressService,
		BatchService:   batchService,
		AdminService:   services.NewAdminService(cache, pool, batchService, logger),
	}, nil
}

// NewCache returns the lookup cache for cfg: nil when disabled, memory only
// without a Redis URL, memory in front of Redis otherwise. An unreachable
// Redis degrades to memory only.
func NewCache(cfg *config.Config, logger *zap.Logger) services.ICacheService {
	if !cfg.Cache.Enabled {
		logger.Info("Lookup cache disabled")
		return nil
	}

	memory := services.NewMemoryCacheService(cfg.Cache.L1Size, cfg.Cache.TTL)
	if cfg.Cache.RedisURL == "" {
		return memory
	}

	redisCache, err := services.NewRedisCacheService(cfg.Cache.RedisURL, cfg.Cache.TTL, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory cache only", zap.Error(err))
		return memory
	}
	logger.Info("Lookup cache: memory + redis")
	return services.NewHybridCacheService(memory, redisCache, logger)
}

// Router returns a gin engine with every route installed
func (a *App) Router() *gin.Engine {
	if a.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupAllRoutes(router,
		controllers.NewAddressController(a.AddressService, a.BatchService, a.Pool, a.Logger),
		controllers.NewAdminController(a.AdminService, a.Logger),
		a.Metrics, a.Logger)
	return router
}

// Close stops batch jobs, closes browser sessions and the cache
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.BatchService.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Pool.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
