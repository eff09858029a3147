package routes

import (
	"net/http"

	"github.com/address-simplifier/app/controllers"
	"github.com/address-simplifier/app/responses"
	"github.com/address-simplifier/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupAPIRoutes registers the search route and the /v1 API
func SetupAPIRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController) {
	router.GET("/search_address_api", addressController.SearchAddress)

	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/jobs", addressController.BatchSearch)
			addresses.GET("/jobs/:jobID/status", addressController.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", addressController.GetJobResults)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/stats", adminController.GetStats)
			admin.POST("/cache/clear", adminController.ClearCache)
		}

		v1.GET("/health", addressController.HealthCheck)
	}
}

// SetupHealthRoutes registers the probes
func SetupHealthRoutes(router *gin.Engine, addressController *controllers.AddressController) {
	router.GET("/health", addressController.HealthCheck)
	router.GET("/live", addressController.HealthCheck)
	router.GET("/ready", addressController.Ready)
}

// SetupMetricsRoutes exposes m on /metrics
func SetupMetricsRoutes(router *gin.Engine, m *metrics.Metrics) {
	router.GET("/metrics", gin.WrapH(m.Handler()))
}

// SetupAllRoutes installs middleware and every route. m may be nil.
func SetupAllRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController, m *metrics.Metrics, logger *zap.Logger) {
	setupMiddleware(router, m, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, addressController)
	SetupAPIRoutes(router, addressController, adminController)
	if m != nil {
		SetupMetricsRoutes(router, m)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{Error: "route not found: " + c.Request.Method + " " + c.Request.URL.Path})
	})
}

func setupMiddleware(router *gin.Engine, m *metrics.Metrics, logger *zap.Logger) {
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic while handling request",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, responses.ErrorResponse{Error: "internal server error"})
	}))

	router.Use(gin.Logger())

	if m != nil {
		router.Use(m.Middleware())
	}
}
