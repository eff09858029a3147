package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/address-simplifier/app/responses"
	"github.com/address-simplifier/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController handles the admin routes
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController creates the controller
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// GetStats reports cache, browser session and job figures
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("Failed to collect stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, responses.AdminStatsResponse{
		Cache:         stats.Cache,
		Sessions:      stats.Sessions,
		Jobs:          stats.Jobs,
		MemoryUsage:   stats.MemoryUsage,
		UptimeSeconds: int64(stats.Uptime.Seconds()),
		LastUpdated:   time.Now().Format(time.RFC3339),
	})
}

// ClearCache drops every cached lookup
func (ac *AdminController) ClearCache(c *gin.Context) {
	start := time.Now()

	if err := ac.adminService.ClearCache(c.Request.Context()); err != nil {
		if errors.Is(err, services.ErrCacheDisabled) {
			c.JSON(http.StatusConflict, responses.ErrorResponse{Error: err.Error()})
			return
		}
		ac.logger.Error("Failed to clear cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{Error: err.Error()})
		return
	}

	ac.logger.Info("Cache cleared via admin API", zap.Duration("duration", time.Since(start)))
	c.JSON(http.StatusOK, responses.SuccessResponse{Success: true, Message: "cache cleared"})
}
