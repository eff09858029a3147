package controllers

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/address-simplifier/app/models"
	"github.com/address-simplifier/app/requests"
	"github.com/address-simplifier/app/responses"
	"github.com/address-simplifier/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version reported by the health routes
const Version = "1.0.0"

const readinessTimeout = 30 * time.Second

// ReadinessChecker reports whether lookups can be served
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// AddressController handles address search and batch job requests
type AddressController struct {
	addressService *services.AddressService
	batchService   *services.BatchService
	readiness      ReadinessChecker
	logger         *zap.Logger
}

// NewAddressController creates the controller. readiness may be nil.
func NewAddressController(addressService *services.AddressService, batchService *services.BatchService, readiness ReadinessChecker, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		batchService:   batchService,
		readiness:      readiness,
		logger:         logger,
	}
}

// SearchAddress handles GET /search_address_api?address=...
func (ac *AddressController) SearchAddress(c *gin.Context) {
	var req requests.SearchAddressRequest
	if err := c.ShouldBindQuery(&req); err != nil || strings.TrimSpace(req.Address) == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: services.ErrInvalidAddress.Error()})
		return
	}
	address := strings.TrimSpace(req.Address)

	result, err := ac.addressService.SearchAddress(c.Request.Context(), address)
	if err != nil {
		status, message := errorResponse(err)
		ac.logger.Error("Address search failed",
			zap.String("address", address),
			zap.Int("status", status),
			zap.Error(err))
		c.JSON(status, responses.ErrorResponse{Error: message})
		return
	}

	c.JSON(http.StatusOK, responses.SearchAddressResponse{
		SimplifiedAddress:          result.SimplifiedAddress,
		FormattedSimplifiedAddress: result.FormattedSimplifiedAddress,
		Status:                     result.Status,
	})
}

// BatchSearch queues a background job for many addresses
func (ac *AddressController) BatchSearch(c *gin.Context) {
	var req requests.BatchSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}

	job, err := ac.batchService.Submit(req.Addresses)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, responses.BatchSearchResponse{
		JobID:          job.ID,
		TotalAddresses: job.Total,
		Message:        "job accepted",
	})
}

// GetJobStatus returns the progress of a batch job
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	job, err := ac.batchService.Status(c.Param("jobID"))
	if err != nil {
		ac.jobError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Progress:  job.Progress(),
		Processed: job.Processed,
		Failed:    job.Failed,
		Total:     job.Total,
	})
}

// GetJobResults returns the items processed so far, as one JSON document
// or as NDJSON with ?format=ndjson (optionally gzipped with &gzip=1)
func (ac *AddressController) GetJobResults(c *gin.Context) {
	job, err := ac.batchService.Results(c.Param("jobID"))
	if err != nil {
		ac.jobError(c, err)
		return
	}

	if c.Query("format") == "ndjson" {
		ac.streamNDJSON(c, job.Items, c.Query("gzip") == "1")
		return
	}

	c.JSON(http.StatusOK, responses.JobResultsResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Results: job.Items,
	})
}

func (ac *AddressController) jobError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{Error: err.Error()})
		return
	}
	ac.logger.Error("Batch job query failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, responses.ErrorResponse{Error: err.Error()})
}

func (ac *AddressController) streamNDJSON(c *gin.Context, items []models.BatchItem, gzipEnabled bool) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{ResponseWriter: c.Writer, gzWriter: gzWriter}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	for _, item := range items {
		if err := encoder.Encode(item); err != nil {
			ac.logger.Error("Failed to encode NDJSON line", zap.Error(err))
			return
		}
		writer.Flush()
	}
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	_ = w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}

// HealthCheck is the liveness probe
func (ac *AddressController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.addressService.GetStartTime()).Round(time.Second).String(),
		Version:   Version,
		Services: map[string]string{
			"address_simplifier": "healthy",
		},
	})
}

// Ready is the readiness probe: 503 until a browser session can be used
func (ac *AddressController) Ready(c *gin.Context) {
	if ac.readiness != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := ac.readiness.Ready(ctx); err != nil {
			ac.logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, responses.ErrorResponse{Error: err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "ready",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.addressService.GetStartTime()).Round(time.Second).String(),
		Version:   Version,
		Services: map[string]string{
			"oracle": "healthy",
		},
	})
}
