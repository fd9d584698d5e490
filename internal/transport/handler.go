package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/anime-shed/brand-inspector-go/internal/config"
	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/internal/service"
	"github.com/anime-shed/brand-inspector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// NewHandler builds the HTTP API on top of the inspection service
func NewHandler(svc service.InspectionService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/metrics", metrics(svc))

	r.POST("/classify", classify(svc, cfg))
	r.POST("/verify", verify(svc, cfg))
	r.POST("/verify/batch", verifyBatch(svc, cfg))
	r.POST("/extract", extract(svc, cfg))
	r.POST("/inspect", inspect(svc, cfg))
	r.POST("/text", checkText(svc, cfg))

	r.GET("/reports", listReports(svc))
	r.GET("/reports/:id", getReport(svc))

	r.GET("/ws/live", liveVerify(svc, cfg))

	return r
}

// bindAndRun decodes the JSON body into T, runs fn under the request timeout
// and writes the result.
func bindAndRun[T any, R any](cfg *config.Config, operation string, fn func(ctx context.Context, req T) (R, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing " + operation + " request")

		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := fn(ctx, req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
				err = apperrors.NewTimeoutError(operation+" timed out", err)
			}
			respondError(c, determineStatusCode(err), operation+" failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"path":               c.Request.URL.Path,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Request completed successfully")

		c.JSON(http.StatusOK, resp)
	}
}

func classify(svc service.InspectionService, cfg *config.Config) gin.HandlerFunc {
	return bindAndRun(cfg, "classification", svc.Classify)
}

func verify(svc service.InspectionService, cfg *config.Config) gin.HandlerFunc {
	return bindAndRun(cfg, "verification", svc.Verify)
}

func verifyBatch(svc service.InspectionService, cfg *config.Config) gin.HandlerFunc {
	return bindAndRun(cfg, "batch verification", svc.VerifyBatch)
}

func extract(svc service.InspectionService, cfg *config.Config) gin.HandlerFunc {
	return bindAndRun(cfg, "extraction", svc.Extract)
}

func inspect(svc service.InspectionService, cfg *config.Config) gin.HandlerFunc {
	return bindAndRun(cfg, "content check", svc.Inspect)
}

func checkText(svc service.InspectionService, cfg *config.Config) gin.HandlerFunc {
	return bindAndRun(cfg, "text check", svc.CheckText)
}

func getReport(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.GetReport(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to load report", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func listReports(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				respondError(c, http.StatusBadRequest, "invalid limit",
					apperrors.NewValidationError("limit must be a positive integer", err))
				return
			}
			limit = n
		}

		list, err := svc.ListReports(c.Request.Context(), c.Query("source"), limit)
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to list reports", err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func metrics(svc service.InspectionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Metrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
		resp.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		resp.Details = appErr.Details
	}
	c.AbortWithStatusJSON(code, resp)
}
