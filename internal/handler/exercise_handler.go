package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nextrep/internal/domain"
	"nextrep/internal/service"
	"nextrep/pkg/logger"
)

// preloadTimeout bounds a background warmup started over HTTP
const preloadTimeout = 2 * time.Minute

// ExerciseHandler handles HTTP requests for exercise lookups
type ExerciseHandler struct {
	service service.ExerciseService
	logger  *logger.Logger
}

// NewExerciseHandler creates a new exercise handler with dependencies
func NewExerciseHandler(service service.ExerciseService, logger *logger.Logger) *ExerciseHandler {
	return &ExerciseHandler{
		service: service,
		logger:  logger,
	}
}

// ListCategories handles GET /api/v1/categories
func (h *ExerciseHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.Categories(c.Request.Context())
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListExercises handles GET /api/v1/exercises?bodyPart=chest
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	bodyPart := c.Query("bodyPart")

	exercises, err := h.service.ExercisesByBodyPart(c.Request.Context(), bodyPart)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"body_part": bodyPart,
		"count":     len(exercises),
		"results":   exercises,
	})
}

// GetExercise handles GET /api/v1/exercises/:id
func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	detail, err := h.service.ExerciseDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Preload handles POST /api/v1/exercises/preload
// The warmup runs in the background; the response never reports failures.
// An empty body warms every category.
func (h *ExerciseHandler) Preload(c *gin.Context) {
	var req domain.PreloadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warnw("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	go func(parts []string) {
		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		defer cancel()
		h.service.Preload(ctx, parts)
	}(req.BodyParts)

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Preload started",
		"body_parts": req.BodyParts,
	})
}

// InvalidateBodyPart handles DELETE /api/v1/exercises/cache?bodyPart=chest
func (h *ExerciseHandler) InvalidateBodyPart(c *gin.Context) {
	bodyPart := c.Query("bodyPart")
	if err := h.service.InvalidateBodyPart(c.Request.Context(), bodyPart); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Exercise list cache invalidated",
		"body_part": bodyPart,
	})
}

// InvalidateExercise handles DELETE /api/v1/exercises/:id/cache
func (h *ExerciseHandler) InvalidateExercise(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.InvalidateExercise(c.Request.Context(), id); err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Exercise details cache invalidated",
		"exercise_id": id,
	})
}

// handleError processes domain errors and returns appropriate HTTP responses
func handleError(c *gin.Context, log *logger.Logger, err error) {
	var appErr *domain.AppError
	var upErr *domain.UpstreamError

	switch {
	case errors.As(err, &appErr):
		// Log internal errors but don't expose details to users
		if appErr.Internal {
			log.Errorw("Internal server error", "error", appErr.Err)
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "internal_error",
				Message: "An internal error occurred",
				Code:    appErr.StatusCode,
			})
		} else {
			c.JSON(appErr.StatusCode, domain.ErrorResponse{
				Error:   "client_error",
				Message: appErr.Message,
				Code:    appErr.StatusCode,
			})
		}

	case errors.Is(err, domain.ErrExerciseNotFound):
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error:   "not_found",
			Message: "The requested exercise was not found",
			Code:    http.StatusNotFound,
		})

	case errors.Is(err, domain.ErrNamespaceNotFound):
		c.JSON(http.StatusNotFound, domain.ErrorResponse{
			Error:   "namespace_not_found",
			Message: err.Error(),
			Code:    http.StatusNotFound,
		})

	case errors.As(err, &upErr):
		log.Warnw("Exercise API returned an error", "status", upErr.StatusCode, "url", upErr.URL)
		c.JSON(http.StatusBadGateway, domain.ErrorResponse{
			Error:   "upstream_error",
			Message: upErr.Error(),
			Code:    http.StatusBadGateway,
		})

	case errors.Is(err, domain.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse{
			Error:   "upstream_unavailable",
			Message: "The exercise API is unavailable, please try again later",
			Code:    http.StatusServiceUnavailable,
		})

	case errors.Is(err, domain.ErrRateLimitExceeded):
		c.JSON(http.StatusTooManyRequests, domain.ErrorResponse{
			Error:   "rate_limit_exceeded",
			Message: "Too many requests, please try again later",
			Code:    http.StatusTooManyRequests,
		})

	default:
		log.Errorw("Unexpected error", "error", err)
		c.JSON(http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "internal_error",
			Message: "An unexpected error occurred",
			Code:    http.StatusInternalServerError,
		})
	}
}
