package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"nextrep/internal/cache"
	"nextrep/internal/domain"
	"nextrep/pkg/logger"
)

// CacheHandler exposes diagnostics and invalidation for cache namespaces
type CacheHandler struct {
	registry *cache.Registry
	logger   *logger.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(registry *cache.Registry, logger *logger.Logger) *CacheHandler {
	return &CacheHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListNamespaces handles GET /api/v1/cache
func (h *CacheHandler) ListNamespaces(c *gin.Context) {
	type namespaceView struct {
		Name       string              `json:"name"`
		Prefix     string              `json:"prefix"`
		DefaultTTL string              `json:"default_ttl"`
		Stats      cache.StatsSnapshot `json:"stats"`
	}

	names := h.registry.Names()
	views := make([]namespaceView, 0, len(names))
	for _, name := range names {
		ns, _ := h.registry.Lookup(name)
		views = append(views, namespaceView{
			Name:       name,
			Prefix:     ns.Prefix(),
			DefaultTTL: ns.DefaultTTL().String(),
			Stats:      ns.Stats(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"namespaces": views})
}

// Stats handles GET /api/v1/cache/:namespace/stats
func (h *CacheHandler) Stats(c *gin.Context) {
	ns, ok := h.lookup(c)
	if !ok {
		return
	}
	stats := ns.Stats()
	c.JSON(http.StatusOK, gin.H{
		"namespace": c.Param("namespace"),
		"stats":     stats,
		"hit_ratio": stats.HitRatio(),
	})
}

// KeyInfo handles GET /api/v1/cache/:namespace/keys/:key
func (h *CacheHandler) KeyInfo(c *gin.Context) {
	ns, ok := h.lookup(c)
	if !ok {
		return
	}
	key := c.Param("key")
	info := ns.Info(c.Request.Context(), key)

	body := gin.H{
		"namespace": c.Param("namespace"),
		"key":       key,
		"exists":    info.Exists,
		"valid":     info.Exists && info.RemainingTTL > 0,
	}
	if info.Exists {
		body["created_at"] = info.CreatedAt.UTC()
		body["expires_at"] = info.ExpiresAt.UTC()
		body["remaining_ttl_ms"] = info.RemainingTTL.Milliseconds()
	}
	c.JSON(http.StatusOK, body)
}

// RemoveKey handles DELETE /api/v1/cache/:namespace/keys/:key
func (h *CacheHandler) RemoveKey(c *gin.Context) {
	key := c.Param("key")
	if !h.registry.Remove(c.Request.Context(), c.Param("namespace"), key) {
		h.notFound(c)
		return
	}

	h.logger.Infow("Cache key removed", "namespace", c.Param("namespace"), "key", key)
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache entry removed",
		"key":     key,
	})
}

// Clear handles DELETE /api/v1/cache/:namespace
func (h *CacheHandler) Clear(c *gin.Context) {
	if !h.registry.Clear(c.Request.Context(), c.Param("namespace")) {
		h.notFound(c)
		return
	}

	h.logger.Infow("Cache namespace cleared", "namespace", c.Param("namespace"))
	c.JSON(http.StatusOK, gin.H{
		"message":   "Cache namespace cleared",
		"namespace": c.Param("namespace"),
	})
}

func (h *CacheHandler) lookup(c *gin.Context) (cache.Handle, bool) {
	ns, ok := h.registry.Lookup(c.Param("namespace"))
	if !ok {
		h.notFound(c)
		return nil, false
	}
	return ns, true
}

func (h *CacheHandler) notFound(c *gin.Context) {
	handleError(c, h.logger, fmt.Errorf("%w: %q", domain.ErrNamespaceNotFound, c.Param("namespace")))
}
