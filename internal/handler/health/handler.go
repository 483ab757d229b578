package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/doctor-directory-api/pkg/errors"
	"github.com/jwalitptl/doctor-directory-api/pkg/httputil"
)

// Store is the part of the doctor store the health endpoints probe.
type Store interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{
		store: store,
	}
}

// RegisterRoutes mounts the probes under the API group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health/ready", h.ReadinessCheck)
	r.GET("/test-db", h.TestDB)
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Doctor Discovery API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "DOWN",
			"reason": "Database connection failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) TestDB(c *gin.Context) {
	n, err := h.store.Count(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, errors.NewInternalWithMessage("Database connection failed", err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"message":     "Database connection successful",
		"doctorCount": n,
	})
}
