package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/doctor-directory-api/internal/config"
	"github.com/jwalitptl/doctor-directory-api/internal/handler/health"
	"github.com/jwalitptl/doctor-directory-api/internal/handler/prometheus"
	"github.com/jwalitptl/doctor-directory-api/internal/middleware"
	"github.com/jwalitptl/doctor-directory-api/pkg/httputil"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	health   *health.Handler
	metrics  *prometheus.Handler
	handlers []Handler
}

// NewRouter builds the engine and its global middleware. metrics may be nil
// when metrics are disabled.
func NewRouter(cfg *config.Config, healthH *health.Handler, metrics *prometheus.Handler, handlers ...Handler) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		cfg:      cfg,
		health:   healthH,
		metrics:  metrics,
		handlers: handlers,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSMaxAge = int(cfg.Server.HSTSMaxAge / time.Second)
	engine.Use(
		middleware.Recovery(),
		middleware.SecurityHeaders(security),
		middleware.CORS(cfg.CORS),
	)

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.Use(
		middleware.SizeLimit(middleware.SizeLimitConfig{
			MaxBodySize:   cfg.Server.MaxBodyBytes,
			MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
		}),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	engine.NoRoute(notFound)

	return r
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, httputil.ErrorResponse{
		Success: false,
		Message: "API endpoint not found",
	})
}

// Setup registers every route.
func (r *Router) Setup() {
	r.engine.GET("/health", r.health.LivenessCheck)

	if r.metrics != nil {
		r.engine.GET(r.cfg.Metrics.Path, r.metrics.Handler())
	}

	uploads := r.engine.Group(r.cfg.Upload.URLPrefix, middleware.Cache(middleware.StaticCacheConfig()))
	uploads.Static("/", r.cfg.Upload.Dir)

	api := r.engine.Group(r.cfg.Server.BasePath, middleware.Cache(middleware.NoStoreConfig()))
	r.health.RegisterRoutes(api)
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
