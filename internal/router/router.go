package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/pkg/httputil"
	"github.com/petify/petify-api/pkg/metrics"
)

// Handler mounts routes on a group. Protected handlers get a group that
// already authenticates the caller.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler also exposes routes that need no bearer token.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

// RootHandler mounts routes outside /api, such as health and the unlock page.
type RootHandler interface {
	RegisterRoutes(gin.IRoutes)
}

type Config struct {
	Production     bool
	AccessCode     string
	MapToken       string
	AllowedOrigins []string
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	MaxUploadBytes int64
}

type Router struct {
	engine   *gin.Engine
	cfg      Config
	auth     *middleware.AuthMiddleware
	registry *prometheus.Registry
	root     []RootHandler
	public   []PublicHandler
	handlers []Handler
}

func NewRouter(
	cfg Config,
	auth *middleware.AuthMiddleware,
	m *metrics.Metrics,
	registry *prometheus.Registry,
) *Router {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		middleware.Metrics(m),
		cors.New(corsConfig(cfg.AllowedOrigins)),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(cfg.Production)),
		middleware.Cache(middleware.DefaultCacheConfig()),
		middleware.SizeLimit(sizeLimitConfig(cfg)),
		middleware.Timeout(timeoutConfig(cfg)),
	)

	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.Use(middleware.AccessGate(cfg.AccessCode))

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, httputil.Response{Status: "error", Message: "route not found"})
	})

	return &Router{
		engine:   engine,
		cfg:      cfg,
		auth:     auth,
		registry: registry,
	}
}

// Mount queues handlers for Setup. Handlers implementing PublicHandler or
// RootHandler are sorted into the matching group.
func (r *Router) Mount(handlers ...interface{}) {
	for _, h := range handlers {
		switch h := h.(type) {
		case RootHandler:
			r.root = append(r.root, h)
		case PublicHandler:
			r.public = append(r.public, h)
		case Handler:
			r.handlers = append(r.handlers, h)
		default:
			panic("router: handler has no RegisterRoutes method")
		}
	}
}

func (r *Router) Setup() {
	for _, h := range r.root {
		h.RegisterRoutes(r.engine)
	}
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api")
	api.GET("/config/map", r.mapConfig)
	for _, h := range r.public {
		h.RegisterPublicRoutes(api)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	for _, h := range r.public {
		h.RegisterRoutes(protected)
	}
	for _, h := range r.handlers {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) mapConfig(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"token": r.cfg.MapToken})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Stripe-Signature"}
	cfg.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	cfg.AllowCredentials = true
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func sizeLimitConfig(cfg Config) middleware.SizeLimitConfig {
	out := middleware.DefaultSizeLimitConfig()
	if cfg.MaxBodyBytes > 0 {
		out.MaxBodySize = cfg.MaxBodyBytes
	}
	if cfg.MaxUploadBytes > 0 {
		out.MaxUploadSize = cfg.MaxUploadBytes
	}
	return out
}

func timeoutConfig(cfg Config) middleware.TimeoutConfig {
	out := middleware.DefaultTimeoutConfig()
	if cfg.RequestTimeout > 0 {
		out.Duration = cfg.RequestTimeout
	}
	return out
}
