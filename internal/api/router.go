package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/celerix-dev/mergington-activities/internal/metrics"
	"github.com/celerix-dev/mergington-activities/internal/registry"
	"github.com/celerix-dev/mergington-activities/internal/web"
)

// Options configures NewRouter. Logger and Metrics may be nil.
type Options struct {
	Store       registry.Store
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string

	// Gatherer is served on MetricsPath when both are set.
	Gatherer    prometheus.Gatherer
	MetricsPath string
}

// NewRouter assembles the gin engine: middleware, UI, API and ops routes.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(logger))
	if opts.Metrics != nil {
		r.Use(Instrument(opts.Metrics))
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(CORS(opts.CORSOrigins))
	}

	h := &Handler{Store: opts.Store, Logger: logger, Metrics: opts.Metrics}

	web.Register(r)

	activities := r.Group("/activities")
	{
		activities.GET("", h.ListActivities)
		activities.POST("/:activity/signup", h.Signup)
		activities.DELETE("/:activity/unregister", h.Unregister)
	}

	r.GET("/healthz", h.Healthz)
	if opts.Gatherer != nil && opts.MetricsPath != "" {
		r.GET(opts.MetricsPath, gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	return r
}
