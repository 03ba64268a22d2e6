package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"annotation-stats/internal/reports"
	"annotation-stats/internal/services/health"
	"annotation-stats/internal/shared/config"
	"annotation-stats/internal/shared/metrics"
	"annotation-stats/internal/shared/server/middleware"
	"annotation-stats/internal/shared/server/respond"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupExport  = "EXPORT"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config         config.Config
	Health         *health.Service
	ReportsHandler *reports.Handler
	RateLimiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: 20, Burst: 40},
				rateGroupExport:  {Rate: 1, Burst: 5},
			},
		}),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(deps.Config.Source, nil)
	}

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		st := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})
	if deps.ReportsHandler != nil {
		deps.ReportsHandler.RegisterRoutes(api)
	}

	return r
}

// rateGroupFor puts file rendering and delivery routes in the stricter group.
func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	if strings.HasSuffix(path, "/export") || strings.HasSuffix(path, "/deliveries") {
		return rateGroupExport
	}
	return rateGroupDefault
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
