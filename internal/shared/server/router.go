package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/files"
	"docqa-backend/internal/qa"
	"docqa-backend/internal/shared/config"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/server/middleware"
	"docqa-backend/internal/users"
)

// RouterDeps carries the handlers and shared infrastructure the router wires.
type RouterDeps struct {
	Cfg      config.Config
	Users    *users.Handler
	Files    *files.Handler
	QA       *qa.Handler
	Verifier middleware.TokenVerifier
	Limiter  *middleware.RateLimiter
}

// NewRouter builds the gin engine with the full route table.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(deps.Cfg.CORSAllowOrigin))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	deps.Users.RegisterRoutes(r)

	authed := r.Group("/")
	authed.Use(middleware.Auth(deps.Verifier))
	deps.Files.RegisterRoutes(authed)

	ask := r.Group("/")
	ask.Use(middleware.Auth(deps.Verifier))
	// Answering fans out into provider polling, so it gets its own budget.
	ask.Use(middleware.RateLimit(deps.Limiter, middleware.RateLimitRule{Rate: 0.5, Burst: 5}))
	deps.QA.RegisterRoutes(ask)

	return r
}
