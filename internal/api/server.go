package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nexconsult/pncp-vagas/internal/api/handlers"
	"github.com/nexconsult/pncp-vagas/internal/api/middleware"
	"github.com/nexconsult/pncp-vagas/internal/config"
	"github.com/nexconsult/pncp-vagas/internal/services"
)

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *logrus.Logger
	services    *services.Container
	rateLimiter *middleware.RateLimiter
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, logger *logrus.Logger, services *services.Container) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
	}

	server.setupRouter()
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter() {
	s.Router = gin.New()

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	s.rateLimiter = middleware.NewRateLimiter(s.config.Security.RateLimit)
	s.Router.Use(s.rateLimiter.Middleware())

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	metricsHandler := handlers.NewMetricsHandler(handlers.MetricsSources{
		Queries:  s.services.OpportunityService,
		Upstream: s.services.Client,
		Cache:    s.services.CacheService,
		Snapshot: s.services.SnapshotService,
	}, s.logger)
	s.Router.GET("/metrics", metricsHandler.GetMetrics)

	if !s.config.IsProduction() {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	v1 := s.Router.Group("/api/v1")
	{
		regionHandler := handlers.NewRegionHandler()
		v1.GET("/regions", regionHandler.List)
		v1.GET("/regions/:region/states", regionHandler.States)

		opportunityHandler := handlers.NewOpportunityHandler(s.services.OpportunityService, s.logger)
		v1.GET("/opportunities", opportunityHandler.Search)
		v1.DELETE("/opportunities", opportunityHandler.Cancel)

		scoreHandler := handlers.NewScoreHandler(s.services.Scorer, s.logger)
		v1.POST("/score", scoreHandler.Score)

		snapshotHandler := handlers.NewSnapshotHandler(s.services.SnapshotService, s.config.Snapshot.BuildTimeout, s.logger)
		v1.GET("/snapshot", snapshotHandler.Get)
		v1.POST("/snapshot/rebuild", snapshotHandler.Rebuild)

		cacheHandler := handlers.NewCacheHandler(s.services.CacheService, s.logger)
		cache := v1.Group("/cache")
		{
			cache.GET("/stats", cacheHandler.GetStats)
			cache.DELETE("/clear", cacheHandler.Clear)
		}
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	s.Router.HandleMethodNotAllowed = true
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}

// StartBackground runs the rate limiter cleanup until ctx is done
func (s *Server) StartBackground(ctx context.Context) {
	s.rateLimiter.StartCleanup(ctx)
}

// HTTPServer wraps the router with the configured timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.Router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}
}
