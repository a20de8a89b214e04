package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	config "github.com/phillip/college-events-go/config"
	controllers "github.com/phillip/college-events-go/controllers"
	middleware "github.com/phillip/college-events-go/middleware"
	services "github.com/phillip/college-events-go/services"
)

// Options carries the router's collaborators that are not handler deps.
type Options struct {
	Tokens *services.TokenIssuer
	// Registry receives the HTTP metrics and backs /metrics. Nil disables both.
	Registry *prometheus.Registry
	// UploadsDir is served at /uploads when set.
	UploadsDir string
}

func New(cfg *config.Config, d *controllers.Deps, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog())
	if opts.Registry != nil {
		r.Use(middleware.NewMetrics(opts.Registry).Handler())
	}
	// Recovery must stay inside AccessLog and metrics.
	r.Use(middleware.Recovery(), corsMiddleware(cfg.CORSOrigins))

	SetupRoutes(r, cfg, d, opts)
	return r
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, d *controllers.Deps, opts Options) {
	// infra
	r.GET("/health", controllers.Health(d))
	if opts.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}
	if opts.UploadsDir != "" {
		r.Static("/uploads", opts.UploadsDir)
	}

	api := r.Group(cfg.APIBasePath)
	auth := middleware.AuthMiddleware(opts.Tokens)

	// public
	api.POST("/auth/register", controllers.Register(d))
	api.POST("/auth/login", controllers.Login(d))
	api.GET("/auth/me", auth, controllers.Me(d))

	// Events
	events := api.Group("/events")
	{
		events.GET("", controllers.ListEvents(d))
		events.GET("/:id", controllers.GetEvent(d))
	}
	protected := events.Group("")
	protected.Use(auth)
	{
		protected.POST("", controllers.CreateEvent(d))
		protected.PUT("/:id", controllers.UpdateEvent(d))
		protected.DELETE("/:id", controllers.DeleteEvent(d))
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderXRequestID},
		ExposeHeaders: []string{"ETag", "Last-Modified", middleware.HeaderXRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}
