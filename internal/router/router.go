// Package router wires middleware, handlers and routes into a gin engine.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stwalsh4118/recordbook/internal/database"
	"github.com/stwalsh4118/recordbook/internal/handlers"
	"github.com/stwalsh4118/recordbook/internal/logger"
	"github.com/stwalsh4118/recordbook/internal/middleware"
	"github.com/stwalsh4118/recordbook/internal/services"
)

// Options holds the dependencies of the HTTP surface.
type Options struct {
	Logger    *logger.Logger
	Env       string
	Verbose   bool
	Origins   []string
	Driver    string
	DB        database.Pinger
	Records   services.RecordService
	Locations services.LocationService
	// Registry receives the HTTP metrics and is served on /metrics.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// New builds the engine. Middleware order: RequestID -> Logger -> Recovery ->
// CORS -> Metrics.
func New(opts Options) *gin.Engine {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.VerboseErrors(opts.Verbose),
		middleware.Logger(opts.Logger),
		middleware.Recovery(opts.Logger),
		middleware.CORS(opts.Origins),
		middleware.NewMetrics(reg).Handler(),
	)

	health := handlers.NewHealthHandler(opts.DB, opts.Driver, opts.Env)
	r.GET("/health", health.Health)
	r.GET("/health/ready", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/info", health.Info)

	records := handlers.NewRecordHandler(opts.Records)
	rg := api.Group("/records")
	{
		rg.GET("", records.List)
		rg.POST("", records.Create)
		rg.GET("/count/total", records.Count)
		rg.GET("/date-range", records.DateRange)
		rg.GET("/state/:state", records.ByField("state"))
		rg.GET("/district/:district", records.ByField("district"))
		rg.GET("/city/:city", records.ByField("city"))
		rg.GET("/zipcode/:zipcode", records.ByField("zipcode"))
		rg.GET("/:id", records.Get)
		rg.PUT("/:id", records.Update)
		rg.DELETE("/:id", records.Delete)
	}

	locations := handlers.NewLocationHandler(opts.Locations)
	lg := api.Group("/location")
	{
		lg.GET("/states", locations.States)
		lg.GET("/districts/:state", locations.Districts)
		lg.GET("/all", locations.All)
	}
	api.GET("/states", locations.LegacyStates)
	api.GET("/districts/:state", locations.LegacyDistricts)

	r.NoRoute(handlers.NoRoute)

	return r
}
