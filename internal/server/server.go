package server

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/coffeeshop/internal/authorization"
	"github.com/smallbiznis/coffeeshop/internal/coffee"
	coffeedomain "github.com/smallbiznis/coffeeshop/internal/coffee/domain"
	"github.com/smallbiznis/coffeeshop/internal/config"
	"github.com/smallbiznis/coffeeshop/internal/event"
	eventdomain "github.com/smallbiznis/coffeeshop/internal/event/domain"
	"github.com/smallbiznis/coffeeshop/internal/observability"
	obsmiddleware "github.com/smallbiznis/coffeeshop/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/coffeeshop/internal/observability/metrics"
	obstracing "github.com/smallbiznis/coffeeshop/internal/observability/tracing"
	"github.com/smallbiznis/coffeeshop/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	event.Module,
	coffee.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	configureBinding()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	log        *zap.Logger
	authzSvc   authorization.Service
	coffeeSvc  coffeedomain.Service
	eventSvc   eventdomain.Service
	limiter    *ratelimit.Limiter
	obsMetrics *obsmetrics.Metrics
	openAPI    *huma.OpenAPI
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	Log        *zap.Logger
	AuthzSvc   authorization.Service
	CoffeeSvc  coffeedomain.Service
	EventSvc   eventdomain.Service
	Limiter    *ratelimit.Limiter  `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		log:        p.Log.Named("http.server"),
		authzSvc:   p.AuthzSvc,
		coffeeSvc:  p.CoffeeSvc,
		eventSvc:   p.EventSvc,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
		openAPI:    buildOpenAPI(p.Cfg.AppVersion),
	}

	svc.registerCatalogRoutes()
	svc.registerEventRoutes()
	svc.registerDocsRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerCatalogRoutes() {
	coffees := s.engine.Group("/coffees", s.AccessGuard())
	{
		coffees.GET("", s.ListCoffees)
		coffees.GET("/:id", s.GetCoffee)

		coffees.POST("", s.WriteRateLimit(), s.CreateCoffee)
		coffees.PATCH("/:id", s.WriteRateLimit(), s.UpdateCoffee)
		coffees.DELETE("/:id", s.WriteRateLimit(), s.DeleteCoffee)
		coffees.PATCH("/:id/recommend", s.WriteRateLimit(), s.RecommendCoffee)
	}
}

func (s *Server) registerEventRoutes() {
	events := s.engine.Group("/events", s.AccessGuard())
	{
		events.GET("", s.ListEvents)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
