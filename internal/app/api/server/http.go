package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/vic9511/hotmart-subscriptions-sync/docs"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/api/handlers"
	mw "github.com/vic9511/hotmart-subscriptions-sync/internal/app/api/middleware"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/access"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/eventlog"
	subsvc "github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/subscription"
	cfgpkg "github.com/vic9511/hotmart-subscriptions-sync/pkg/config"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/metrics"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/response"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// CORS runs first so OPTIONS preflights and 405s still carry the headers
	// the provider's delivery checks expect.
	r.Use(mw.CORSMiddleware())
	r.Use(mw.TraceMiddleware())
	r.Use(metrics.GinMiddleware())

	// Webhook endpoints are POST-only; anything else is rejected, not routed.
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, response.Err("Method not allowed"))
	})
	return r
}

func registerRoutes(r *gin.Engine, log *zap.SugaredLogger, cfg *cfgpkg.Config, sub *subsvc.Service, events *eventlog.Service, acc *access.Service) {
	if cfg != nil && cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr, log)
		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Hotmart webhook receivers and the verification endpoint
	hm := r.Group("/api/v1/hotmart")
	hm.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHotmartWebhookRoutes(hm, sub, events, log)
	handlers.RegisterVerifyRoutes(hm, acc, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
