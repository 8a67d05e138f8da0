package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/FACorreiaa/go-tekuteku/internal/app/middleware"
	"github.com/FACorreiaa/go-tekuteku/internal/pkg/config"
	"github.com/FACorreiaa/go-tekuteku/internal/routes"
)

const sessionCookieName = "tekuteku"

// SetupRouter configures the Gin router with all middleware and routes. The
// returned App must be closed on shutdown.
func SetupRouter(dbPool *pgxpool.Pool, cfg *config.Config, logger *zap.Logger) (*gin.Engine, *routes.App, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Health probes would drown the access log.
	r.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
		SkipPaths:  []string{"/healthz"},
	}))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(middleware.OTELGinMiddleware(ServiceName))
	r.Use(middleware.RequestMetrics())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.Use(middleware.SecurityMiddleware())

	store := cookie.NewStore([]byte(cfg.Session.CookieSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.SecureCookie,
	})
	r.Use(sessions.Sessions(sessionCookieName, store))
	r.Use(middleware.DeviceSession())

	app, err := routes.Setup(r, dbPool, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return r, app, nil
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "HX-Request", "HX-Target", "HX-Current-URL"},
		ExposeHeaders:    []string{"Content-Length", "HX-Redirect"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// zapContextFunc adds request and trace ids to each access log line.
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := c.Writer.Header().Get("X-Request-Id"); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		if deviceID := middleware.GetDeviceID(c); deviceID != "" {
			fields = append(fields, zap.String("device_id", deviceID))
		}

		return fields
	}
}
