// Package router builds the echo instance: middleware stack, error handler
// and route table.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-portal/internal/config"
	"github.com/iliyamo/course-portal/internal/handler"
	"github.com/iliyamo/course-portal/internal/logging"
	"github.com/iliyamo/course-portal/internal/middleware"
)

// Handlers are the endpoint families served by the gateway.
type Handlers struct {
	Users       *handler.UserHandler
	Assignments *handler.AssignmentHandler
	Weeks       *handler.WeekHandler
	Resources   *handler.ResourceHandler
	Auth        *handler.AuthHandler
}

// Options carry what the middleware stack needs.  Redis may be nil, in
// which case caching and rate limiting are disabled.
type Options struct {
	Config         config.Config
	Log            logging.Logger
	Redis          *redis.Client
	DisableReqLogs bool
}

// New returns a configured echo instance with every route registered.
func New(h Handlers, opts Options) *echo.Echo {
	cfg := opts.Config
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.ERROR)
	e.HTTPErrorHandler = handler.ErrorHandler(opts.Log)

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{LogLevel: log.ERROR}))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	if !opts.DisableReqLogs {
		e.Use(requestLogger(opts.Log))
	}
	if cfg.BodyLimit != "" {
		e.Use(echomw.BodyLimit(cfg.BodyLimit))
	}
	e.Use(middleware.CORS(cfg.CORSAllowOrigin))
	e.Use(middleware.Identity(cfg.JWTSecret))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, opts.Redis, opts.Log))
	e.Use(middleware.NewRedisCache(cfg.Cache, opts.Redis, opts.Log))

	RegisterRoutes(e, h)
	return e
}

// RegisterRoutes maps one endpoint per resource family.  Every verb reaches
// the family handler, which answers unsupported ones with 405.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)

	api := e.Group("/api")
	api.POST("/auth/login", h.Auth.Login)
	api.Any("/users", h.Users.Handle)
	api.Any("/assignments", h.Assignments.Handle)
	api.Any("/weekly", h.Weeks.Handle)
	api.Any("/resources", h.Resources.Handle)
}

func requestLogger(l logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				args = append(args, "error", v.Error)
			}
			l.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}
