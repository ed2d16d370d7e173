// Package server exposes the workbench over HTTP and the process health
// over gRPC.
package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/joseph-ayodele/po-intake/internal/workbench"
)

// MaxUploadBytes bounds one documents request.
const MaxUploadBytes = "64M"

// NewHTTP builds the echo instance with every route registered.
func NewHTTP(sessions *workbench.Sessions, logger *slog.Logger) *echo.Echo {
	if logger == nil {
		logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(MaxUploadBytes))
	e.Use(requestLogger(logger))

	RegisterRoutes(e, NewWorkbenchHandler(sessions, logger))
	return e
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, h *WorkbenchHandler) {
	e.GET("/health", HandleHealth)

	g := e.Group("/api/workbench", IdentityMiddleware)
	g.GET("", h.HandleState)
	g.DELETE("", h.HandleReset)
	g.DELETE("/session", h.HandleEndSession)
	g.POST("/customer", h.HandleSelectCustomer)
	g.POST("/documents", h.HandleSelectDocuments)
	g.GET("/documents/:handle", h.HandleDocument)
	g.POST("/submit", h.HandleSubmit)
	g.POST("/rows/:key/toggle", h.HandleToggleEdit)
	g.PUT("/rows/:key/fields", h.HandleSetField)
	g.POST("/submit-all", h.HandleSubmitAll)
	g.GET("/export.xlsx", h.HandleExport)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"req_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"elapsed_ms", v.Latency.Milliseconds(),
			}
			if v.Error != nil {
				logger.Warn("http.request", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Info("http.request", attrs...)
			return nil
		},
	})
}
