// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/panel-configurator/backend/internal/cart"
	"github.com/panel-configurator/backend/internal/catalog"
	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/session"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Layouts        *layout.Provider
	Icons          *catalog.Catalog
	Fonts          FontSource
	Sessions       *session.Manager
	Cart           cart.Store
	Exports        ExportStore
	Logger         *log.Logger
	MaxMessageSize int64
	Version        string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Catalog CatalogHandler
	Session SessionHandler
	Project ProjectHandler
	Input   InputSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Sessions.Count),
		Catalog: NewCatalogHandler(deps.Layouts, deps.Icons, deps.Fonts),
		Session: NewSessionHandler(deps.Sessions, deps.Icons, deps.Cart, logger.WithPrefix("api")),
		Project: NewProjectHandler(deps.Cart, deps.Exports, logger.WithPrefix("api")),
		Input:   NewInputSocketHandler(deps.Sessions, deps.Icons, deps.MaxMessageSize, logger),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Static configuration
	apiGroup.GET("/layouts", handlers.Catalog.HandleListLayouts)
	apiGroup.GET("/layouts/:type", handlers.Catalog.HandleGetLayout)
	apiGroup.GET("/catalog/:type", handlers.Catalog.HandleGetCatalog)
	apiGroup.GET("/palette/ral", handlers.Catalog.HandleGetRAL)
	apiGroup.GET("/palette/fonts", handlers.Catalog.HandleGetFonts)

	// Customizer sessions
	sessionGroup := apiGroup.Group("/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession)
	sessionGroup.GET("/:id", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:id", handlers.Session.HandleDeleteSession)
	sessionGroup.POST("/:id/place", handlers.Session.HandlePlace)
	sessionGroup.POST("/:id/remove", handlers.Session.HandleRemove)
	sessionGroup.POST("/:id/swap", handlers.Session.HandleSwap)
	sessionGroup.PUT("/:id/text", handlers.Session.HandleSetText)
	sessionGroup.PUT("/:id/style", handlers.Session.HandleSetStyle)
	sessionGroup.POST("/:id/check", handlers.Session.HandleCheck)
	sessionGroup.POST("/:id/finalize", handlers.Session.HandleFinalize)
	sessionGroup.GET("/:id/ws", handlers.Input.HandleInputSocket)

	// Project cart
	projectGroup := apiGroup.Group("/project")
	projectGroup.GET("/designs", handlers.Project.HandleListDesigns)
	projectGroup.GET("/designs/msgpack", handlers.Project.HandleListDesignsMsgpack)
	projectGroup.GET("/designs/:index", handlers.Project.HandleGetDesign)
	projectGroup.PUT("/designs/:index", handlers.Project.HandleUpdateDesign)
	projectGroup.DELETE("/designs/:index", handlers.Project.HandleDeleteDesign)
	projectGroup.GET("/totals", handlers.Project.HandleTotals)

	// Project exports
	projectGroup.POST("/exports", handlers.Project.HandleCreateExport)
	projectGroup.GET("/exports", handlers.Project.HandleListExports)
	projectGroup.GET("/exports/:id", handlers.Project.HandleDownloadExport)
	projectGroup.PUT("/exports/:id", handlers.Project.HandleRenameExport)
	projectGroup.DELETE("/exports/:id", handlers.Project.HandleDeleteExport)
}

// MiddlewareOptions configures SetupMiddleware
type MiddlewareOptions struct {
	Logger           *log.Logger
	RequestLogging   bool
	Compression      bool
	CompressionLevel int
	BodyLimit        string
	Timeout          time.Duration
	EnableCORS       bool
	AllowOrigins     []string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	httpLogger := logger.WithPrefix("http")

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !opts.RequestLogging || c.Request().URL.Path == "/api/health"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				httpLogger.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "err", v.Error)
				return nil
			}
			httpLogger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", "uri", c.Request().URL.Path, "err", err, "stack", string(stack))
			return err
		},
	}))

	if opts.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: opts.Timeout,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/ws")
			},
			ErrorMessage: "Request timeout",
		}))
	}

	// Compression middleware
	if opts.Compression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: opts.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/ws")
			},
		}))
	}

	// Body limit middleware
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := opts.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// SplitOrigins parses a comma separated origin list
func SplitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
