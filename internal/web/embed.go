// Package web serves the designer frontend bundled into the binary.
//
// A production build replaces dist/ with the compiled frontend. The committed
// dist/ holds a landing page pointing at the API.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

//go:embed dist
var staticFiles embed.FS

// apiPrefix is never answered by the frontend, so unknown API paths keep
// returning JSON errors instead of the SPA shell.
const apiPrefix = "/api"

// FileSystem returns the embedded dist folder as root.
func FileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterStaticRoutes serves the frontend for every non-API path. Unknown
// paths fall back to index.html so the frontend router can resolve them.
// API routes must be registered first.
func RegisterStaticRoutes(e *echo.Echo) error {
	root, err := FileSystem()
	if err != nil {
		return err
	}

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Filesystem: http.FS(root),
		Index:      "index.html",
		HTML5:      true,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, apiPrefix)
		},
	}))
	return nil
}

// HasEmbeddedFiles reports whether dist contains an index.html.
func HasEmbeddedFiles() bool {
	root, err := FileSystem()
	if err != nil {
		return false
	}
	_, err = fs.Stat(root, "index.html")
	return err == nil
}
