// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/panel-configurator/backend/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// CatalogHandler serves the static configuration: layouts, icons, palette.
type CatalogHandler interface {
	HandleListLayouts(c echo.Context) error
	HandleGetLayout(c echo.Context) error
	HandleGetCatalog(c echo.Context) error
	HandleGetRAL(c echo.Context) error
	HandleGetFonts(c echo.Context) error
}

// SessionHandler handles customizer sessions and their placement operations.
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandlePlace(c echo.Context) error
	HandleRemove(c echo.Context) error
	HandleSwap(c echo.Context) error
	HandleSetText(c echo.Context) error
	HandleSetStyle(c echo.Context) error
	HandleCheck(c echo.Context) error
	HandleFinalize(c echo.Context) error
}

// ProjectHandler handles the project cart and its exports.
type ProjectHandler interface {
	HandleListDesigns(c echo.Context) error
	HandleListDesignsMsgpack(c echo.Context) error
	HandleGetDesign(c echo.Context) error
	HandleUpdateDesign(c echo.Context) error
	HandleDeleteDesign(c echo.Context) error
	HandleTotals(c echo.Context) error
	HandleCreateExport(c echo.Context) error
	HandleListExports(c echo.Context) error
	HandleDownloadExport(c echo.Context) error
	HandleRenameExport(c echo.Context) error
	HandleDeleteExport(c echo.Context) error
}

// InputSocketHandler serves the live drag/click channel of a session.
type InputSocketHandler interface {
	HandleInputSocket(c echo.Context) error
}

// FontSource provides the font family list.
// This allows faking the network-backed palette in tests.
type FontSource interface {
	Fonts(ctx context.Context) []string
}

// ExportStore defines the export file operations used by the API.
type ExportStore interface {
	Save(name, format string, designs []models.Design) (*models.ExportInfo, error)
	Get(id string) (*models.ExportInfo, error)
	List(limit int) ([]*models.ExportInfo, error)
	Rename(id, name string) (*models.ExportInfo, error)
	Path(id string) (string, error)
	Delete(id string) error
}
