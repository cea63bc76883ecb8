// handlers_catalog.go - Layout, icon catalog and palette handlers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/panel-configurator/backend/internal/catalog"
	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/panel-configurator/backend/internal/palette"
)

// CatalogHandlerImpl implements the CatalogHandler interface
type CatalogHandlerImpl struct {
	layouts *layout.Provider
	icons   *catalog.Catalog
	fonts   FontSource
}

// NewCatalogHandler creates a new catalog handler instance
func NewCatalogHandler(layouts *layout.Provider, icons *catalog.Catalog, fonts FontSource) CatalogHandler {
	return &CatalogHandlerImpl{
		layouts: layouts,
		icons:   icons,
		fonts:   fonts,
	}
}

// HandleListLayouts returns every panel layout
func (h *CatalogHandlerImpl) HandleListLayouts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.layouts.All())
}

// HandleGetLayout returns the layout of one panel type
func (h *CatalogHandlerImpl) HandleGetLayout(c echo.Context) error {
	l, err := h.layouts.LayoutFor(models.PanelType(c.Param("type")))
	if err != nil {
		return fromDomainError("failed to load layout", err)
	}
	return c.JSON(http.StatusOK, l)
}

type catalogResponse struct {
	PanelType  models.PanelType        `json:"panelType"`
	Categories []catalog.CategoryIcons `json:"categories"`
}

// HandleGetCatalog returns the icons a panel type offers, grouped by category
func (h *CatalogHandlerImpl) HandleGetCatalog(c echo.Context) error {
	pt := models.PanelType(strings.ToUpper(c.Param("type")))
	groups, err := h.icons.IconsFor(pt)
	if err != nil {
		return fromDomainError("failed to load catalog", err)
	}
	return c.JSON(http.StatusOK, catalogResponse{PanelType: pt, Categories: groups})
}

// HandleGetRAL returns the RAL colour list
func (h *CatalogHandlerImpl) HandleGetRAL(c echo.Context) error {
	if code := c.QueryParam("code"); code != "" {
		color, ok := palette.LookupRAL(code)
		if !ok {
			return NewNotFoundError("RAL colour", code)
		}
		return c.JSON(http.StatusOK, color)
	}
	return c.JSON(http.StatusOK, palette.RAL())
}

// HandleGetFonts returns the font family list
func (h *CatalogHandlerImpl) HandleGetFonts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"fonts": h.fonts.Fonts(c.Request().Context()),
	})
}
