// handlers_project.go - Project cart and export handlers
package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/panel-configurator/backend/internal/cart"
	"github.com/panel-configurator/backend/internal/codec"
	"github.com/panel-configurator/backend/internal/export"
	"github.com/panel-configurator/backend/internal/models"
)

// ProjectHandlerImpl implements the ProjectHandler interface
type ProjectHandlerImpl struct {
	cart    cart.Store
	exports ExportStore
	logger  *log.Logger
}

// NewProjectHandler creates a new project handler instance
func NewProjectHandler(store cart.Store, exports ExportStore, logger *log.Logger) ProjectHandler {
	return &ProjectHandlerImpl{
		cart:    store,
		exports: exports,
		logger:  logger,
	}
}

// indexParam reads the :index path parameter
func indexParam(c echo.Context) (int, error) {
	raw := c.Param("index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, NewValidationError("index")
	}
	return index, nil
}

// HandleListDesigns returns the designs in the project
func (h *ProjectHandlerImpl) HandleListDesigns(c echo.Context) error {
	designs, err := h.cart.ListDesigns(c.Request().Context())
	if err != nil {
		return fromDomainError("failed to list designs", err)
	}
	return c.JSON(http.StatusOK, designs)
}

// HandleListDesignsMsgpack returns the designs in the project as MessagePack
func (h *ProjectHandlerImpl) HandleListDesignsMsgpack(c echo.Context) error {
	designs, err := h.cart.ListDesigns(c.Request().Context())
	if err != nil {
		return fromDomainError("failed to list designs", err)
	}

	data, err := codec.Marshal(designs)
	if err != nil {
		return NewInternalError("failed to encode designs", err)
	}
	return c.Blob(http.StatusOK, codec.ContentType, data)
}

// HandleGetDesign returns one design by cart index
func (h *ProjectHandlerImpl) HandleGetDesign(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	d, err := h.cart.GetDesign(c.Request().Context(), index)
	if err != nil {
		return fromDomainError("failed to load design", err)
	}
	return c.JSON(http.StatusOK, d)
}

type updateDesignRequest struct {
	Quantity int                     `json:"quantity"`
	Style    *models.StyleParameters `json:"style"`
}

func (r *updateDesignRequest) validate() error {
	if r.Quantity < 0 {
		return NewValidationError("quantity")
	}
	if r.Style == nil {
		return nil
	}
	if strings.TrimSpace(r.Style.Backbox) == "" {
		return NewValidationError("backbox")
	}
	return normalizeStyle(r.Style)
}

// HandleUpdateDesign changes the quantity or style of a cart design in place.
// Cell contents are edited through a session opened on the design.
func (h *ProjectHandlerImpl) HandleUpdateDesign(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}

	var req updateDesignRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	d, err := h.cart.GetDesign(ctx, index)
	if err != nil {
		return fromDomainError("failed to load design", err)
	}
	if req.Quantity > 0 {
		d.Quantity = req.Quantity
	}
	if req.Style != nil {
		d.Style = *req.Style
		d.Style.Backbox = strings.TrimSpace(d.Style.Backbox)
	}
	if err := h.cart.UpdateDesign(ctx, index, d); err != nil {
		return fromDomainError("failed to update design", err)
	}
	return c.JSON(http.StatusOK, d)
}

// HandleDeleteDesign removes a design; later designs shift down one index
func (h *ProjectHandlerImpl) HandleDeleteDesign(c echo.Context) error {
	index, err := indexParam(c)
	if err != nil {
		return err
	}
	if err := h.cart.RemoveDesign(c.Request().Context(), index); err != nil {
		return fromDomainError("failed to delete design", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleTotals returns design and panel counts per panel type
func (h *ProjectHandlerImpl) HandleTotals(c echo.Context) error {
	totals, err := h.cart.Totals(c.Request().Context())
	if err != nil {
		return fromDomainError("failed to compute totals", err)
	}
	return c.JSON(http.StatusOK, totals)
}

type createExportRequest struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

func (r *createExportRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Format == "" {
		r.Format = export.FormatJSON
	}
	if r.Format != export.FormatJSON && r.Format != export.FormatMsgpack {
		return NewValidationError("format")
	}
	return nil
}

// HandleCreateExport writes the current project to an export file
func (h *ProjectHandlerImpl) HandleCreateExport(c echo.Context) error {
	var req createExportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	designs, err := h.cart.ListDesigns(c.Request().Context())
	if err != nil {
		return fromDomainError("failed to list designs", err)
	}
	info, err := h.exports.Save(req.Name, req.Format, designs)
	if err != nil {
		return fromDomainError("failed to save export", err)
	}

	h.logger.Info("project exported", "id", info.ID, "format", info.Format, "designs", info.DesignCount, "size", info.Size)
	return c.JSON(http.StatusCreated, info)
}

// HandleListExports returns recent exports, newest first
func (h *ProjectHandlerImpl) HandleListExports(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.exports.List(limit)
	if err != nil {
		return fromDomainError("failed to list exports", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleDownloadExport streams an export file as an attachment
func (h *ProjectHandlerImpl) HandleDownloadExport(c echo.Context) error {
	id := c.Param("id")
	info, err := h.exports.Get(id)
	if err != nil {
		return fromDomainError("failed to load export", err)
	}
	path, err := h.exports.Path(id)
	if err != nil {
		return fromDomainError("failed to load export", err)
	}
	return c.Attachment(path, info.Name+filepath.Ext(path))
}

type renameExportRequest struct {
	Name string `json:"name"`
}

func (r *renameExportRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return NewValidationError("name")
	}
	return nil
}

// HandleRenameExport changes the display name of an export
func (h *ProjectHandlerImpl) HandleRenameExport(c echo.Context) error {
	var req renameExportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	info, err := h.exports.Rename(c.Param("id"), req.Name)
	if err != nil {
		return fromDomainError("failed to rename export", err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteExport removes an export file
func (h *ProjectHandlerImpl) HandleDeleteExport(c echo.Context) error {
	if err := h.exports.Delete(c.Param("id")); err != nil {
		return fromDomainError("failed to delete export", err)
	}
	return c.NoContent(http.StatusNoContent)
}
