// handlers_session.go - Customizer session and placement handlers
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/panel-configurator/backend/internal/cart"
	"github.com/panel-configurator/backend/internal/catalog"
	"github.com/panel-configurator/backend/internal/input"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/panel-configurator/backend/internal/palette"
	"github.com/panel-configurator/backend/internal/rules"
	"github.com/panel-configurator/backend/internal/session"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions *session.Manager
	icons    *catalog.Catalog
	cart     cart.Store
	logger   *log.Logger
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessions *session.Manager, icons *catalog.Catalog, store cart.Store, logger *log.Logger) SessionHandler {
	return &SessionHandlerImpl{
		sessions: sessions,
		icons:    icons,
		cart:     store,
		logger:   logger,
	}
}

// operationResponse reports the verdict of a placement operation together
// with the resulting session state. Rejections are ordinary responses.
type operationResponse struct {
	rules.Verdict
	Session session.State `json:"session"`
}

// HandleCreateSession opens a customizer for a panel type or a cart entry
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	var (
		st  session.State
		err error
	)
	if req.CartIndex != nil {
		d, getErr := h.cart.GetDesign(c.Request().Context(), *req.CartIndex)
		if getErr != nil {
			return fromDomainError("failed to load design", getErr)
		}
		st, err = h.sessions.CreateFromDesign(*req.CartIndex, d, h.icons)
	} else {
		st, err = h.sessions.Create(models.PanelType(strings.ToUpper(req.PanelType)))
	}
	if err != nil {
		return fromDomainError("failed to create session", err)
	}

	return c.JSON(http.StatusCreated, st)
}

// HandleGetSession returns the state of a session
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	st, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return fromDomainError("failed to load session", err)
	}
	return c.JSON(http.StatusOK, st)
}

// HandleDeleteSession closes a session
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.Delete(id) {
		return NewNotFoundError("session", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandlePlace places a catalog icon on a cell
func (h *SessionHandlerImpl) HandlePlace(c echo.Context) error {
	var req placeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	return h.dispatch(c, input.PlaceNew{IconID: req.IconID, Cell: *req.Cell})
}

// HandleRemove clears the icon of a cell
func (h *SessionHandlerImpl) HandleRemove(c echo.Context) error {
	var req cellRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	return h.dispatch(c, input.RemovePlaced{Cell: *req.Cell})
}

// HandleSwap exchanges two cells, icons and labels together
func (h *SessionHandlerImpl) HandleSwap(c echo.Context) error {
	var req swapRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	return h.dispatch(c, input.MovePlaced{From: *req.A, To: *req.B})
}

// HandleSetText sets the label of a cell
func (h *SessionHandlerImpl) HandleSetText(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	return h.dispatch(c, input.EditText{Cell: *req.Cell, Text: req.Text})
}

func (h *SessionHandlerImpl) dispatch(c echo.Context, cmd input.Command) error {
	var resp operationResponse
	err := h.sessions.With(c.Param("id"), func(s *session.Session) error {
		out, err := s.Dispatch(h.icons, cmd)
		if err != nil {
			return err
		}
		resp.Verdict = out.Verdict
		resp.Session = s.State()
		return nil
	})
	if err != nil {
		return fromDomainError("failed to apply operation", err)
	}
	if !resp.OK {
		h.logger.Debug("placement rejected", "session", c.Param("id"), "kind", cmd.Kind(), "reason", resp.Reason)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleSetStyle replaces the style parameters and quantity
func (h *SessionHandlerImpl) HandleSetStyle(c echo.Context) error {
	var req styleRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	var st session.State
	err := h.sessions.With(c.Param("id"), func(s *session.Session) error {
		s.SetStyle(req.Style, req.Quantity)
		st = s.State()
		return nil
	})
	if err != nil {
		return fromDomainError("failed to update style", err)
	}
	return c.JSON(http.StatusOK, st)
}

// HandleCheck evaluates a placement without applying it
func (h *SessionHandlerImpl) HandleCheck(c echo.Context) error {
	var req placeRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	icon, err := h.icons.Lookup(req.IconID)
	if err != nil {
		return fromDomainError("failed to check placement", err)
	}

	var v rules.Verdict
	err = h.sessions.With(c.Param("id"), func(s *session.Session) error {
		v = s.Store().Check(*req.Cell, icon)
		return nil
	})
	if err != nil {
		return fromDomainError("failed to check placement", err)
	}
	return c.JSON(http.StatusOK, v)
}

type finalizeResponse struct {
	Index   int           `json:"index"`
	Updated bool          `json:"updated"`
	Design  models.Design `json:"design"`
}

// HandleFinalize assembles the design and adds it to the project, or
// replaces the cart entry the session was opened from.
func (h *SessionHandlerImpl) HandleFinalize(c echo.Context) error {
	ctx := c.Request().Context()

	var resp finalizeResponse
	err := h.sessions.With(c.Param("id"), func(s *session.Session) error {
		d, err := s.Assemble()
		if err != nil {
			return err
		}
		resp.Design = d

		if index, editing := s.EditingIndex(); editing {
			current, err := h.cart.GetDesign(ctx, index)
			if errors.Is(err, cart.ErrIndexOutOfRange) || (err == nil && current.ID != s.EditingDesignID()) {
				return NewConflictError(fmt.Sprintf("design %d changed since this session opened it", index))
			}
			if err != nil {
				return err
			}
			d.ID = current.ID
			if err := h.cart.UpdateDesign(ctx, index, d); err != nil {
				return err
			}
			resp.Design = d
			resp.Index = index
			resp.Updated = true
			return nil
		}

		index, err := h.cart.AddDesign(ctx, d)
		if err != nil {
			return err
		}
		resp.Index = index
		return nil
	})
	if err != nil {
		return fromDomainError("failed to finalize design", err)
	}

	h.logger.Info("design finalized", "session", c.Param("id"), "index", resp.Index, "updated", resp.Updated, "panel", resp.Design.PanelType)
	status := http.StatusCreated
	if resp.Updated {
		status = http.StatusOK
	}
	return c.JSON(status, resp)
}

// Request types

type createSessionRequest struct {
	PanelType string `json:"panelType"`
	CartIndex *int   `json:"cartIndex"`
}

func (r *createSessionRequest) validate() error {
	if r.PanelType == "" && r.CartIndex == nil {
		return NewValidationError("panelType")
	}
	if r.PanelType != "" && r.CartIndex != nil {
		return NewBadRequestError("panelType and cartIndex are mutually exclusive", nil)
	}
	return nil
}

type placeRequest struct {
	Cell   *int   `json:"cell"`
	IconID string `json:"iconId"`
}

func (r *placeRequest) validate() error {
	if r.Cell == nil {
		return NewValidationError("cell")
	}
	if r.IconID == "" {
		return NewValidationError("iconId")
	}
	return nil
}

type cellRequest struct {
	Cell *int `json:"cell"`
}

func (r *cellRequest) validate() error {
	if r.Cell == nil {
		return NewValidationError("cell")
	}
	return nil
}

type swapRequest struct {
	A *int `json:"a"`
	B *int `json:"b"`
}

func (r *swapRequest) validate() error {
	if r.A == nil {
		return NewValidationError("a")
	}
	if r.B == nil {
		return NewValidationError("b")
	}
	return nil
}

type textRequest struct {
	Cell *int   `json:"cell"`
	Text string `json:"text"`
}

func (r *textRequest) validate() error {
	if r.Cell == nil {
		return NewValidationError("cell")
	}
	return nil
}

type styleRequest struct {
	Style    models.StyleParameters `json:"style"`
	Quantity int                    `json:"quantity"`
}

func (r *styleRequest) validate() error {
	if err := normalizeStyle(&r.Style); err != nil {
		return err
	}
	if r.Quantity < 0 {
		return NewValidationError("quantity")
	}
	return nil
}

// normalizeStyle resolves RAL codes in the colour fields to hex and rejects
// unknown colours. Hex values and empty fields pass through.
func normalizeStyle(style *models.StyleParameters) error {
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"backgroundColor", &style.BackgroundColor},
		{"textColor", &style.TextColor},
	} {
		v := strings.TrimSpace(*field.value)
		if v == "" || strings.HasPrefix(v, "#") {
			continue
		}
		color, ok := palette.LookupRAL(v)
		if !ok {
			return NewValidationError(field.name)
		}
		*field.value = color.Hex
	}
	return nil
}
