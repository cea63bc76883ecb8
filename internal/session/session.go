// Package session keeps one placement store per open customizer and
// serializes the operations on it.
package session

import (
	"sync"
	"time"

	"github.com/panel-configurator/backend/internal/design"
	"github.com/panel-configurator/backend/internal/input"
	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/panel-configurator/backend/internal/placement"
)

// NotEditing is the editing index of a session that creates a new design.
const NotEditing = -1

// Session is one open customizer. Its methods may only be called from
// inside Manager.With.
type Session struct {
	ID        string
	PanelType models.PanelType
	CreatedAt time.Time

	mu        sync.Mutex
	layout    *layout.PanelLayout
	store     *placement.Store
	style     models.StyleParameters
	quantity  int
	selection *input.Selection
	editing   int
	editingID string

	// guarded by Manager.mu
	lastAccessed time.Time
}

// State is a point-in-time view of a session.
type State struct {
	ID           string                 `json:"id"`
	PanelType    models.PanelType       `json:"panelType"`
	CreatedAt    time.Time              `json:"createdAt"`
	CellCount    int                    `json:"cellCount"`
	Cells        []models.CellSnapshot  `json:"cells"`
	Style        models.StyleParameters `json:"style"`
	Quantity     int                    `json:"quantity"`
	EditingIndex *int                   `json:"editingIndex"`
	Selection    input.SelectionState   `json:"selection"`
	CanFinalize  bool                   `json:"canFinalize"`
	Issues       []design.FieldError    `json:"issues,omitempty"`
}

func newSession(id string, l *layout.PanelLayout, store *placement.Store, now time.Time) *Session {
	return &Session{
		ID:           id,
		PanelType:    l.Type,
		CreatedAt:    now,
		layout:       l,
		store:        store,
		quantity:     1,
		selection:    input.NewSelection(),
		editing:      NotEditing,
		lastAccessed: now,
	}
}

// Layout returns the panel layout of the session.
func (s *Session) Layout() *layout.PanelLayout { return s.layout }

// Store returns the placement store.
func (s *Session) Store() *placement.Store { return s.store }

// Selection returns the click-to-select state.
func (s *Session) Selection() *input.Selection { return s.selection }

// Style returns the style parameters.
func (s *Session) Style() models.StyleParameters { return s.style }

// Quantity returns the number of panels ordered.
func (s *Session) Quantity() int { return s.quantity }

// SetStyle replaces the style parameters and quantity. Quantities below one
// are stored as one.
func (s *Session) SetStyle(style models.StyleParameters, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.style = style
	s.quantity = quantity
}

// EditingIndex returns the cart index the session edits, if any.
func (s *Session) EditingIndex() (int, bool) {
	return s.editing, s.editing != NotEditing
}

// EditingDesignID returns the id of the design the session was opened from.
// It is empty unless the session edits a cart entry.
func (s *Session) EditingDesignID() string {
	return s.editingID
}

// SetEditing points the session at the design with id stored at a cart
// index. NotEditing detaches it.
func (s *Session) SetEditing(index int, id string) {
	if index == NotEditing {
		id = ""
	}
	s.editing = index
	s.editingID = id
}

// Dispatch runs an input command against the session's store. A completed
// command clears any pending click selection.
func (s *Session) Dispatch(resolver input.Resolver, cmd input.Command) (input.Outcome, error) {
	out, err := input.Dispatch(s.store, resolver, cmd)
	if err == nil && out.Changed {
		s.selection.Clear()
	}
	return out, err
}

// Assemble builds a design from the current state.
func (s *Session) Assemble() (models.Design, error) {
	return design.Assemble(s.PanelType, s.store.Snapshot(), s.style, s.quantity)
}

// State returns a view of the session.
func (s *Session) State() State {
	return s.state()
}

func (s *Session) state() State {
	st := State{
		ID:        s.ID,
		PanelType: s.PanelType,
		CreatedAt: s.CreatedAt,
		CellCount: s.layout.CellCount,
		Cells:     s.store.Snapshot(),
		Style:     s.style,
		Quantity:  s.quantity,
		Selection: s.selection.Current(),
		Issues:    design.Validate(s.style),
	}
	st.CanFinalize = len(st.Issues) == 0
	if index, ok := s.EditingIndex(); ok {
		st.EditingIndex = &index
	}
	return st
}
