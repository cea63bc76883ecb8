package input

import "fmt"

// Drag sources.
const (
	SourcePalette = "palette"
	SourceCell    = "cell"
)

// DragPayload is the data carried by a drag gesture.
type DragPayload struct {
	Source string `json:"source"`
	IconID string `json:"iconId,omitempty"`
	Cell   *int   `json:"cell,omitempty"`
}

// Drop turns the payload into the command for dropping it on cell.
func (p DragPayload) Drop(cell int) (Command, error) {
	switch p.Source {
	case SourcePalette:
		if p.IconID == "" {
			return nil, fmt.Errorf("%w: palette drag without iconId", ErrInvalidCommand)
		}
		return PlaceNew{IconID: p.IconID, Cell: cell}, nil
	case SourceCell:
		if p.Cell == nil {
			return nil, fmt.Errorf("%w: cell drag without cell", ErrInvalidCommand)
		}
		return MovePlaced{From: *p.Cell, To: cell}, nil
	default:
		return nil, fmt.Errorf("%w: unknown drag source %q", ErrInvalidCommand, p.Source)
	}
}

// SelectionKind describes what is currently selected.
type SelectionKind string

const (
	SelectedNothing SelectionKind = "none"
	SelectedIcon    SelectionKind = "icon"
	SelectedCell    SelectionKind = "cell"
)

// SelectionState is a read-only view of a Selection.
type SelectionState struct {
	Kind   SelectionKind `json:"kind"`
	IconID string        `json:"iconId,omitempty"`
	Cell   int           `json:"cell"`
}

// Selection is the click-to-select alternative to dragging: click a catalog
// icon or an occupied cell, then click a destination cell.
type Selection struct {
	state SelectionState
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	s := &Selection{}
	s.Clear()
	return s
}

// ClickIcon selects a catalog icon, replacing any previous selection.
func (s *Selection) ClickIcon(iconID string) {
	s.state = SelectionState{Kind: SelectedIcon, IconID: iconID, Cell: -1}
}

// ClickCell handles a click on cell. It returns a command when the click
// completes a gesture. Clicking the selected cell again deselects it.
func (s *Selection) ClickCell(cell int, occupied bool) (Command, bool) {
	switch s.state.Kind {
	case SelectedIcon:
		cmd := PlaceNew{IconID: s.state.IconID, Cell: cell}
		s.Clear()
		return cmd, true
	case SelectedCell:
		from := s.state.Cell
		s.Clear()
		if from == cell {
			return nil, false
		}
		return MovePlaced{From: from, To: cell}, true
	default:
		if occupied {
			s.state = SelectionState{Kind: SelectedCell, Cell: cell}
		}
		return nil, false
	}
}

// Clear drops the current selection.
func (s *Selection) Clear() {
	s.state = SelectionState{Kind: SelectedNothing, Cell: -1}
}

// Current returns the current selection.
func (s *Selection) Current() SelectionState {
	if s.state.Kind == "" {
		return SelectionState{Kind: SelectedNothing, Cell: -1}
	}
	return s.state
}
