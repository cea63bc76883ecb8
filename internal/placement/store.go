// Package placement holds the authoritative cell-to-icon and cell-to-text
// state of one customizer session.
//
// Every mutation re-validates through a rules.RuleSet. Rejected operations
// leave the store untouched and report a rules.Verdict; they are ordinary
// user missteps, not program faults. A Store is not safe for concurrent use;
// callers serialize mutations (see the session package).
package placement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/panel-configurator/backend/internal/rules"
)

// ErrInvalidSnapshot is returned by Restore when a snapshot violates the rules.
var ErrInvalidSnapshot = errors.New("invalid placement snapshot")

// Store maps cells to placed icons and free-text labels.
type Store struct {
	layout *layout.PanelLayout
	rules  *rules.RuleSet
	icons  map[int]models.PlacedIcon
	texts  map[int]string
	clock  uint64
}

// New creates an empty store for a layout. A nil rule set selects rules.Default().
func New(l *layout.PanelLayout, rs *rules.RuleSet) *Store {
	if rs == nil {
		rs = rules.Default()
	}
	return &Store{
		layout: l,
		rules:  rs,
		icons:  make(map[int]models.PlacedIcon),
		texts:  make(map[int]string),
	}
}

// Layout returns the layout the store validates against.
func (s *Store) Layout() *layout.PanelLayout {
	return s.layout
}

// IconAt returns the icon at cell, if any.
func (s *Store) IconAt(cell int) (models.Icon, bool) {
	p, ok := s.icons[cell]
	return p.Icon, ok
}

// Placed returns every placed icon ordered by cell.
func (s *Store) Placed() []models.PlacedIcon {
	return occupancy(s.icons).Placed()
}

// Len returns the number of occupied cells.
func (s *Store) Len() int {
	return len(s.icons)
}

// Check evaluates a fresh placement without mutating the store.
func (s *Store) Check(cell int, icon models.Icon) rules.Verdict {
	return s.rules.Check(s.layout, s, rules.Fresh(cell, icon))
}

// Place puts icon at cell if the rules allow it.
func (s *Store) Place(cell int, icon models.Icon) rules.Verdict {
	v := s.Check(cell, icon)
	if !v.OK {
		return v
	}
	s.clock++
	s.icons[cell] = models.PlacedIcon{Cell: cell, Icon: icon, PlacedAt: s.clock}
	return v
}

// Remove deletes the icon at cell. The cell's text is kept.
func (s *Store) Remove(cell int) bool {
	if _, ok := s.icons[cell]; !ok {
		return false
	}
	delete(s.icons, cell)
	return true
}

// Swap exchanges the icons and texts of cells a and b as one unit. Each icon
// is validated as if freshly placed at the other cell; if either leg is
// illegal nothing changes.
func (s *Store) Swap(a, b int) rules.Verdict {
	for _, cell := range []int{a, b} {
		if !s.layout.Contains(cell) {
			return rules.Reject(rules.ReasonOutOfBounds, "cell %d is outside 0..%d", cell, s.layout.CellCount-1)
		}
	}
	if a == b {
		return rules.Allow
	}

	pa, hasA := s.icons[a]
	pb, hasB := s.icons[b]

	view := make(occupancy, len(s.icons))
	for cell, p := range s.icons {
		if cell != a && cell != b {
			view[cell] = p
		}
	}

	if hasA {
		if v := s.rules.Check(s.layout, view, rules.Fresh(b, pa.Icon)); !v.OK {
			return v
		}
		view[b] = pa
	}
	if hasB {
		if v := s.rules.Check(s.layout, view, rules.Fresh(a, pb.Icon)); !v.OK {
			return v
		}
	}

	delete(s.icons, a)
	delete(s.icons, b)
	if hasA {
		pa.Cell = b
		s.icons[b] = pa
	}
	if hasB {
		pb.Cell = a
		s.icons[a] = pb
	}

	ta, hasTextA := s.texts[a]
	tb, hasTextB := s.texts[b]
	delete(s.texts, a)
	delete(s.texts, b)
	if hasTextA {
		s.texts[b] = ta
	}
	if hasTextB {
		s.texts[a] = tb
	}

	return rules.Allow
}

// Move relocates the icon and text at from onto to. An occupied destination
// is exchanged rather than overwritten.
func (s *Store) Move(from, to int) rules.Verdict {
	return s.Swap(from, to)
}

// SetText stores free text for a cell regardless of icon presence. Empty
// text clears the label.
func (s *Store) SetText(cell int, text string) rules.Verdict {
	if !s.layout.Contains(cell) {
		return rules.Reject(rules.ReasonOutOfBounds, "cell %d is outside 0..%d", cell, s.layout.CellCount-1)
	}
	if text == "" {
		delete(s.texts, cell)
	} else {
		s.texts[cell] = text
	}
	return rules.Allow
}

// Text returns the label of a cell.
func (s *Store) Text(cell int) string {
	return s.texts[cell]
}

// Snapshot returns the state of every cell in index order.
func (s *Store) Snapshot() []models.CellSnapshot {
	out := make([]models.CellSnapshot, s.layout.CellCount)
	for cell := range out {
		snap := models.CellSnapshot{Cell: cell, Text: s.texts[cell]}
		if p, ok := s.icons[cell]; ok {
			icon := p.Icon
			snap.Icon = &icon
			snap.PlacedAt = p.PlacedAt
		}
		out[cell] = snap
	}
	return out
}

// Clear removes every icon and text.
func (s *Store) Clear() {
	s.icons = make(map[int]models.PlacedIcon)
	s.texts = make(map[int]string)
}

// Restore replaces the store contents with a snapshot, replaying icons in
// their original placement order. On failure the store is unchanged.
func (s *Store) Restore(cells []models.CellSnapshot) error {
	next := New(s.layout, s.rules)
	next.clock = s.clock

	ordered := make([]models.CellSnapshot, 0, len(cells))
	for _, c := range cells {
		if !s.layout.Contains(c.Cell) {
			return fmt.Errorf("%w: cell %d is outside 0..%d", ErrInvalidSnapshot, c.Cell, s.layout.CellCount-1)
		}
		if c.Text != "" {
			next.texts[c.Cell] = c.Text
		}
		if c.Icon != nil {
			ordered = append(ordered, c)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].PlacedAt != ordered[j].PlacedAt {
			return ordered[i].PlacedAt < ordered[j].PlacedAt
		}
		return ordered[i].Cell < ordered[j].Cell
	})

	for _, c := range ordered {
		if v := next.Place(c.Cell, *c.Icon); !v.OK {
			return fmt.Errorf("%w: %s", ErrInvalidSnapshot, v.Message)
		}
	}

	s.icons = next.icons
	s.texts = next.texts
	s.clock = next.clock
	return nil
}

// occupancy is a plain cell map satisfying rules.Occupancy, used for the
// hypothetical states evaluated during a swap.
type occupancy map[int]models.PlacedIcon

func (o occupancy) IconAt(cell int) (models.Icon, bool) {
	p, ok := o[cell]
	return p.Icon, ok
}

func (o occupancy) Placed() []models.PlacedIcon {
	out := make([]models.PlacedIcon, 0, len(o))
	for _, p := range o {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cell < out[j].Cell })
	return out
}
