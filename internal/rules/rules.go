// Package rules decides whether an icon may occupy a cell.
//
// Every rule is an independent predicate over a panel layout, the current
// occupancy and a placement candidate. A RuleSet evaluates predicates in
// order and reports the first failure. Panel-specific behavior lives in the
// layout's zone tables, never in the predicates themselves.
package rules

import (
	"fmt"

	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
)

// Reason is a machine-readable rejection code.
type Reason string

const (
	ReasonOutOfBounds        Reason = "out_of_bounds"
	ReasonCellOccupied       Reason = "cell_occupied"
	ReasonSingletonViolation Reason = "singleton_violation"
	ReasonZoneViolation      Reason = "zone_violation"
	ReasonSlotFull           Reason = "slot_full"
	ReasonCategoryNotOffered Reason = "category_not_offered"
)

// NoSource marks a candidate that is a fresh placement rather than a move.
const NoSource = -1

// Verdict is the outcome of evaluating a candidate.
type Verdict struct {
	OK      bool   `json:"accepted"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// Allow is the accepting verdict.
var Allow = Verdict{OK: true}

// Reject builds a rejecting verdict.
func Reject(reason Reason, format string, args ...any) Verdict {
	return Verdict{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Occupancy is the read view of placed icons that rules evaluate against.
type Occupancy interface {
	IconAt(cell int) (models.Icon, bool)
	Placed() []models.PlacedIcon
}

// Candidate describes a proposed placement. From is the cell the icon is
// leaving when it is being moved, or NoSource.
type Candidate struct {
	Cell int
	Icon models.Icon
	From int
}

// Fresh returns a candidate for placing a new icon.
func Fresh(cell int, icon models.Icon) Candidate {
	return Candidate{Cell: cell, Icon: icon, From: NoSource}
}

// Predicate is one placement rule.
type Predicate func(l *layout.PanelLayout, occ Occupancy, c Candidate) Verdict

// RuleSet is an ordered list of predicates.
type RuleSet struct {
	predicates []Predicate
}

// New returns a RuleSet evaluating predicates in the given order.
func New(predicates ...Predicate) *RuleSet {
	return &RuleSet{predicates: predicates}
}

// Default returns the standard rule order.
func Default() *RuleSet {
	return New(
		Bounds,
		CellOccupancy,
		GlobalSingleton,
		ZoneRestriction,
		SlotCapacity,
		CategoryOffered,
	)
}

// Check evaluates every predicate and returns the first rejection.
func (rs *RuleSet) Check(l *layout.PanelLayout, occ Occupancy, c Candidate) Verdict {
	for _, p := range rs.predicates {
		if v := p(l, occ, c); !v.OK {
			return v
		}
	}
	return Allow
}

// CanPlace evaluates a fresh placement with the default rules.
func CanPlace(l *layout.PanelLayout, occ Occupancy, cell int, icon models.Icon) Verdict {
	return Default().Check(l, occ, Fresh(cell, icon))
}
