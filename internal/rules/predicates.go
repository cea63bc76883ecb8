package rules

import (
	"github.com/panel-configurator/backend/internal/layout"
)

// Bounds rejects cells outside 0..CellCount-1.
func Bounds(l *layout.PanelLayout, _ Occupancy, c Candidate) Verdict {
	if !l.Contains(c.Cell) {
		return Reject(ReasonOutOfBounds, "cell %d is outside 0..%d", c.Cell, l.CellCount-1)
	}
	return Allow
}

// CellOccupancy rejects a target cell that already holds an icon. An icon
// "moving" onto its own cell is not a conflict.
func CellOccupancy(_ *layout.PanelLayout, occ Occupancy, c Candidate) Verdict {
	if c.Cell == c.From {
		return Allow
	}
	if existing, ok := occ.IconAt(c.Cell); ok {
		return Reject(ReasonCellOccupied, "cell %d already holds %s", c.Cell, existing.ID)
	}
	return Allow
}

// GlobalSingleton rejects a second icon of a panel-wide singleton category
// such as PIR, wherever it would go. The icon being moved does not count
// against itself.
func GlobalSingleton(l *layout.PanelLayout, occ Occupancy, c Candidate) Verdict {
	if !l.IsSingleton(c.Icon.Category) {
		return Allow
	}
	for _, p := range occ.Placed() {
		if p.Cell == c.From {
			continue
		}
		if p.Icon.Category == c.Icon.Category {
			return Reject(ReasonSingletonViolation,
				"only one %s icon is allowed per panel (%s is at cell %d)",
				c.Icon.Category, p.Icon.ID, p.Cell)
		}
	}
	return Allow
}

// ZoneRestriction applies the layout's forbid/confine/reserve tables.
func ZoneRestriction(l *layout.PanelLayout, _ Occupancy, c Candidate) Verdict {
	for _, r := range l.Restrictions {
		inZone := l.InZone(r.Zone, c.Cell)
		matches := r.Matches(c.Icon)

		switch r.Mode {
		case layout.ModeForbid:
			if matches && inZone {
				return Reject(ReasonZoneViolation, "%s is not allowed in %s", c.Icon.ID, r.Zone)
			}
		case layout.ModeConfine:
			if matches && !inZone {
				return Reject(ReasonZoneViolation, "%s may only be placed in %s", c.Icon.ID, r.Zone)
			}
		case layout.ModeReserve:
			if inZone && !matches {
				return Reject(ReasonZoneViolation, "cell %d in %s does not accept %s", c.Cell, r.Zone, c.Icon.ID)
			}
		}
	}
	return Allow
}

// SlotCapacity rejects an icon whose category already fills the capacity of
// a zone containing the target cell.
func SlotCapacity(l *layout.PanelLayout, occ Occupancy, c Candidate) Verdict {
	for _, capacity := range l.Capacities {
		if !capacity.Matches(c.Icon) || !l.InZone(capacity.Zone, c.Cell) {
			continue
		}
		used := 0
		for _, p := range occ.Placed() {
			if p.Cell == c.From || !l.InZone(capacity.Zone, p.Cell) {
				continue
			}
			if capacity.Matches(p.Icon) {
				used++
			}
		}
		if used >= capacity.Max {
			return Reject(ReasonSlotFull, "%s already holds %d %s icon(s)", capacity.Zone, used, c.Icon.Category)
		}
	}
	return Allow
}

// CategoryOffered rejects icons from categories the panel type does not expose.
func CategoryOffered(l *layout.PanelLayout, _ Occupancy, c Candidate) Verdict {
	if !l.OffersCategory(c.Icon.Category) {
		return Reject(ReasonCategoryNotOffered, "%s icons are not available on %s panels", c.Icon.Category, l.Type)
	}
	return Allow
}
