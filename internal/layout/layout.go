// Package layout provides the per-panel-type grid of addressable cells and the
// declarative zone tables that placement rules are evaluated against.
package layout

import (
	"fmt"
	"slices"
	"sort"

	"github.com/panel-configurator/backend/internal/models"
)

// RestrictionMode selects how a ZoneRestriction constrains matching icons.
type RestrictionMode string

const (
	// ModeForbid keeps matching icons out of the zone.
	ModeForbid RestrictionMode = "forbid"
	// ModeConfine keeps matching icons inside the zone.
	ModeConfine RestrictionMode = "confine"
	// ModeReserve lets the zone accept matching icons only.
	ModeReserve RestrictionMode = "reserve"
)

// ZoneRestriction binds a set of icon ids and/or categories to a zone.
type ZoneRestriction struct {
	Zone       string            `json:"zone" yaml:"zone"`
	Mode       RestrictionMode   `json:"mode" yaml:"mode"`
	Icons      []string          `json:"icons,omitempty" yaml:"icons"`
	Categories []models.Category `json:"categories,omitempty" yaml:"categories"`
}

// Matches reports whether the restriction applies to icon.
func (r ZoneRestriction) Matches(icon models.Icon) bool {
	return slices.Contains(r.Icons, icon.ID) || slices.Contains(r.Categories, icon.Category)
}

// SlotCapacity caps how many icons of the given categories a zone may hold.
type SlotCapacity struct {
	Zone       string            `json:"zone" yaml:"zone"`
	Categories []models.Category `json:"categories" yaml:"categories"`
	Max        int               `json:"max" yaml:"max"`
}

// Matches reports whether icon counts against the capacity.
func (c SlotCapacity) Matches(icon models.Icon) bool {
	return slices.Contains(c.Categories, icon.Category)
}

// Grid is one physical sub-grid of a panel. Its cells are numbered row-major
// starting at FirstCell.
type Grid struct {
	Name      string  `json:"name" yaml:"name"`
	FirstCell int     `json:"firstCell" yaml:"firstCell"`
	Rows      int     `json:"rows" yaml:"rows"`
	Columns   int     `json:"columns" yaml:"columns"`
	OriginX   float64 `json:"originX" yaml:"originX"`
	OriginY   float64 `json:"originY" yaml:"originY"`
}

// Size returns the number of cells in the grid.
func (g Grid) Size() int {
	return g.Rows * g.Columns
}

// ExtraCell is a cell outside any grid, such as a socket slot.
type ExtraCell struct {
	Cell int     `json:"cell" yaml:"cell"`
	Name string  `json:"name" yaml:"name"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// PanelLayout is the static description of one panel type.
type PanelLayout struct {
	Type         models.PanelType  `json:"type" yaml:"type"`
	CellCount    int               `json:"cellCount" yaml:"cells"`
	Grids        []Grid            `json:"grids" yaml:"grids"`
	ExtraCells   []ExtraCell       `json:"extraCells,omitempty" yaml:"extraCells"`
	Zones        map[string][]int  `json:"zones" yaml:"zones"`
	Categories   []models.Category `json:"categories" yaml:"categories"`
	Singletons   []models.Category `json:"singletons" yaml:"singletons"`
	Restrictions []ZoneRestriction `json:"restrictions,omitempty" yaml:"restrictions"`
	Capacities   []SlotCapacity    `json:"capacities,omitempty" yaml:"capacities"`
	Positions    []models.Position `json:"positions" yaml:"-"`

	zoneIndex map[string]map[int]struct{}
}

// Contains reports whether cell is a valid index for the layout.
func (l *PanelLayout) Contains(cell int) bool {
	return cell >= 0 && cell < l.CellCount
}

// InZone reports whether cell belongs to the named zone.
func (l *PanelLayout) InZone(zone string, cell int) bool {
	members, ok := l.zoneIndex[zone]
	if !ok {
		return false
	}
	_, in := members[cell]
	return in
}

// HasZone reports whether the layout declares the named zone.
func (l *PanelLayout) HasZone(zone string) bool {
	_, ok := l.Zones[zone]
	return ok
}

// ZoneCells returns the cells of a zone in ascending order.
func (l *PanelLayout) ZoneCells(zone string) []int {
	cells := slices.Clone(l.Zones[zone])
	sort.Ints(cells)
	return cells
}

// ZonesOf returns the sorted names of every zone containing cell.
func (l *PanelLayout) ZonesOf(cell int) []string {
	var names []string
	for name, members := range l.zoneIndex {
		if _, ok := members[cell]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// OffersCategory reports whether icons of category may appear on this panel type.
func (l *PanelLayout) OffersCategory(c models.Category) bool {
	return slices.Contains(l.Categories, c)
}

// IsSingleton reports whether at most one icon of category may appear on the panel.
func (l *PanelLayout) IsSingleton(c models.Category) bool {
	return slices.Contains(l.Singletons, c)
}

// finalize derives positions and the zone index, then validates the layout.
func (l *PanelLayout) finalize() error {
	l.Positions = make([]models.Position, 0, l.CellCount)
	for _, g := range l.Grids {
		for i := 0; i < g.Size(); i++ {
			l.Positions = append(l.Positions, models.Position{
				Cell: g.FirstCell + i,
				X:    g.OriginX + float64(i%g.Columns),
				Y:    g.OriginY + float64(i/g.Columns),
			})
		}
	}
	for _, x := range l.ExtraCells {
		l.Positions = append(l.Positions, models.Position{Cell: x.Cell, X: x.X, Y: x.Y})
	}
	sort.Slice(l.Positions, func(i, j int) bool {
		return l.Positions[i].Cell < l.Positions[j].Cell
	})

	l.zoneIndex = make(map[string]map[int]struct{}, len(l.Zones))
	for name, cells := range l.Zones {
		set := make(map[int]struct{}, len(cells))
		for _, c := range cells {
			set[c] = struct{}{}
		}
		l.zoneIndex[name] = set
	}

	return l.Validate()
}

// Validate checks the structural invariants of the layout: contiguous cells,
// in-range zone members, and rules that only reference declared zones.
func (l *PanelLayout) Validate() error {
	if l.Type == "" {
		return fmt.Errorf("layout without type")
	}
	if l.CellCount <= 0 {
		return fmt.Errorf("layout %s: cell count must be positive, got %d", l.Type, l.CellCount)
	}
	if len(l.Positions) != l.CellCount {
		return fmt.Errorf("layout %s: grids and extra cells define %d cells, want %d",
			l.Type, len(l.Positions), l.CellCount)
	}
	for i, p := range l.Positions {
		if p.Cell != i {
			return fmt.Errorf("layout %s: cells are not contiguous at index %d (found %d)", l.Type, i, p.Cell)
		}
	}
	if len(l.Categories) == 0 {
		return fmt.Errorf("layout %s: no icon categories", l.Type)
	}

	for name, cells := range l.Zones {
		if len(cells) == 0 {
			return fmt.Errorf("layout %s: zone %q is empty", l.Type, name)
		}
		for _, c := range cells {
			if !l.Contains(c) {
				return fmt.Errorf("layout %s: zone %q references cell %d outside 0..%d",
					l.Type, name, c, l.CellCount-1)
			}
		}
	}

	for _, r := range l.Restrictions {
		if !l.HasZone(r.Zone) {
			return fmt.Errorf("layout %s: restriction references unknown zone %q", l.Type, r.Zone)
		}
		switch r.Mode {
		case ModeForbid, ModeConfine, ModeReserve:
		default:
			return fmt.Errorf("layout %s: restriction on %q has unknown mode %q", l.Type, r.Zone, r.Mode)
		}
		if len(r.Icons) == 0 && len(r.Categories) == 0 {
			return fmt.Errorf("layout %s: restriction on %q matches nothing", l.Type, r.Zone)
		}
	}

	for _, c := range l.Capacities {
		if !l.HasZone(c.Zone) {
			return fmt.Errorf("layout %s: capacity references unknown zone %q", l.Type, c.Zone)
		}
		if c.Max < 1 {
			return fmt.Errorf("layout %s: capacity on %q must be at least 1", l.Type, c.Zone)
		}
	}

	return nil
}
