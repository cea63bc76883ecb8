package rules

import (
	"testing"

	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pir1   = models.Icon{ID: "PIR1", Category: models.CategoryPIR}
	pir2   = models.Icon{ID: "PIR2", Category: models.CategoryPIR}
	g1     = models.Icon{ID: "G1", Category: models.CategoryGeneral}
	g3     = models.Icon{ID: "G3", Category: models.CategoryGeneral}
	light  = models.Icon{ID: "L1", Category: models.CategoryRoomLights}
	socket = models.Icon{ID: "S1", Category: models.CategorySockets}
	tagKey = models.Icon{ID: "TAG1", Category: models.CategoryTAG}
)

// cells is a minimal Occupancy for predicate tests.
type cells map[int]models.Icon

func (c cells) IconAt(cell int) (models.Icon, bool) {
	icon, ok := c[cell]
	return icon, ok
}

func (c cells) Placed() []models.PlacedIcon {
	var out []models.PlacedIcon
	for cell, icon := range c {
		out = append(out, models.PlacedIcon{Cell: cell, Icon: icon})
	}
	return out
}

func layoutFor(t *testing.T, pt models.PanelType) *layout.PanelLayout {
	t.Helper()
	l, err := layout.MustDefault().LayoutFor(pt)
	require.NoError(t, err)
	return l
}

func TestPredicates(t *testing.T) {
	sp := layoutFor(t, models.PanelSingle)
	x2v := layoutFor(t, models.PanelExtended2Vertical)
	tag := layoutFor(t, models.PanelTAG)

	tests := []struct {
		name   string
		pred   Predicate
		layout *layout.PanelLayout
		occ    cells
		cand   Candidate
		want   Reason
	}{
		{"bounds low", Bounds, sp, cells{}, Fresh(-1, g1), ReasonOutOfBounds},
		{"bounds high", Bounds, sp, cells{}, Fresh(9, g1), ReasonOutOfBounds},
		{"bounds ok", Bounds, sp, cells{}, Fresh(8, g1), ""},

		{"occupied", CellOccupancy, sp, cells{4: light}, Fresh(4, g1), ReasonCellOccupied},
		{"empty", CellOccupancy, sp, cells{4: light}, Fresh(5, g1), ""},
		{"move onto itself", CellOccupancy, sp, cells{4: light}, Candidate{Cell: 4, Icon: light, From: 4}, ""},

		{"second pir", GlobalSingleton, sp, cells{0: pir1}, Fresh(8, pir2), ReasonSingletonViolation},
		{"pir moving", GlobalSingleton, sp, cells{0: pir1}, Candidate{Cell: 8, Icon: pir1, From: 0}, ""},
		{"non singleton", GlobalSingleton, sp, cells{0: g1}, Fresh(1, g1), ""},

		{"G3 in left column", ZoneRestriction, sp, cells{}, Fresh(3, g3), ReasonZoneViolation},
		{"G3 in right column", ZoneRestriction, sp, cells{}, Fresh(5, g3), ""},
		{"G1 in right column", ZoneRestriction, sp, cells{}, Fresh(8, g1), ReasonZoneViolation},
		{"G1 in left column", ZoneRestriction, sp, cells{}, Fresh(0, g1), ""},
		{"socket outside slot", ZoneRestriction, x2v, cells{}, Fresh(3, socket), ReasonZoneViolation},
		{"socket in slot", ZoneRestriction, x2v, cells{}, Fresh(9, socket), ""},
		{"light in socket slot", ZoneRestriction, x2v, cells{}, Fresh(10, light), ReasonZoneViolation},

		{"slot full", SlotCapacity, x2v, cells{9: socket}, Fresh(9, socket), ReasonSlotFull},
		{"other slot free", SlotCapacity, x2v, cells{9: socket}, Fresh(10, socket), ""},
		{"socket moving within slot", SlotCapacity, x2v, cells{9: socket}, Candidate{Cell: 9, Icon: socket, From: 9}, ""},

		{"sockets on single panel", CategoryOffered, sp, cells{}, Fresh(0, socket), ReasonCategoryNotOffered},
		{"general on tag panel", CategoryOffered, tag, cells{}, Fresh(0, g1), ReasonCategoryNotOffered},
		{"tag on tag panel", CategoryOffered, tag, cells{}, Fresh(0, tagKey), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.pred(tt.layout, tt.occ, tt.cand)
			if tt.want == "" {
				assert.True(t, v.OK, v.Message)
				return
			}
			assert.False(t, v.OK)
			assert.Equal(t, tt.want, v.Reason)
			assert.NotEmpty(t, v.Message)
		})
	}
}

func TestRuleSetOrder(t *testing.T) {
	sp := layoutFor(t, models.PanelSingle)

	// Occupied and zone-violating at once: occupancy is reported first.
	v := Default().Check(sp, cells{3: light}, Fresh(3, g3))
	assert.Equal(t, ReasonCellOccupied, v.Reason)

	// Out of range beats everything.
	v = Default().Check(sp, cells{0: pir1}, Fresh(42, pir2))
	assert.Equal(t, ReasonOutOfBounds, v.Reason)

	// A custom set skips what it does not include.
	v = New(ZoneRestriction).Check(sp, cells{3: light}, Fresh(4, g3))
	assert.True(t, v.OK)
}

func TestCanPlace(t *testing.T) {
	dph := layoutFor(t, models.PanelDoubleHorizontal)

	assert.True(t, CanPlace(dph, cells{}, 7, pir1).OK)

	v := CanPlace(dph, cells{7: pir1}, 16, pir2)
	assert.False(t, v.OK)
	assert.Equal(t, ReasonSingletonViolation, v.Reason)
}

func TestSecondSocketInSameSlot(t *testing.T) {
	x2v := layoutFor(t, models.PanelExtended2Vertical)
	occ := cells{9: socket}

	// Occupancy already blocks the default set; without it the slot capacity does.
	assert.Equal(t, ReasonCellOccupied, Default().Check(x2v, occ, Fresh(9, socket)).Reason)
	assert.Equal(t, ReasonSlotFull, New(Bounds, SlotCapacity).Check(x2v, occ, Fresh(9, socket)).Reason)
}
