// Package models contains domain types for the panel configurator.
package models

import "time"

// PanelType identifies a physical control-panel form factor.
type PanelType string

const (
	PanelSingle              PanelType = "SP"
	PanelTAG                 PanelType = "TAG"
	PanelCorridor            PanelType = "IDPG"
	PanelDoubleHorizontal    PanelType = "DPH"
	PanelDoubleVertical      PanelType = "DPV"
	PanelExtended1Horizontal PanelType = "X1H"
	PanelExtended1Vertical   PanelType = "X1V"
	PanelExtended2Horizontal PanelType = "X2H"
	PanelExtended2Vertical   PanelType = "X2V"
)

// PanelTypes lists every panel type in catalog order.
var PanelTypes = []PanelType{
	PanelSingle,
	PanelTAG,
	PanelCorridor,
	PanelDoubleHorizontal,
	PanelDoubleVertical,
	PanelExtended1Horizontal,
	PanelExtended1Vertical,
	PanelExtended2Horizontal,
	PanelExtended2Vertical,
}

// PlacedIcon is an icon occupying one cell of a panel.
type PlacedIcon struct {
	Cell     int    `json:"cell"`
	Icon     Icon   `json:"icon"`
	PlacedAt uint64 `json:"placedAt"` // logical ordering token, not wall clock
}

// CellSnapshot is the read-only state of one cell.
type CellSnapshot struct {
	Cell     int    `json:"cell"`
	Icon     *Icon  `json:"icon"`
	Text     string `json:"text"`
	PlacedAt uint64 `json:"placedAt,omitempty"`
}

// Position is a rendering coordinate for a cell. It carries no placement semantics.
type Position struct {
	Cell int     `json:"cell" yaml:"cell"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// ExportInfo represents metadata about an exported project file.
type ExportInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Format      string    `json:"format"` // "json", "msgpack"
	Size        int64     `json:"size"`
	DesignCount int       `json:"designCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
