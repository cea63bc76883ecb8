package models

import "time"

// StyleParameters holds the per-design look of a panel.
type StyleParameters struct {
	BackgroundColor string `json:"backgroundColor"` // RAL hex
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
	FontSize        string `json:"fontSize"`
	IconSize        string `json:"iconSize"`
	Backbox         string `json:"backbox"`
	Comments        string `json:"comments,omitempty"`
}

// DesignCell is one cell of a finalized design. Empty cells have a nil IconID.
type DesignCell struct {
	Cell     int      `json:"cell"`
	IconID   *string  `json:"iconId"`
	Label    string   `json:"label"`
	Category Category `json:"category,omitempty"`
}

// Design is the finalized, exportable record of one customized panel.
type Design struct {
	ID        string          `json:"id"`
	PanelType PanelType       `json:"panelType"`
	Cells     []DesignCell    `json:"cells"`
	Style     StyleParameters `json:"style"`
	Quantity  int             `json:"quantity"`
	CreatedAt time.Time       `json:"createdAt"`
}

// RALColor is one entry of the RAL classic palette.
type RALColor struct {
	Code string `json:"code"`
	Hex  string `json:"hex"`
	Name string `json:"name"`
}
