package models

// Category is the functional grouping of an icon used for cross-cutting rules.
type Category string

const (
	CategoryGeneral       Category = "General"
	CategoryBathroom      Category = "Bathroom"
	CategoryRoomLights    Category = "RoomLights"
	CategoryCurtains      Category = "Curtains"
	CategoryGuestServices Category = "GuestServices"
	CategoryScenes        Category = "Scenes"
	CategoryClimate       Category = "Climate"
	CategorySockets       Category = "Sockets"
	CategoryPIR           Category = "PIR"
	CategoryTAG           Category = "TAG"
)

// Icon is a static catalog entry.
type Icon struct {
	ID           string   `json:"id" yaml:"id"`
	Category     Category `json:"category" yaml:"category"`
	DisplayLabel string   `json:"displayLabel" yaml:"label"`
	Graphic      string   `json:"graphic" yaml:"graphic"` // opaque asset handle
}
