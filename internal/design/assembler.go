// Package design turns a placement snapshot and style parameters into a
// finalized models.Design.
package design

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panel-configurator/backend/internal/models"
)

// ErrNotFinalizable is returned by Assemble when the style is incomplete.
var ErrNotFinalizable = errors.New("design cannot be finalized")

// FieldError is a field-level validation message for the style form.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// ValidationError carries every failing field of a finalize attempt.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s: %s", ErrNotFinalizable, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrNotFinalizable
}

// Validate returns the field errors that block finalizing a design.
func Validate(style models.StyleParameters) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(style.Backbox) == "" {
		errs = append(errs, FieldError{Field: "backbox", Message: "select a backbox before adding the panel to the project"})
	}
	return errs
}

// CanFinalize reports whether a design with this style may be assembled.
func CanFinalize(style models.StyleParameters) bool {
	return len(Validate(style)) == 0
}

// Assembler builds designs. The zero value is usable.
type Assembler struct {
	Now   func() time.Time
	NewID func() string
}

var defaultAssembler Assembler

// Assemble builds a design with the default clock and id source.
func Assemble(pt models.PanelType, snapshot []models.CellSnapshot, style models.StyleParameters, quantity int) (models.Design, error) {
	return defaultAssembler.Assemble(pt, snapshot, style, quantity)
}

// Assemble converts a snapshot into a Design. Every cell of the snapshot is
// kept, occupied or not. Quantities below one are raised to one.
func (a Assembler) Assemble(pt models.PanelType, snapshot []models.CellSnapshot, style models.StyleParameters, quantity int) (models.Design, error) {
	if fields := Validate(style); len(fields) > 0 {
		return models.Design{}, &ValidationError{Fields: fields}
	}
	if quantity < 1 {
		quantity = 1
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	id := uuid.NewString
	if a.NewID != nil {
		id = a.NewID
	}

	style.Backbox = strings.TrimSpace(style.Backbox)
	return models.Design{
		ID:        id(),
		PanelType: pt,
		Cells:     Cells(snapshot),
		Style:     style,
		Quantity:  quantity,
		CreatedAt: now().UTC(),
	}, nil
}

// Cells converts a snapshot into design cells ordered by index.
func Cells(snapshot []models.CellSnapshot) []models.DesignCell {
	out := make([]models.DesignCell, len(snapshot))
	for i, c := range snapshot {
		dc := models.DesignCell{Cell: c.Cell, Label: c.Text}
		if c.Icon != nil {
			id := c.Icon.ID
			dc.IconID = &id
			dc.Category = c.Icon.Category
		}
		out[i] = dc
	}
	return out
}

// IconResolver looks up catalog icons by id.
type IconResolver interface {
	Lookup(id string) (models.Icon, error)
}

// ToSnapshot rebuilds a placement snapshot from a design so that a cart entry
// can be reopened for editing. Placement order follows cell order.
func ToSnapshot(d models.Design, icons IconResolver) ([]models.CellSnapshot, error) {
	out := make([]models.CellSnapshot, len(d.Cells))
	var order uint64
	for i, c := range d.Cells {
		snap := models.CellSnapshot{Cell: c.Cell, Text: c.Label}
		if c.IconID != nil {
			icon, err := icons.Lookup(*c.IconID)
			if err != nil {
				return nil, fmt.Errorf("design %s cell %d: %w", d.ID, c.Cell, err)
			}
			order++
			snap.Icon = &icon
			snap.PlacedAt = order
		}
		out[i] = snap
	}
	return out, nil
}
