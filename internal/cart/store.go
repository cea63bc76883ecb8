// Package cart is the project cart: the ordered list of finalized designs a
// customer is building up. Indices are positions in that list.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/panel-configurator/backend/internal/models"
)

// ErrIndexOutOfRange is returned for indices outside the cart.
var ErrIndexOutOfRange = errors.New("cart index out of range")

// Store defines the cart operations used by the API.
type Store interface {
	AddDesign(ctx context.Context, d models.Design) (int, error)
	UpdateDesign(ctx context.Context, index int, d models.Design) error
	ListDesigns(ctx context.Context) ([]models.Design, error)
	GetDesign(ctx context.Context, index int) (models.Design, error)
	RemoveDesign(ctx context.Context, index int) error
	Totals(ctx context.Context) ([]PanelTotal, error)
	Close() error
}

// PanelTotal summarises the cart for one panel type.
type PanelTotal struct {
	PanelType models.PanelType `json:"panelType"`
	Designs   int              `json:"designs"`
	Quantity  int              `json:"quantity"`
}

func outOfRange(index, n int) error {
	return fmt.Errorf("%w: %d (cart holds %d designs)", ErrIndexOutOfRange, index, n)
}

// MemoryStore keeps the cart in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	designs []models.Design
}

// NewMemoryStore creates an empty in-memory cart.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) AddDesign(_ context.Context, d models.Design) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.designs = append(m.designs, cloneDesign(d))
	return len(m.designs) - 1, nil
}

func (m *MemoryStore) UpdateDesign(_ context.Context, index int, d models.Design) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.designs) {
		return outOfRange(index, len(m.designs))
	}
	m.designs[index] = cloneDesign(d)
	return nil
}

func (m *MemoryStore) ListDesigns(_ context.Context) ([]models.Design, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Design, len(m.designs))
	for i, d := range m.designs {
		out[i] = cloneDesign(d)
	}
	return out, nil
}

func (m *MemoryStore) GetDesign(_ context.Context, index int) (models.Design, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.designs) {
		return models.Design{}, outOfRange(index, len(m.designs))
	}
	return cloneDesign(m.designs[index]), nil
}

func (m *MemoryStore) RemoveDesign(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.designs) {
		return outOfRange(index, len(m.designs))
	}
	m.designs = append(m.designs[:index], m.designs[index+1:]...)
	return nil
}

func (m *MemoryStore) Totals(_ context.Context) ([]PanelTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[models.PanelType]*PanelTotal)
	for _, d := range m.designs {
		t, ok := byType[d.PanelType]
		if !ok {
			t = &PanelTotal{PanelType: d.PanelType}
			byType[d.PanelType] = t
		}
		t.Designs++
		t.Quantity += d.Quantity
	}

	out := make([]PanelTotal, 0, len(byType))
	for _, t := range byType {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PanelType < out[j].PanelType })
	return out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// cloneDesign copies the cell slice so callers cannot mutate stored designs.
func cloneDesign(d models.Design) models.Design {
	cells := make([]models.DesignCell, len(d.Cells))
	for i, c := range d.Cells {
		if c.IconID != nil {
			id := *c.IconID
			c.IconID = &id
		}
		cells[i] = c
	}
	d.Cells = cells
	return d
}
