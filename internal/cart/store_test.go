package cart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/panel-configurator/backend/internal/logging"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDesign(id string, pt models.PanelType, qty int) models.Design {
	icon := "L1"
	return models.Design{
		ID:        id,
		PanelType: pt,
		Cells: []models.DesignCell{
			{Cell: 0, IconID: &icon, Label: "Light", Category: models.CategoryRoomLights},
			{Cell: 1, Label: "Spare"},
		},
		Style:     models.StyleParameters{Backbox: "BB-86", BackgroundColor: "#F1F0EA"},
		Quantity:  qty,
		CreatedAt: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	duck, err := NewDuckStore(filepath.Join(t.TempDir(), "cart.duckdb"), DuckOptions{Logger: logging.Discard()})
	require.NoError(t, err)
	t.Cleanup(func() { duck.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"duckdb": duck,
	}
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			list, err := s.ListDesigns(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)

			i, err := s.AddDesign(ctx, sampleDesign("a", models.PanelSingle, 2))
			require.NoError(t, err)
			assert.Equal(t, 0, i)
			i, err = s.AddDesign(ctx, sampleDesign("b", models.PanelDoubleHorizontal, 1))
			require.NoError(t, err)
			assert.Equal(t, 1, i)
			i, err = s.AddDesign(ctx, sampleDesign("c", models.PanelSingle, 5))
			require.NoError(t, err)
			assert.Equal(t, 2, i)

			got, err := s.GetDesign(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "b", got.ID)
			require.NotNil(t, got.Cells[0].IconID)
			assert.Equal(t, "L1", *got.Cells[0].IconID)
			assert.Equal(t, "Spare", got.Cells[1].Label)
			assert.True(t, got.CreatedAt.Equal(sampleDesign("", "", 0).CreatedAt))

			updated := sampleDesign("b2", models.PanelDoubleHorizontal, 4)
			require.NoError(t, s.UpdateDesign(ctx, 1, updated))
			got, err = s.GetDesign(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "b2", got.ID)
			assert.Equal(t, 4, got.Quantity)

			totals, err := s.Totals(ctx)
			require.NoError(t, err)
			assert.Equal(t, []PanelTotal{
				{PanelType: models.PanelDoubleHorizontal, Designs: 1, Quantity: 4},
				{PanelType: models.PanelSingle, Designs: 2, Quantity: 7},
			}, totals)

			require.NoError(t, s.RemoveDesign(ctx, 0))
			list, err = s.ListDesigns(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "b2", list[0].ID)
			assert.Equal(t, "c", list[1].ID)

			got, err = s.GetDesign(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "c", got.ID)
		})
	}
}

func TestStoreIndexOutOfRange(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.AddDesign(ctx, sampleDesign("a", models.PanelSingle, 1))
			require.NoError(t, err)

			for _, index := range []int{-1, 1, 7} {
				_, err := s.GetDesign(ctx, index)
				assert.True(t, errors.Is(err, ErrIndexOutOfRange), "get %d", index)
				assert.True(t, errors.Is(s.UpdateDesign(ctx, index, sampleDesign("x", models.PanelSingle, 1)), ErrIndexOutOfRange), "update %d", index)
				assert.True(t, errors.Is(s.RemoveDesign(ctx, index), ErrIndexOutOfRange), "remove %d", index)
			}

			list, err := s.ListDesigns(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestMemoryStoreCopiesDesigns(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	d := sampleDesign("a", models.PanelSingle, 1)
	_, err := s.AddDesign(ctx, d)
	require.NoError(t, err)

	*d.Cells[0].IconID = "G1"
	d.Cells[1].Label = "changed"

	got, err := s.GetDesign(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "L1", *got.Cells[0].IconID)
	assert.Equal(t, "Spare", got.Cells[1].Label)
}

func TestDuckStoreReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cart.duckdb")

	s, err := NewDuckStore(path, DuckOptions{Logger: logging.Discard()})
	require.NoError(t, err)
	_, err = s.AddDesign(ctx, sampleDesign("kept", models.PanelExtended2Vertical, 3))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewDuckStore(path, DuckOptions{Logger: logging.Discard()})
	require.NoError(t, err)
	defer s.Close()

	list, err := s.ListDesigns(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].ID)
	assert.Equal(t, path, s.Path())
}
