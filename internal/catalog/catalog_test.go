package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInCatalog(t *testing.T) {
	c := MustDefault(layout.MustDefault())

	icon, err := c.Lookup("PIR1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPIR, icon.Category)
	assert.Equal(t, "Motion Sensor", icon.DisplayLabel)
	assert.NotEmpty(t, icon.Graphic)

	_, err = c.Lookup("NOPE")
	assert.True(t, errors.Is(err, ErrUnknownIcon))

	sockets := c.ListIconsByCategory(models.CategorySockets)
	require.NotEmpty(t, sockets)
	for _, s := range sockets {
		assert.Equal(t, models.CategorySockets, s.Category)
	}

	assert.Empty(t, c.ListIconsByCategory("Unknown"))
}

func TestCategoriesFor(t *testing.T) {
	c := MustDefault(layout.MustDefault())

	tag, err := c.CategoriesFor(models.PanelTAG)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{models.CategoryTAG, models.CategoryPIR}, tag)

	x1, err := c.CategoriesFor(models.PanelExtended1Horizontal)
	require.NoError(t, err)
	assert.Contains(t, x1, models.CategorySockets)

	sp, err := c.CategoriesFor(models.PanelSingle)
	require.NoError(t, err)
	assert.NotContains(t, sp, models.CategorySockets)

	_, err = c.CategoriesFor("QUAD")
	assert.True(t, errors.Is(err, layout.ErrUnknownPanelType))
}

func TestIconsFor(t *testing.T) {
	c := MustDefault(layout.MustDefault())

	groups, err := c.IconsFor(models.PanelTAG)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, models.CategoryTAG, groups[0].Category)
	assert.NotEmpty(t, groups[0].Icons)
	assert.Equal(t, models.CategoryPIR, groups[1].Category)
}

func TestParseRejectsDuplicates(t *testing.T) {
	doc := `
categories:
  - name: General
    icons:
      - {id: G1, label: "One"}
  - name: Scenes
    icons:
      - {id: G1, label: "Again"}
`
	_, err := Parse(strings.NewReader(doc), layout.MustDefault())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate icon id G1")
}

func TestParseAssignsCategoryFromGroup(t *testing.T) {
	doc := `
categories:
  - name: Scenes
    icons:
      - {id: X, label: "Party", category: General}
`
	c, err := Parse(strings.NewReader(doc), layout.MustDefault())
	require.NoError(t, err)

	icon, err := c.Lookup("X")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryScenes, icon.Category)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []models.Category{models.CategoryScenes}, c.Categories())
}
