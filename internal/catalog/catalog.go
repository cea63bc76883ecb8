// Package catalog is the static icon catalog, keyed by id and category.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/panel-configurator/backend/internal/layout"
	"github.com/panel-configurator/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrUnknownIcon is returned when an icon id is not in the catalog.
var ErrUnknownIcon = errors.New("unknown icon")

//go:embed icons.yaml
var embeddedIcons []byte

type document struct {
	Categories []struct {
		Name  models.Category `yaml:"name"`
		Icons []models.Icon   `yaml:"icons"`
	} `yaml:"categories"`
}

// CategoryIcons groups the icons of one category.
type CategoryIcons struct {
	Category models.Category `json:"category"`
	Icons    []models.Icon   `json:"icons"`
}

// Catalog is a read-only icon lookup. Category sets per panel type come from
// the layout provider so that catalog selection is resolved when the catalog
// is built, not at placement time.
type Catalog struct {
	layouts    *layout.Provider
	icons      map[string]models.Icon
	byCategory map[models.Category][]models.Icon
	categories []models.Category
}

// Load reads the catalog at path, or the built-in catalog when path is empty.
func Load(path string, layouts *layout.Provider) (*Catalog, error) {
	if path == "" {
		return Parse(strings.NewReader(string(embeddedIcons)), layouts)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening icon catalog: %w", err)
	}
	defer file.Close()

	return Parse(file, layouts)
}

// MustDefault returns the built-in catalog and panics if it is malformed.
func MustDefault(layouts *layout.Provider) *Catalog {
	c, err := Load("", layouts)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
}

// Parse decodes a catalog YAML document.
func Parse(r io.Reader, layouts *layout.Provider) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing icon catalog: %w", err)
	}

	c := &Catalog{
		layouts:    layouts,
		icons:      make(map[string]models.Icon),
		byCategory: make(map[models.Category][]models.Icon),
	}
	for _, group := range doc.Categories {
		if group.Name == "" {
			return nil, fmt.Errorf("parsing icon catalog: category without name")
		}
		if _, seen := c.byCategory[group.Name]; !seen {
			c.categories = append(c.categories, group.Name)
		}
		for _, icon := range group.Icons {
			if icon.ID == "" {
				return nil, fmt.Errorf("parsing icon catalog: icon without id in %s", group.Name)
			}
			if _, dup := c.icons[icon.ID]; dup {
				return nil, fmt.Errorf("parsing icon catalog: duplicate icon id %s", icon.ID)
			}
			icon.Category = group.Name
			c.icons[icon.ID] = icon
			c.byCategory[group.Name] = append(c.byCategory[group.Name], icon)
		}
	}

	return c, nil
}

// Lookup returns the icon with the given id.
func (c *Catalog) Lookup(id string) (models.Icon, error) {
	icon, ok := c.icons[id]
	if !ok {
		return models.Icon{}, fmt.Errorf("%w: %q", ErrUnknownIcon, id)
	}
	return icon, nil
}

// Len returns the number of icons in the catalog.
func (c *Catalog) Len() int {
	return len(c.icons)
}

// Categories returns every category in catalog order.
func (c *Catalog) Categories() []models.Category {
	out := make([]models.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// ListIconsByCategory returns the icons of a category in catalog order.
func (c *Catalog) ListIconsByCategory(category models.Category) []models.Icon {
	icons := c.byCategory[category]
	out := make([]models.Icon, len(icons))
	copy(out, icons)
	return out
}

// CategoriesFor returns the categories a panel type exposes.
func (c *Catalog) CategoriesFor(pt models.PanelType) ([]models.Category, error) {
	l, err := c.layouts.LayoutFor(pt)
	if err != nil {
		return nil, err
	}
	out := make([]models.Category, len(l.Categories))
	copy(out, l.Categories)
	return out, nil
}

// IconsFor returns the icons a panel type exposes, grouped by category in the
// panel's category order.
func (c *Catalog) IconsFor(pt models.PanelType) ([]CategoryIcons, error) {
	categories, err := c.CategoriesFor(pt)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryIcons, 0, len(categories))
	for _, cat := range categories {
		out = append(out, CategoryIcons{Category: cat, Icons: c.ListIconsByCategory(cat)})
	}
	return out, nil
}
