package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/panel-configurator/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrUnknownPanelType is returned when no layout exists for a panel type. It
// indicates a broken upstream link, not a user error.
var ErrUnknownPanelType = errors.New("unknown panel type")

//go:embed layouts.yaml
var embeddedLayouts []byte

// document mirrors the layouts YAML file.
type document struct {
	Defaults struct {
		Singletons []models.Category `yaml:"singletons"`
		Categories []models.Category `yaml:"categories"`
	} `yaml:"defaults"`
	Layouts []*PanelLayout `yaml:"layouts"`
}

// Provider maps panel types to their layouts.
type Provider struct {
	order   []models.PanelType
	layouts map[models.PanelType]*PanelLayout
}

// NewProvider builds a provider from already finalized layouts.
func NewProvider(layouts []*PanelLayout) (*Provider, error) {
	p := &Provider{layouts: make(map[models.PanelType]*PanelLayout, len(layouts))}
	for _, l := range layouts {
		if err := p.Register(l); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Register adds a layout. Registering the same panel type twice is an error.
func (p *Provider) Register(l *PanelLayout) error {
	if l.zoneIndex == nil {
		if err := l.finalize(); err != nil {
			return err
		}
	}
	if _, dup := p.layouts[l.Type]; dup {
		return fmt.Errorf("duplicate layout for panel type %s", l.Type)
	}
	p.layouts[l.Type] = l
	p.order = append(p.order, l.Type)
	return nil
}

// LayoutFor returns the layout of a panel type.
func (p *Provider) LayoutFor(t models.PanelType) (*PanelLayout, error) {
	l, ok := p.layouts[models.PanelType(strings.ToUpper(string(t)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPanelType, t)
	}
	return l, nil
}

// Types returns the registered panel types in declaration order.
func (p *Provider) Types() []models.PanelType {
	out := make([]models.PanelType, len(p.order))
	copy(out, p.order)
	return out
}

// All returns every layout in declaration order.
func (p *Provider) All() []*PanelLayout {
	out := make([]*PanelLayout, 0, len(p.order))
	for _, t := range p.order {
		out = append(out, p.layouts[t])
	}
	return out
}

// Load returns a provider for the layouts file at path, or for the built-in
// layouts when path is empty.
func Load(path string) (*Provider, error) {
	if path == "" {
		return ParseLayouts(strings.NewReader(string(embeddedLayouts)))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening layouts file: %w", err)
	}
	defer file.Close()

	return ParseLayouts(file)
}

// MustDefault returns the built-in layouts and panics if they are malformed.
func MustDefault() *Provider {
	p, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("built-in layouts: %v", err))
	}
	return p
}

// ParseLayouts parses a layouts YAML document from an io.Reader.
func ParseLayouts(r io.Reader) (*Provider, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing layouts: %w", err)
	}
	if len(doc.Layouts) == 0 {
		return nil, fmt.Errorf("parsing layouts: no layouts declared")
	}

	for _, l := range doc.Layouts {
		l.Type = models.PanelType(strings.ToUpper(string(l.Type)))
		if l.Singletons == nil {
			l.Singletons = doc.Defaults.Singletons
		}
		if l.Categories == nil {
			l.Categories = doc.Defaults.Categories
		}
		if l.Zones == nil {
			l.Zones = map[string][]int{}
		}
		if err := l.finalize(); err != nil {
			return nil, err
		}
	}

	return NewProvider(doc.Layouts)
}
