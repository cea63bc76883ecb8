// mock_storage.go - Mock cart, export and font implementations for testing
package testutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/panel-configurator/backend/internal/cart"
	"github.com/panel-configurator/backend/internal/export"
	"github.com/panel-configurator/backend/internal/models"
)

// ErrInjected is returned by mocks configured to fail.
var ErrInjected = errors.New("injected failure")

// FailingCart wraps a cart and fails every call after SetFail(true)
type FailingCart struct {
	cart.Store
	mu   sync.Mutex
	fail bool
}

// NewFailingCart wraps an in-memory cart
func NewFailingCart() *FailingCart {
	return &FailingCart{Store: cart.NewMemoryStore()}
}

// SetFail switches failure injection on or off
func (f *FailingCart) SetFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *FailingCart) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrInjected
	}
	return nil
}

func (f *FailingCart) AddDesign(ctx context.Context, d models.Design) (int, error) {
	if err := f.err(); err != nil {
		return 0, err
	}
	return f.Store.AddDesign(ctx, d)
}

func (f *FailingCart) UpdateDesign(ctx context.Context, index int, d models.Design) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Store.UpdateDesign(ctx, index, d)
}

func (f *FailingCart) ListDesigns(ctx context.Context) ([]models.Design, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Store.ListDesigns(ctx)
}

func (f *FailingCart) GetDesign(ctx context.Context, index int) (models.Design, error) {
	if err := f.err(); err != nil {
		return models.Design{}, err
	}
	return f.Store.GetDesign(ctx, index)
}

func (f *FailingCart) RemoveDesign(ctx context.Context, index int) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Store.RemoveDesign(ctx, index)
}

func (f *FailingCart) Totals(ctx context.Context) ([]cart.PanelTotal, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Store.Totals(ctx)
}

// Ensure FailingCart implements cart.Store
var _ cart.Store = (*FailingCart)(nil)

// MockExports keeps export metadata in memory and writes a small placeholder
// file per export so downloads have something to serve
type MockExports struct {
	mu      sync.RWMutex
	dir     string
	files   map[string]*models.ExportInfo
	designs map[string][]models.Design
}

// NewMockExports creates an export mock writing into tempDir
func NewMockExports(tempDir string) *MockExports {
	return &MockExports{
		dir:     tempDir,
		files:   make(map[string]*models.ExportInfo),
		designs: make(map[string][]models.Design),
	}
}

func (m *MockExports) Save(name, format string, designs []models.Design) (*models.ExportInfo, error) {
	if format != export.FormatJSON && format != export.FormatMsgpack {
		return nil, fmt.Errorf("%w: %q", export.ErrUnsupportedFormat, format)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := generateTestID()
	content := []byte(fmt.Sprintf("%d designs", len(designs)))
	if err := os.WriteFile(filepath.Join(m.dir, id+"."+format), content, 0644); err != nil {
		return nil, err
	}

	info := &models.ExportInfo{
		ID:          id,
		Name:        name,
		Format:      format,
		Size:        int64(len(content)),
		DesignCount: len(designs),
		CreatedAt:   time.Now(),
	}
	m.files[id] = info
	m.designs[id] = designs
	copied := *info
	return &copied, nil
}

func (m *MockExports) Get(id string) (*models.ExportInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", export.ErrExportNotFound, id)
	}
	copied := *info
	return &copied, nil
}

func (m *MockExports) List(limit int) ([]*models.ExportInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.ExportInfo
	for _, info := range m.files {
		copied := *info
		files = append(files, &copied)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ID > files[j].ID })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

func (m *MockExports) Rename(id, name string) (*models.ExportInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", export.ErrExportNotFound, id)
	}
	info.Name = name
	copied := *info
	return &copied, nil
}

func (m *MockExports) Path(id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", export.ErrExportNotFound, id)
	}
	return filepath.Join(m.dir, id+"."+info.Format), nil
}

func (m *MockExports) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.files[id]
	if !ok {
		return fmt.Errorf("%w: %s", export.ErrExportNotFound, id)
	}
	os.Remove(filepath.Join(m.dir, id+"."+info.Format))
	delete(m.files, id)
	delete(m.designs, id)
	return nil
}

// Test Helper Methods

// Designs returns the designs an export was saved with
func (m *MockExports) Designs(id string) []models.Design {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.designs[id]
}

// Count returns the number of stored exports
func (m *MockExports) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// StaticFonts is a font source with a fixed list
type StaticFonts []string

// Fonts returns the list
func (s StaticFonts) Fonts(context.Context) []string {
	return []string(s)
}

// generateTestID generates a simple ordered test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%04d", testIDCounter)
}
