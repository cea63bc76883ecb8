// Package export writes project snapshots to disk for download.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panel-configurator/backend/internal/codec"
	"github.com/panel-configurator/backend/internal/models"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

const indexFile = "exports.json"

var (
	// ErrExportNotFound is returned for unknown export ids.
	ErrExportNotFound = errors.New("export not found")
	// ErrUnsupportedFormat is returned for formats other than json and msgpack.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Project is the document written to an export file.
type Project struct {
	Name       string          `json:"name"`
	ExportedAt time.Time       `json:"exportedAt"`
	Designs    []models.Design `json:"designs"`
}

// LocalStore keeps export files in a directory, with their metadata in an
// index file next to them.
type LocalStore struct {
	mu    sync.RWMutex
	dir   string
	files map[string]*models.ExportInfo
	now   func() time.Time
}

// NewLocalStore opens the export directory, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating exports directory: %w", err)
	}

	s := &LocalStore{
		dir:   dir,
		files: make(map[string]*models.ExportInfo),
		now:   time.Now,
	}

	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	switch {
	case err == nil:
		var list []*models.ExportInfo
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("reading export index: %w", err)
		}
		for _, info := range list {
			if _, statErr := os.Stat(s.filePath(info)); statErr == nil {
				s.files[info.ID] = info
			}
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading export index: %w", err)
	}

	return s, nil
}

// Save writes designs as a new export in the given format.
func (s *LocalStore) Save(name, format string, designs []models.Design) (*models.ExportInfo, error) {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatJSON
	}

	now := s.now().UTC()
	if name == "" {
		name = "project-" + now.Format("20060102-150405")
	}
	if designs == nil {
		designs = []models.Design{}
	}
	doc := Project{Name: name, ExportedAt: now, Designs: designs}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case FormatMsgpack:
		data, err = codec.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}

	info := &models.ExportInfo{
		ID:          uuid.New().String(),
		Name:        name,
		Format:      format,
		Size:        int64(len(data)),
		DesignCount: len(designs),
		CreatedAt:   now,
	}

	path := s.filePath(info)
	if err := os.WriteFile(path, data, 0644); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing export: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[info.ID] = info
	if err := s.writeIndex(); err != nil {
		delete(s.files, info.ID)
		os.Remove(path)
		return nil, err
	}

	copied := *info
	return &copied, nil
}

// Get retrieves export metadata by id.
func (s *LocalStore) Get(id string) (*models.ExportInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	copied := *info
	return &copied, nil
}

// List returns the most recent exports, newest first. A limit of zero or less
// returns every export.
func (s *LocalStore) List(limit int) ([]*models.ExportInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.ExportInfo, 0, len(s.files))
	for _, info := range s.files {
		copied := *info
		list = append(list, &copied)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Rename updates the display name of an export.
func (s *LocalStore) Rename(id, name string) (*models.ExportInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	previous := info.Name
	info.Name = name
	if err := s.writeIndex(); err != nil {
		info.Name = previous
		return nil, err
	}
	copied := *info
	return &copied, nil
}

// Path returns the file path of an export.
func (s *LocalStore) Path(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	return s.filePath(info), nil
}

// Delete removes an export and its file.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrExportNotFound, id)
	}
	if err := os.Remove(s.filePath(info)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting export: %w", err)
	}

	delete(s.files, id)
	return s.writeIndex()
}

// Load reads an export file back into a Project.
func (s *LocalStore) Load(id string) (*Project, error) {
	info, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.filePath(info))
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}

	var doc Project
	if info.Format == FormatMsgpack {
		err = codec.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	return &doc, nil
}

func (s *LocalStore) filePath(info *models.ExportInfo) string {
	return filepath.Join(s.dir, info.ID+"."+info.Format)
}

// writeIndex persists the metadata. Callers hold s.mu.
func (s *LocalStore) writeIndex() error {
	list := make([]*models.ExportInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export index: %w", err)
	}
	tmp := filepath.Join(s.dir, indexFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing export index: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, indexFile)); err != nil {
		return fmt.Errorf("writing export index: %w", err)
	}
	return nil
}
