// Package jsondoc keeps the published guide documents as JSON files in the
// data directory the frontend serves.
package jsondoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"castro_guide/internal/domain"
)

const (
	PlacesFile   = "places.json"
	CurationFile = "curation.json"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// Load reads places.json; domain.ErrNotFound when it does not exist yet.
func (s *Store) Load(ctx context.Context) (domain.Document, error) {
	var doc domain.Document
	if err := s.read(PlacesFile, &doc); err != nil {
		return domain.Document{}, err
	}
	return doc, nil
}

// Save replaces places.json atomically.
func (s *Store) Save(ctx context.Context, doc domain.Document) error {
	if doc.Places == nil {
		doc.Places = []domain.Place{}
	}
	return s.write(PlacesFile, doc)
}

// LoadCuration reads curation.json; a missing file is an empty curation.
func (s *Store) LoadCuration(ctx context.Context) (domain.Curation, error) {
	var cur domain.Curation
	err := s.read(CurationFile, &cur)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Curation{}, nil
	}
	return cur, err
}

// WriteReport stores a run report next to the documents.
func (s *Store) WriteReport(ctx context.Context, name string, v any) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("jsondoc: invalid report name %q", name)
	}
	return s.write(name, v)
}

func (s *Store) read(name string, dst any) error {
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("jsondoc %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("jsondoc %s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("jsondoc %s: decode: %w", name, err)
	}
	return nil
}

// write goes through a temp file in the same directory so readers never see
// a half-written document.
func (s *Store) write(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("jsondoc %s: encode: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("jsondoc: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsondoc %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(append(b, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("jsondoc %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("jsondoc %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsondoc %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("jsondoc %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("jsondoc %s: %w", name, err)
	}
	return nil
}
