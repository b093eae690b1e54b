package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ravenkeep/townsquare/internal/model"
)

// Service provides edition content: role definitions and night-order
// sequences. Editions are JSON files fetched by the host client; the
// server only serves them and never interprets role semantics.
type Service struct {
	mu       sync.RWMutex
	editions map[string]*model.Edition
	loaded   bool
}

// New creates a new content service
func New() *Service {
	return &Service{
		editions: make(map[string]*model.Edition),
	}
}

// LoadDir loads every .json edition file in dir. The edition name is
// the filename without extension.
func (s *Service) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if err := s.LoadFromFile(name, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// LoadFromFile loads a single edition from a JSON file
func (s *Service) LoadFromFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var edition model.Edition
	if err := json.Unmarshal(data, &edition); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.editions[name] = &edition
	s.loaded = true
	return nil
}

// LoadEdition directly loads an edition (useful for testing)
func (s *Service) LoadEdition(name string, edition *model.Edition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editions[name] = edition
	s.loaded = true
}

// Edition returns the named edition
func (s *Service) Edition(name string) (*model.Edition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, model.ErrContentNotLoaded
	}
	edition, ok := s.editions[name]
	if !ok {
		return nil, model.ErrEditionNotFound
	}
	return edition, nil
}

// RoleData looks up a role's payload within an edition
func (s *Service) RoleData(edition string, ref model.RoleRef) (model.RoleData, error) {
	e, err := s.Edition(edition)
	if err != nil {
		return nil, err
	}
	data, ok := e.Role(ref)
	if !ok {
		return nil, model.ErrEditionNotFound
	}
	return data, nil
}

// NightOrder returns the edition's night-order sequence
func (s *Service) NightOrder(edition string) ([]string, error) {
	e, err := s.Edition(edition)
	if err != nil {
		return nil, err
	}
	return e.NightOrder, nil
}

// Editions lists the loaded edition names
func (s *Service) Editions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.editions))
	for name := range s.editions {
		names = append(names, name)
	}
	return names
}

// IsLoaded returns whether any edition content has been loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
