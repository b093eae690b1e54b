package memory

import (
	"context"
	"sync"

	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/registry"
)

// Store is an in-memory implementation of the registry interface
type Store struct {
	mu sync.RWMutex

	hosts    map[model.RoomCode]model.ConnID
	names    map[model.RoomCode]map[model.Username]model.ConnID
	hostedBy map[model.ConnID]model.RoomCode
	boundBy  map[model.ConnID]binding
}

type binding struct {
	room model.RoomCode
	name model.Username
}

// New creates a new in-memory registry store
func New() *Store {
	return &Store{
		hosts:    make(map[model.RoomCode]model.ConnID),
		names:    make(map[model.RoomCode]map[model.Username]model.ConnID),
		hostedBy: make(map[model.ConnID]model.RoomCode),
		boundBy:  make(map[model.ConnID]binding),
	}
}

// Ensure Store implements the interface
var _ registry.Store = (*Store)(nil)

// Host mapping operations

func (s *Store) SetHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.hosts[code]; ok {
		delete(s.hostedBy, old)
	}
	s.hosts[code] = conn
	s.hostedBy[conn] = code
	return nil
}

func (s *Store) HostOf(ctx context.Context, code model.RoomCode) (model.ConnID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	host, ok := s.hosts[code]
	if !ok {
		return "", model.ErrRoomNotFound
	}
	return host, nil
}

func (s *Store) ReleaseHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hosts[code] != conn {
		return nil
	}
	delete(s.hosts, code)
	delete(s.hostedBy, conn)
	return nil
}

func (s *Store) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hosts[code]
	return ok, nil
}

// Name registry operations

func (s *Store) ClaimName(ctx context.Context, code model.RoomCode, name model.Username, conn model.ConnID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.boundBy[conn]; ok && (b.room != code || b.name != name) {
		return model.ErrAlreadyBound
	}

	room, ok := s.names[code]
	if !ok {
		room = make(map[model.Username]model.ConnID)
		s.names[code] = room
	}
	if holder, taken := room[name]; taken {
		if holder == conn {
			return nil
		}
		return model.ErrNameTaken
	}

	room[name] = conn
	s.boundBy[conn] = binding{room: code, name: name}
	return nil
}

func (s *Store) ReleaseName(ctx context.Context, code model.RoomCode, name model.Username) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.names[code]
	if !ok {
		return nil
	}
	conn, ok := room[name]
	if !ok {
		return nil
	}

	delete(room, name)
	if len(room) == 0 {
		delete(s.names, code)
	}
	delete(s.boundBy, conn)
	return nil
}

func (s *Store) ActiveNames(ctx context.Context, code model.RoomCode) ([]model.Username, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room := s.names[code]
	names := make([]model.Username, 0, len(room))
	for name := range room {
		names = append(names, name)
	}
	return names, nil
}

func (s *Store) ConnFor(ctx context.Context, code model.RoomCode, name model.Username) (model.ConnID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conn, ok := s.names[code][name]
	if !ok {
		return "", model.ErrNotInRoom
	}
	return conn, nil
}

// Reverse lookups

func (s *Store) HostedRoom(ctx context.Context, conn model.ConnID) (model.RoomCode, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.hostedBy[conn]
	return code, ok, nil
}

func (s *Store) NameBinding(ctx context.Context, conn model.ConnID) (model.RoomCode, model.Username, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boundBy[conn]
	return b.room, b.name, ok, nil
}
