package directory

import (
	"context"
	"log/slog"

	"github.com/ravenkeep/townsquare/internal/dependencies/random"
	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/registry"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 4
	// RoomCodeAlphabet is the characters used in room codes
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Service manages the room code directory: code generation and the
// room -> host mapping
type Service struct {
	store  registry.Store
	random random.Random
	logger *slog.Logger
}

// NewService creates a new directory service
func NewService(store registry.Store, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		random: random,
		logger: logger.With("component", "directory"),
	}
}

// CreateRoom generates an unused room code and registers conn as its host.
// The returned code is immediately valid for joins.
func (s *Service) CreateRoom(ctx context.Context, conn model.ConnID) (model.RoomCode, error) {
	var code model.RoomCode
	for {
		code = model.RoomCode(s.random.Code(RoomCodeLength, RoomCodeAlphabet))
		exists, err := s.store.RoomExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			break
		}
	}

	if err := s.store.SetHost(ctx, code, conn); err != nil {
		return "", err
	}

	s.logger.Info("room created", "room", code)
	return code, nil
}

// LookupHost returns the connection hosting the room
func (s *Service) LookupHost(ctx context.Context, code model.RoomCode) (model.ConnID, error) {
	return s.store.HostOf(ctx, code)
}

// Exists reports whether the room has a registered host
func (s *Service) Exists(ctx context.Context, code model.RoomCode) (bool, error) {
	return s.store.RoomExists(ctx, code)
}

// SetHost registers conn as the host of an existing code without
// generating a new one, used by the host rejoin path
func (s *Service) SetHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error {
	return s.store.SetHost(ctx, code, conn)
}

// ReleaseHost removes the host mapping if conn is still the recorded host
func (s *Service) ReleaseHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error {
	return s.store.ReleaseHost(ctx, code, conn)
}

// HostedRoom returns the room conn hosts, if any
func (s *Service) HostedRoom(ctx context.Context, conn model.ConnID) (model.RoomCode, bool, error) {
	return s.store.HostedRoom(ctx, conn)
}
