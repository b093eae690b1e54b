package identity

import (
	"context"
	"log/slog"

	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/registry"
)

// Service manages display name claims within rooms
type Service struct {
	store  registry.Store
	logger *slog.Logger
}

// NewService creates a new identity service
func NewService(store registry.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With("component", "identity"),
	}
}

// Claim binds name to conn within the room. Fails with ErrNameTaken if
// another connection holds the name, or ErrAlreadyBound if conn is
// already active under a different binding.
func (s *Service) Claim(ctx context.Context, code model.RoomCode, name model.Username, conn model.ConnID) error {
	return s.store.ClaimName(ctx, code, name, conn)
}

// Release removes the name claim. Idempotent.
func (s *Service) Release(ctx context.Context, code model.RoomCode, name model.Username) error {
	return s.store.ReleaseName(ctx, code, name)
}

// ListActive returns the display names currently claimed in the room
func (s *Service) ListActive(ctx context.Context, code model.RoomCode) ([]model.Username, error) {
	return s.store.ActiveNames(ctx, code)
}

// ConnFor returns the connection bound to name in the room
func (s *Service) ConnFor(ctx context.Context, code model.RoomCode, name model.Username) (model.ConnID, error) {
	return s.store.ConnFor(ctx, code, name)
}

// BindingFor returns the (room, name) binding held by conn, if any
func (s *Service) BindingFor(ctx context.Context, conn model.ConnID) (model.RoomCode, model.Username, bool, error) {
	return s.store.NameBinding(ctx, conn)
}
