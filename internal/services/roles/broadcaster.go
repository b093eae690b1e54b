package roles

import (
	"context"
	"log/slog"

	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/services/directory"
	"github.com/ravenkeep/townsquare/internal/services/identity"
	"github.com/ravenkeep/townsquare/internal/services/session"
)

// Broadcaster relays role assignments from the host to players. The
// server never stores assignments; the host client owns that state
// and this component only routes its messages.
type Broadcaster struct {
	directory *directory.Service
	identity  *identity.Service
	notifier  session.Notifier
	logger    *slog.Logger
}

// NewBroadcaster creates a new role broadcaster
func NewBroadcaster(
	directory *directory.Service,
	identity *identity.Service,
	notifier session.Notifier,
	logger *slog.Logger,
) *Broadcaster {
	return &Broadcaster{
		directory: directory,
		identity:  identity,
		notifier:  notifier,
		logger:    logger.With("component", "roles"),
	}
}

// Assign delivers a role payload to the single connection bound to
// name in the room. Role identity is private per player, so this is a
// point-to-point send, never a broadcast. A non-host issuer or an
// unbound name is a silent no-op.
func (b *Broadcaster) Assign(ctx context.Context, issuer model.ConnID, room model.RoomCode, name model.Username, role model.RoleRef, roleData model.RoleData) error {
	host, err := b.directory.LookupHost(ctx, room)
	if err != nil || host != issuer {
		b.logger.Warn("assign ignored from non-host", "room", room, "username", name)
		return nil
	}

	target, err := b.identity.ConnFor(ctx, room, name)
	if err != nil {
		b.logger.Warn("assign ignored for unbound name", "room", room, "username", name)
		return nil
	}

	b.notifier.Send(target, model.Event{Type: model.EventAssignedRole, Data: model.AssignedRolePayload{
		Role:     role,
		RoleData: roleData,
	}})
	b.logger.Info("role assigned", "room", room, "username", name)
	return nil
}

// Reveal tells every member of the room that roles are now visible.
// The event carries no role data; the host follows up by re-sending
// every individual assignment.
func (b *Broadcaster) Reveal(ctx context.Context, issuer model.ConnID, room model.RoomCode) error {
	host, err := b.directory.LookupHost(ctx, room)
	if err != nil || host != issuer {
		b.logger.Warn("reveal ignored from non-host", "room", room)
		return nil
	}

	b.notifier.Broadcast(room, model.Event{Type: model.EventRolesRevealed}, "")
	b.logger.Info("roles revealed", "room", room)
	return nil
}
