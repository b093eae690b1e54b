package registry

import (
	"context"

	"github.com/ravenkeep/townsquare/internal/model"
)

// Store holds the room coordination tables: room->host, room->active
// names, and the (room, name)->connection index used for targeted
// delivery. Entries live for the session only; nothing here is game
// state (the host client owns that).
//
// Every name claim also records a single-valued reverse binding for
// the claiming connection, which both replaces the disconnect-time
// iteration scan with a direct lookup and enforces that a connection
// is active in at most one room at a time.
type Store interface {
	// Host mapping operations
	SetHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error
	HostOf(ctx context.Context, code model.RoomCode) (model.ConnID, error)
	// ReleaseHost removes the mapping only if conn is still the
	// recorded host, so a stale disconnect cannot evict a newer host
	// that reclaimed the code after a reconnect.
	ReleaseHost(ctx context.Context, code model.RoomCode, conn model.ConnID) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)

	// Name registry operations
	ClaimName(ctx context.Context, code model.RoomCode, name model.Username, conn model.ConnID) error
	ReleaseName(ctx context.Context, code model.RoomCode, name model.Username) error
	ActiveNames(ctx context.Context, code model.RoomCode) ([]model.Username, error)
	ConnFor(ctx context.Context, code model.RoomCode, name model.Username) (model.ConnID, error)

	// Reverse lookups for disconnect cleanup
	HostedRoom(ctx context.Context, conn model.ConnID) (model.RoomCode, bool, error)
	NameBinding(ctx context.Context, conn model.ConnID) (model.RoomCode, model.Username, bool, error)
}
