package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/services/directory"
	"github.com/ravenkeep/townsquare/internal/services/identity"
)

// Controller drives the per-connection lifecycle: hosting, joining,
// rejoining after a reload, voluntary leaves, abrupt disconnects, and
// host-issued kicks.
//
// Each operation is a compound lookup-mutate-notify sequence. The
// controller serializes them under one mutex so a disconnect cleanup
// and a near-simultaneous join with the same name can never interleave
// mid-sequence, and so events within a room are emitted in a single
// well-defined order.
type Controller struct {
	mu sync.Mutex

	directory *directory.Service
	identity  *identity.Service
	notifier  Notifier
	logger    *slog.Logger
}

// NewController creates a new session controller
func NewController(
	directory *directory.Service,
	identity *identity.Service,
	notifier Notifier,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		directory: directory,
		identity:  identity,
		notifier:  notifier,
		logger:    logger.With("component", "session"),
	}
}

// Host creates a room for conn and replies with the new code.
// The code is only ever emitted to the requesting connection.
// A connection holding any standing already, hosting or joined, is
// refused: registering a second room would orphan the first one's
// host mapping, leaving a room nobody can reclaim.
func (c *Controller) Host(ctx context.Context, conn model.ConnID) (model.RoomCode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, hosting, err := c.directory.HostedRoom(ctx, conn); err != nil {
		return "", err
	} else if hosting {
		return "", model.ErrAlreadyBound
	}
	if _, _, bound, err := c.identity.BindingFor(ctx, conn); err != nil {
		return "", err
	} else if bound {
		return "", model.ErrAlreadyBound
	}

	code, err := c.directory.CreateRoom(ctx, conn)
	if err != nil {
		return "", err
	}

	c.notifier.JoinGroup(code, conn)
	c.notifier.Send(conn, model.Event{Type: model.EventHosted, Data: code})
	return code, nil
}

// Join binds conn to name within the room, replies with the current
// presence list, and announces the arrival to the rest of the room.
func (c *Controller) Join(ctx context.Context, conn model.ConnID, room model.RoomCode, name model.Username) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.join(ctx, conn, room, name); err != nil {
		return err
	}
	return c.announce(ctx, conn, room, name, model.EventJoined)
}

// Rejoin restores a connection's prior standing after a reload.
// Hosts re-register against their existing code; players go through
// the same checks as a fresh join but are answered with a
// reconnection event instead.
func (c *Controller) Rejoin(ctx context.Context, conn model.ConnID, kind model.RejoinKind, room model.RoomCode, name model.Username) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind == model.RejoinHost {
		return c.rejoinHost(ctx, conn, room)
	}

	if err := c.join(ctx, conn, room, name); err != nil {
		return err
	}
	// Members who never saw this name leave treat the repeat
	// announcement as benign noise
	return c.announce(ctx, conn, room, name, model.EventReconnectedJoin)
}

func (c *Controller) rejoinHost(ctx context.Context, conn model.ConnID, room model.RoomCode) error {
	current, err := c.directory.LookupHost(ctx, room)
	if err == nil && current != conn {
		// Deliberately conservative: the recorded host may in fact be
		// dead, but liveness is not verified here. A rare false
		// rejection is cheaper than two live hosts.
		return model.ErrHostAlreadyExists
	}

	if err := c.directory.SetHost(ctx, room, conn); err != nil {
		return err
	}

	c.notifier.JoinGroup(room, conn)
	c.notifier.Send(conn, model.Event{Type: model.EventReconnectedHost, Data: room})
	c.logger.Info("host reconnected", "room", room)
	return nil
}

// join is the shared gate-then-claim sequence. The fan-out group is
// only joined once both checks pass.
func (c *Controller) join(ctx context.Context, conn model.ConnID, room model.RoomCode, name model.Username) error {
	exists, err := c.directory.Exists(ctx, room)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrRoomNotFound
	}

	if err := c.identity.Claim(ctx, room, name, conn); err != nil {
		return err
	}

	c.notifier.JoinGroup(room, conn)
	return nil
}

func (c *Controller) announce(ctx context.Context, conn model.ConnID, room model.RoomCode, name model.Username, reply model.EventType) error {
	names, err := c.identity.ListActive(ctx, room)
	if err != nil {
		return err
	}

	c.notifier.Send(conn, model.Event{Type: reply, Data: model.JoinedPayload{
		Room:      room,
		Username:  name,
		Usernames: names,
	}})
	c.notifier.Broadcast(room, model.Event{Type: model.EventUserJoined, Data: name}, conn)
	c.logger.Info("participant joined", "room", room, "username", name)
	return nil
}

// Leave handles a voluntary departure: the rest of the room is told
// first, then the connection's bindings are released and it gets a
// direct acknowledgement.
func (c *Controller) Leave(ctx context.Context, conn model.ConnID, room model.RoomCode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	boundRoom, name, bound, err := c.identity.BindingFor(ctx, conn)
	if err != nil {
		return err
	}
	if bound && boundRoom == room {
		c.notifier.Broadcast(room, model.Event{Type: model.EventUserLeft, Data: name}, conn)
		if err := c.identity.Release(ctx, room, name); err != nil {
			return err
		}
	}

	c.notifier.LeaveGroup(room, conn)

	if err := c.directory.ReleaseHost(ctx, room, conn); err != nil {
		return err
	}

	c.notifier.Send(conn, model.Event{Type: model.EventLeftRoom, Data: room})
	c.logger.Info("participant left", "room", room, "username", name)
	return nil
}

// Disconnect cleans up after an abrupt connection loss. The reverse
// indexes give direct lookups of whatever the connection held; no
// presence event is broadcast, matching the voluntary-leave-only
// notification policy.
func (c *Controller) Disconnect(ctx context.Context, conn model.ConnID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if room, ok, err := c.directory.HostedRoom(ctx, conn); err != nil {
		return err
	} else if ok {
		if err := c.directory.ReleaseHost(ctx, room, conn); err != nil {
			return err
		}
		c.notifier.LeaveGroup(room, conn)
		c.logger.Info("host disconnected", "room", room)
	}

	if room, name, ok, err := c.identity.BindingFor(ctx, conn); err != nil {
		return err
	} else if ok {
		if err := c.identity.Release(ctx, room, name); err != nil {
			return err
		}
		c.notifier.LeaveGroup(room, conn)
		c.logger.Info("participant disconnected", "room", room, "username", name)
	}

	return nil
}

// Kick forcibly removes the named participant. Only the room's host
// may kick; a non-host issuer or an unknown name is a silent no-op.
func (c *Controller) Kick(ctx context.Context, issuer model.ConnID, room model.RoomCode, name model.Username) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	host, err := c.directory.LookupHost(ctx, room)
	if err != nil || host != issuer {
		c.logger.Warn("kick ignored from non-host", "room", room, "username", name)
		return nil
	}

	target, err := c.identity.ConnFor(ctx, room, name)
	if err != nil {
		c.logger.Warn("kick ignored for unknown name", "room", room, "username", name)
		return nil
	}

	c.notifier.Send(target, model.Event{Type: model.EventKicked})
	if err := c.identity.Release(ctx, room, name); err != nil {
		return err
	}
	c.notifier.LeaveGroup(room, target)
	c.notifier.Broadcast(room, model.Event{Type: model.EventUserLeft, Data: name}, target)
	c.notifier.Sever(target)
	c.logger.Info("participant kicked", "room", room, "username", name)
	return nil
}
