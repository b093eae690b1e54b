package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ravenkeep/townsquare/internal/dependencies/clock"
	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/services/roles"
	"github.com/ravenkeep/townsquare/internal/services/session"
)

var _ session.Notifier = (*Manager)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades websocket connections and dispatches protocol
// commands to the session and role layers
type Handler struct {
	manager  *Manager
	sessions *session.Controller
	roles    *roles.Broadcaster
	clock    clock.Clock
	logger   *slog.Logger
}

// NewHandler creates a new websocket handler
func NewHandler(manager *Manager, sessions *session.Controller, roles *roles.Broadcaster, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		manager:  manager,
		sessions: sessions,
		roles:    roles,
		clock:    clk,
		logger:   logger.With("component", "ws-handler"),
	}
}

// ServeHTTP upgrades the connection and runs its read loop until the
// peer goes away
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(model.ConnID(uuid.NewString()), conn)
	h.manager.Register(client)
	opened := h.clock.Now()
	h.logger.Info("connection opened", "conn", client.ID)

	defer func() {
		// Abrupt departure: release whatever the connection held
		if err := h.sessions.Disconnect(r.Context(), client.ID); err != nil {
			h.logger.Error("disconnect cleanup failed", "conn", client.ID, "error", err)
		}
		h.manager.Unregister(client.ID)
		_ = conn.Close()
		h.logger.Info("connection closed", "conn", client.ID,
			"duration", h.clock.Since(opened))
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read error", "conn", client.ID, "error", err)
			}
			return
		}
		h.dispatch(r, client, env)
	}
}

func (h *Handler) dispatch(r *http.Request, client *Client, env Envelope) {
	ctx := r.Context()

	switch env.Type {
	case CmdHost:
		if len(env.Data) > 0 {
			var req HostRequest
			if err := json.Unmarshal(env.Data, &req); err != nil {
				h.logger.Warn("malformed host", "conn", client.ID, "error", err)
				return
			}
			h.logger.Debug("host request", "conn", client.ID,
				"player_count", req.PlayerCount, "edition", req.Edition)
		}
		if _, err := h.sessions.Host(ctx, client.ID); err != nil {
			h.sendJoinError(client, err)
		}

	case CmdJoinRoom:
		var req JoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.logger.Warn("malformed join-room", "conn", client.ID, "error", err)
			return
		}
		if err := h.sessions.Join(ctx, client.ID, req.Room, req.Username); err != nil {
			h.sendJoinError(client, err)
		}

	case CmdRejoin:
		var req RejoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.logger.Warn("malformed rejoin", "conn", client.ID, "error", err)
			return
		}
		if err := h.sessions.Rejoin(ctx, client.ID, req.Kind, req.Room, req.Username); err != nil {
			h.sendJoinError(client, err)
		}

	case CmdLeaveRoom:
		var room model.RoomCode
		if err := json.Unmarshal(env.Data, &room); err != nil {
			h.logger.Warn("malformed leave-room", "conn", client.ID, "error", err)
			return
		}
		if err := h.sessions.Leave(ctx, client.ID, room); err != nil {
			h.logger.Error("leave failed", "conn", client.ID, "room", room, "error", err)
		}

	case CmdAssignRole:
		var req AssignRoleRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.logger.Warn("malformed assign-role", "conn", client.ID, "error", err)
			return
		}
		if err := h.roles.Assign(ctx, client.ID, req.Room, req.Username, req.Role, req.RoleData); err != nil {
			h.logger.Error("assign failed", "conn", client.ID, "room", req.Room, "error", err)
		}

	case CmdRevealRoles:
		var room model.RoomCode
		if err := json.Unmarshal(env.Data, &room); err != nil {
			h.logger.Warn("malformed reveal-roles", "conn", client.ID, "error", err)
			return
		}
		if err := h.roles.Reveal(ctx, client.ID, room); err != nil {
			h.logger.Error("reveal failed", "conn", client.ID, "room", room, "error", err)
		}

	case CmdKickPlayer:
		var req KickRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.logger.Warn("malformed kick-player", "conn", client.ID, "error", err)
			return
		}
		if err := h.sessions.Kick(ctx, client.ID, req.Room, req.Username); err != nil {
			h.logger.Error("kick failed", "conn", client.ID, "room", req.Room, "error", err)
		}

	default:
		h.logger.Warn("unknown command", "conn", client.ID, "command", env.Type)
	}
}

// sendJoinError surfaces a failed join/rejoin to the requester as the
// stable user-facing reason string
func (h *Handler) sendJoinError(client *Client, err error) {
	h.manager.Send(client.ID, model.Event{
		Type: model.EventJoinError,
		Data: model.JoinErrorMessage(err),
	})
}
