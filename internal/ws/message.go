package ws

import (
	"encoding/json"

	"github.com/ravenkeep/townsquare/internal/model"
)

// Client-to-server command names
const (
	CmdHost        = "host"
	CmdJoinRoom    = "join-room"
	CmdRejoin      = "rejoin"
	CmdLeaveRoom   = "leave-room"
	CmdAssignRole  = "assign-role"
	CmdRevealRoles = "reveal-roles"
	CmdKickPlayer  = "kick-player"
)

// Envelope is the client-to-server wire frame. Data is decoded per
// command after dispatch.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// HostRequest carries optional context from the host client. The
// server logs it but never keys behavior off it
type HostRequest struct {
	PlayerCount int    `json:"playerCount,omitempty"`
	Edition     string `json:"edition,omitempty"`
}

// JoinRequest is the payload of join-room
type JoinRequest struct {
	Room     model.RoomCode `json:"room"`
	Username model.Username `json:"username"`
}

// RejoinRequest is the payload of rejoin
type RejoinRequest struct {
	Kind     model.RejoinKind `json:"type"`
	Room     model.RoomCode   `json:"room"`
	Username model.Username   `json:"username"`
}

// AssignRoleRequest is the payload of assign-role
type AssignRoleRequest struct {
	Room     model.RoomCode `json:"room"`
	Username model.Username `json:"username"`
	Role     model.RoleRef  `json:"role"`
	RoleData model.RoleData `json:"roleData"`
}

// KickRequest is the payload of kick-player
type KickRequest struct {
	Room     model.RoomCode `json:"room"`
	Username model.Username `json:"username"`
}
