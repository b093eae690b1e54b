package model

import "errors"

// EventType identifies a server-to-client protocol event
type EventType string

const (
	EventHosted          EventType = "hosted"
	EventJoined          EventType = "joined"
	EventReconnectedHost EventType = "reconnected-host"
	EventReconnectedJoin EventType = "reconnected-join"
	EventJoinError       EventType = "join-error"
	EventUserJoined      EventType = "user-joined"
	EventUserLeft        EventType = "user-left"
	EventLeftRoom        EventType = "left-room"
	EventAssignedRole    EventType = "assigned-role"
	EventRolesRevealed   EventType = "roles-revealed"
	EventKicked          EventType = "kicked"
)

// Event is the server-to-client wire envelope
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// JoinedPayload is carried by joined and reconnected-join events
type JoinedPayload struct {
	Room      RoomCode   `json:"room"`
	Username  Username   `json:"username"`
	Usernames []Username `json:"usernames"`
}

// AssignedRolePayload is delivered only to the participant the role
// belongs to; role identity is private per player.
type AssignedRolePayload struct {
	Role     RoleRef  `json:"role"`
	RoleData RoleData `json:"roleData"`
}

// JoinErrorMessage maps a session error to its stable user-facing
// reason string. The presentation layer shows these verbatim and
// keys retry flows off them, so they are part of the protocol
// contract and must not change between releases.
func JoinErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found or no host available."
	case errors.Is(err, ErrNameTaken):
		return "Username already taken."
	case errors.Is(err, ErrHostAlreadyExists):
		return "Host already exists for this room."
	case errors.Is(err, ErrAlreadyBound):
		return "Already active in another room."
	default:
		return "Unable to join room."
	}
}
