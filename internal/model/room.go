package model

// RoomCode is the human-typed identifier for joining rooms
type RoomCode string

// ConnID identifies a single live connection
type ConnID string

// Username is a participant's self-chosen display name, unique within a room
type Username string

// RejoinKind distinguishes the two recovery paths after a reload
type RejoinKind string

const (
	RejoinHost   RejoinKind = "host"
	RejoinPlayer RejoinKind = "join"
)

// Room is a reporting view of a room's current coordination state.
// The authoritative data lives in the registry tables; game state
// (role pool, assignments, reveal flag) is owned by the host client
// and never held server-side.
type Room struct {
	Code  RoomCode
	Host  ConnID
	Names []Username
}
