package session

import "github.com/ravenkeep/townsquare/internal/model"

// Notifier is the delivery surface the controller emits protocol
// events through. The websocket layer implements it for real
// connections; tests substitute a recording fake.
//
// Delivery is best-effort and unconfirmed. Implementations must
// preserve emission order per room for listeners in that room's group.
type Notifier interface {
	// Send delivers an event to a single connection
	Send(conn model.ConnID, event model.Event)
	// Broadcast delivers an event to every member of the room's group,
	// excluding exclude if non-empty
	Broadcast(room model.RoomCode, event model.Event, exclude model.ConnID)
	// JoinGroup adds the connection to the room's fan-out group
	JoinGroup(room model.RoomCode, conn model.ConnID)
	// LeaveGroup removes the connection from the room's fan-out group
	LeaveGroup(room model.RoomCode, conn model.ConnID)
	// Sever forcibly closes the connection
	Sever(conn model.ConnID)
}
