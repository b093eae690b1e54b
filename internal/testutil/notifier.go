package testutil

import (
	"sync"

	"github.com/ravenkeep/townsquare/internal/model"
)

// BroadcastRecord captures one Broadcast call
type BroadcastRecord struct {
	Room    model.RoomCode
	Event   model.Event
	Exclude model.ConnID
}

// RecordingNotifier is an in-memory fake of the delivery surface,
// recording every emission for assertions.
type RecordingNotifier struct {
	mu sync.Mutex

	sent       map[model.ConnID][]model.Event
	broadcasts []BroadcastRecord
	groups     map[model.RoomCode]map[model.ConnID]bool
	severed    []model.ConnID
}

// NewRecordingNotifier creates an empty recording notifier
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{
		sent:   make(map[model.ConnID][]model.Event),
		groups: make(map[model.RoomCode]map[model.ConnID]bool),
	}
}

func (n *RecordingNotifier) Send(conn model.ConnID, event model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[conn] = append(n.sent[conn], event)
}

func (n *RecordingNotifier) Broadcast(room model.RoomCode, event model.Event, exclude model.ConnID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, BroadcastRecord{Room: room, Event: event, Exclude: exclude})
	for conn := range n.groups[room] {
		if conn == exclude {
			continue
		}
		n.sent[conn] = append(n.sent[conn], event)
	}
}

func (n *RecordingNotifier) JoinGroup(room model.RoomCode, conn model.ConnID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.groups[room] == nil {
		n.groups[room] = make(map[model.ConnID]bool)
	}
	n.groups[room][conn] = true
}

func (n *RecordingNotifier) LeaveGroup(room model.RoomCode, conn model.ConnID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.groups[room], conn)
}

func (n *RecordingNotifier) Sever(conn model.ConnID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.severed = append(n.severed, conn)
}

// SentTo returns the events delivered to conn, in order
func (n *RecordingNotifier) SentTo(conn model.ConnID) []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Event(nil), n.sent[conn]...)
}

// Broadcasts returns every Broadcast call, in order
func (n *RecordingNotifier) Broadcasts() []BroadcastRecord {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]BroadcastRecord(nil), n.broadcasts...)
}

// InGroup reports whether conn is a member of the room's group
func (n *RecordingNotifier) InGroup(room model.RoomCode, conn model.ConnID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.groups[room][conn]
}

// Severed returns the connections forcibly closed, in order
func (n *RecordingNotifier) Severed() []model.ConnID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.ConnID(nil), n.severed...)
}
