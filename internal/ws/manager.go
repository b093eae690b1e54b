package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ravenkeep/townsquare/internal/model"
)

// Manager tracks live clients and their room groups, and is the
// delivery surface the session layer emits events through.
//
// Emission order matters: everything a compound operation emits for
// one room must arrive at each member in the order it was emitted.
// The manager therefore delivers synchronously under its mutex into
// per-client buffered channels; the per-client write pump preserves
// the queued order from there.
type Manager struct {
	mu      sync.Mutex
	clients map[model.ConnID]*Client
	rooms   map[model.RoomCode]map[model.ConnID]*Client
	logger  *slog.Logger
}

// NewManager creates an empty connection manager
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients: make(map[model.ConnID]*Client),
		rooms:   make(map[model.RoomCode]map[model.ConnID]*Client),
		logger:  logger.With("component", "ws"),
	}
}

// Register adds a client and starts its write pump
func (m *Manager) Register(c *Client) {
	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()

	if c.conn != nil {
		go c.writePump()
	}
}

// Unregister removes a client from the manager and every room group
func (m *Manager) Unregister(id model.ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(id)
}

func (m *Manager) dropLocked(id model.ConnID) {
	c, ok := m.clients[id]
	if !ok {
		return
	}
	delete(m.clients, id)
	for room, members := range m.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(m.rooms, room)
		}
	}
	close(c.send)
}

// Send delivers an event to a single connection
func (m *Manager) Send(conn model.ConnID, event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("marshal event", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverLocked(conn, data)
}

// Broadcast delivers an event to every member of the room's group,
// minus exclude if non-empty
func (m *Manager) Broadcast(room model.RoomCode, event model.Event, exclude model.ConnID) {
	data, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("marshal event", "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.rooms[room] {
		if id == exclude {
			continue
		}
		m.deliverLocked(id, data)
	}
}

func (m *Manager) deliverLocked(id model.ConnID, data []byte) {
	c, ok := m.clients[id]
	if !ok {
		return
	}
	if !c.push(data) {
		// Reader cannot keep up; drop it rather than stall the room
		m.logger.Warn("dropping slow client", "conn", id)
		m.dropLocked(id)
	}
}

// JoinGroup adds the connection to the room's fan-out group
func (m *Manager) JoinGroup(room model.RoomCode, conn model.ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[conn]
	if !ok {
		return
	}
	if m.rooms[room] == nil {
		m.rooms[room] = make(map[model.ConnID]*Client)
	}
	m.rooms[room][conn] = c
}

// LeaveGroup removes the connection from the room's fan-out group
func (m *Manager) LeaveGroup(room model.RoomCode, conn model.ConnID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[room]
	if !ok {
		return
	}
	delete(members, conn)
	if len(members) == 0 {
		delete(m.rooms, room)
	}
}

// Sever forcibly closes a connection and forgets it
func (m *Manager) Sever(conn model.ConnID) {
	m.mu.Lock()
	c, ok := m.clients[conn]
	if ok {
		m.dropLocked(conn)
	}
	m.mu.Unlock()

	if ok && c.conn != nil {
		_ = c.conn.Close()
	}
}

// RoomSize returns the number of connections in the room's group
func (m *Manager) RoomSize(room model.RoomCode) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms[room])
}
