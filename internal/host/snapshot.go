package host

import "github.com/ravenkeep/townsquare/internal/model"

// Snapshot is the host's working state for one room. It lives only on
// the host side and in the host's local snapshot store; the server
// never sees it and cannot reconstruct it after a full host loss.
type Snapshot struct {
	Room        model.RoomCode                   `json:"room"`
	Edition     string                           `json:"edition"`
	Pool        []model.RoleRef                  `json:"pool"`
	Assignments map[model.Username]model.RoleRef `json:"assignments"`
	Revealed    bool                             `json:"revealed"`
	NightIndex  int                              `json:"nightIndex"`
}

// NewSnapshot creates an empty snapshot for a room
func NewSnapshot(room model.RoomCode, edition string) *Snapshot {
	return &Snapshot{
		Room:        room,
		Edition:     edition,
		Assignments: make(map[model.Username]model.RoleRef),
	}
}

// SnapshotStore persists host snapshots across reloads
type SnapshotStore interface {
	Load(room model.RoomCode) (*Snapshot, error)
	Save(snapshot *Snapshot) error
	Delete(room model.RoomCode) error
}
