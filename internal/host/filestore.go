package host

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ravenkeep/townsquare/internal/model"
)

// FileStore persists snapshots as one JSON file per room under a
// directory, the CLI analogue of the browser host's local storage
type FileStore struct {
	dir string
}

// NewFileStore creates a snapshot store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

var _ SnapshotStore = (*FileStore)(nil)

func (f *FileStore) path(room model.RoomCode) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s.json", room))
}

func (f *FileStore) Load(room model.RoomCode) (*Snapshot, error) {
	data, err := os.ReadFile(f.path(room))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Assignments == nil {
		snapshot.Assignments = make(map[model.Username]model.RoleRef)
	}
	return &snapshot, nil
}

func (f *FileStore) Save(snapshot *Snapshot) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(snapshot.Room), data, 0600)
}

func (f *FileStore) Delete(room model.RoomCode) error {
	err := os.Remove(f.path(room))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
