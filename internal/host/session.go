package host

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ravenkeep/townsquare/internal/dependencies/random"
	"github.com/ravenkeep/townsquare/internal/model"
)

// Emitter sends role protocol commands to the server on the host's
// behalf
type Emitter interface {
	AssignRole(room model.RoomCode, name model.Username, role model.RoleRef, roleData model.RoleData) error
	RevealRoles(room model.RoomCode) error
}

// Session is the host's authority over one room: the selected role
// pool, who holds which role, and the reveal state. Every mutation is
// persisted to the snapshot store before it is emitted, so a reload
// picks up exactly where the host left off.
type Session struct {
	snapshot *Snapshot
	edition  *model.Edition
	store    SnapshotStore
	emitter  Emitter
	random   random.Random
	logger   *slog.Logger
}

// NewSession opens a host session for the room, restoring a persisted
// snapshot when one exists
func NewSession(
	room model.RoomCode,
	editionName string,
	edition *model.Edition,
	store SnapshotStore,
	emitter Emitter,
	random random.Random,
	logger *slog.Logger,
) (*Session, error) {
	snapshot, err := store.Load(room)
	if err != nil {
		if !errors.Is(err, model.ErrSnapshotNotFound) {
			return nil, fmt.Errorf("loading snapshot: %w", err)
		}
		snapshot = NewSnapshot(room, editionName)
	}

	return &Session{
		snapshot: snapshot,
		edition:  edition,
		store:    store,
		emitter:  emitter,
		random:   random,
		logger:   logger.With("component", "host", "room", room),
	}, nil
}

// SelectPool fixes the set of roles in play for this game
func (s *Session) SelectPool(pool []model.RoleRef) error {
	s.snapshot.Pool = append([]model.RoleRef(nil), pool...)
	return s.store.Save(s.snapshot)
}

// Pool returns the selected role pool
func (s *Session) Pool() []model.RoleRef {
	return append([]model.RoleRef(nil), s.snapshot.Pool...)
}

// Assignment returns the role held by name, if any
func (s *Session) Assignment(name model.Username) (model.RoleRef, bool) {
	role, ok := s.snapshot.Assignments[name]
	return role, ok
}

// Revealed reports whether roles are visible to players
func (s *Session) Revealed() bool {
	return s.snapshot.Revealed
}

// HandleUserJoined applies the auto-assignment policy to an arriving
// player: if a pool is fixed and the name holds no role yet, pick
// uniformly at random among the pool roles nobody holds, persist the
// assignment, and deliver it. If the pool is empty or exhausted the
// player simply waits.
func (s *Session) HandleUserJoined(name model.Username) error {
	if len(s.snapshot.Pool) == 0 {
		return nil
	}
	if _, assigned := s.snapshot.Assignments[name]; assigned {
		// Rejoining player: re-deliver rather than re-roll
		return s.resend(name)
	}

	available := s.availableRoles()
	if len(available) == 0 {
		return nil
	}

	role := available[s.random.Intn(len(available))]
	return s.Assign(name, role)
}

// Assign gives name the role, persists it, and delivers it to the
// player's connection
func (s *Session) Assign(name model.Username, role model.RoleRef) error {
	s.snapshot.Assignments[name] = role
	if err := s.store.Save(s.snapshot); err != nil {
		return err
	}

	s.logger.Info("role assigned", "username", name, "role", role.Role)
	return s.emitter.AssignRole(s.snapshot.Room, name, role, s.roleData(role))
}

// Unassign removes name's role and persists the change. No message is
// sent; the next reveal or reassignment supersedes the old payload.
func (s *Session) Unassign(name model.Username) error {
	delete(s.snapshot.Assignments, name)
	return s.store.Save(s.snapshot)
}

// Reveal flips the reveal flag, broadcasts it, and re-sends every
// individual assignment so players who joined before the reveal still
// receive their role payload
func (s *Session) Reveal() error {
	s.snapshot.Revealed = true
	if err := s.store.Save(s.snapshot); err != nil {
		return err
	}

	if err := s.emitter.RevealRoles(s.snapshot.Room); err != nil {
		return err
	}
	return s.resendAll()
}

// RestoreAfterReconnect re-establishes players' role knowledge after
// the host reloads: assignments are re-delivered, and the reveal is
// re-broadcast when it had already happened
func (s *Session) RestoreAfterReconnect() error {
	if s.snapshot.Revealed {
		if err := s.emitter.RevealRoles(s.snapshot.Room); err != nil {
			return err
		}
	}
	return s.resendAll()
}

// AdvanceNight returns the role now due to act and moves the position
// forward, starting from the first held role in the edition's night
// order. Once every held role has acted it returns ErrNightComplete
// and resets, so the following call begins a fresh night.
func (s *Session) AdvanceNight() (string, error) {
	if s.edition == nil {
		return "", model.ErrContentNotLoaded
	}

	acting := s.actingOrder()
	if len(acting) == 0 {
		return "", model.ErrEmptyRolePool
	}

	if s.snapshot.NightIndex >= len(acting) {
		s.snapshot.NightIndex = 0
		if err := s.store.Save(s.snapshot); err != nil {
			return "", err
		}
		return "", model.ErrNightComplete
	}

	role := acting[s.snapshot.NightIndex]
	s.snapshot.NightIndex++
	if err := s.store.Save(s.snapshot); err != nil {
		return "", err
	}
	return role, nil
}

// CurrentNightRole peeks at the role due to act next without moving
// the position. Returns ErrNightComplete when the night has run out.
func (s *Session) CurrentNightRole() (string, error) {
	if s.edition == nil {
		return "", model.ErrContentNotLoaded
	}

	acting := s.actingOrder()
	if len(acting) == 0 {
		return "", model.ErrEmptyRolePool
	}
	if s.snapshot.NightIndex >= len(acting) {
		return "", model.ErrNightComplete
	}
	return acting[s.snapshot.NightIndex], nil
}

// End discards the persisted snapshot when the game is over
func (s *Session) End() error {
	return s.store.Delete(s.snapshot.Room)
}

// availableRoles returns pool roles not currently held by anyone
func (s *Session) availableRoles() []model.RoleRef {
	held := make(map[model.RoleRef]bool, len(s.snapshot.Assignments))
	for _, role := range s.snapshot.Assignments {
		held[role] = true
	}

	var available []model.RoleRef
	for _, role := range s.snapshot.Pool {
		if !held[role] {
			available = append(available, role)
		}
	}
	return available
}

// actingOrder is the edition night order filtered to roles somebody
// holds
func (s *Session) actingOrder() []string {
	held := make(map[string]bool, len(s.snapshot.Assignments))
	for _, role := range s.snapshot.Assignments {
		held[role.Role] = true
	}

	var acting []string
	for _, role := range s.edition.NightOrder {
		if held[role] {
			acting = append(acting, role)
		}
	}
	return acting
}

func (s *Session) resend(name model.Username) error {
	role, ok := s.snapshot.Assignments[name]
	if !ok {
		return nil
	}
	return s.emitter.AssignRole(s.snapshot.Room, name, role, s.roleData(role))
}

func (s *Session) resendAll() error {
	names := make([]model.Username, 0, len(s.snapshot.Assignments))
	for name := range s.snapshot.Assignments {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	for _, name := range names {
		if err := s.resend(name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) roleData(role model.RoleRef) model.RoleData {
	if s.edition == nil {
		return nil
	}
	data, ok := s.edition.Role(role)
	if !ok {
		return nil
	}
	return data
}
