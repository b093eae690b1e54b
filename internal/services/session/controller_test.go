package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ravenkeep/townsquare/internal/dependencies/mocks"
	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/registry/memory"
	"github.com/ravenkeep/townsquare/internal/services/directory"
	"github.com/ravenkeep/townsquare/internal/services/identity"
	"github.com/ravenkeep/townsquare/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	random     *mocks.MockRandom
	notifier   *testutil.RecordingNotifier
	identity   *identity.Service
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	store := memory.New()
	logger := testutil.NopLogger()
	s.random = mocks.NewMockRandom()
	s.notifier = testutil.NewRecordingNotifier()
	s.identity = identity.NewService(store, logger)
	s.controller = NewController(
		directory.NewService(store, s.random, logger),
		s.identity,
		s.notifier,
		logger,
	)
	s.ctx = context.Background()
}

// hostRoom creates a room with a fixed code and the given host connection
func (s *ControllerSuite) hostRoom(code string, conn model.ConnID) model.RoomCode {
	s.random.QueueCode(code)
	created, err := s.controller.Host(s.ctx, conn)
	s.Require().NoError(err)
	s.Require().Equal(model.RoomCode(code), created)
	return created
}

// Host tests

func (s *ControllerSuite) TestHostRepliesWithCodeToRequesterOnly() {
	s.hostRoom("ABCD", "host-1")

	events := s.notifier.SentTo("host-1")
	s.Require().Len(events, 1)
	s.Equal(model.EventHosted, events[0].Type)
	s.Equal(model.RoomCode("ABCD"), events[0].Data)
	s.Empty(s.notifier.Broadcasts())
	s.True(s.notifier.InGroup("ABCD", "host-1"))
}

func (s *ControllerSuite) TestHostWhileHostingRefused() {
	room := s.hostRoom("ABCD", "host-1")

	s.random.QueueCode("WXYZ")
	_, err := s.controller.Host(s.ctx, "host-1")
	s.ErrorIs(err, model.ErrAlreadyBound)

	// The first room must stay cleanly reclaimable: disconnect frees
	// it, and a fresh rejoin-as-host succeeds
	s.Require().NoError(s.controller.Disconnect(s.ctx, "host-1"))

	err = s.controller.Join(s.ctx, "conn-alice", room, "alice")
	s.ErrorIs(err, model.ErrRoomNotFound)

	err = s.controller.Rejoin(s.ctx, "host-2", model.RejoinHost, room, "")
	s.NoError(err)
}

func (s *ControllerSuite) TestHostWhileJoinedRefused() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))

	s.random.QueueCode("WXYZ")
	_, err := s.controller.Host(s.ctx, "conn-alice")
	s.ErrorIs(err, model.ErrAlreadyBound)
}

// Join tests

func (s *ControllerSuite) TestJoinHappyPath() {
	room := s.hostRoom("ABCD", "host-1")

	err := s.controller.Join(s.ctx, "conn-alice", room, "alice")
	s.Require().NoError(err)

	events := s.notifier.SentTo("conn-alice")
	s.Require().Len(events, 1)
	s.Equal(model.EventJoined, events[0].Type)

	payload := events[0].Data.(model.JoinedPayload)
	s.Equal(room, payload.Room)
	s.Equal(model.Username("alice"), payload.Username)
	s.ElementsMatch([]model.Username{"alice"}, payload.Usernames)

	s.True(s.notifier.InGroup(room, "conn-alice"))
}

func (s *ControllerSuite) TestJoinAnnouncesToOthersOnly() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))
	s.Require().NoError(s.controller.Join(s.ctx, "conn-bob", room, "bob"))

	hostEvents := s.notifier.SentTo("host-1")
	s.Require().Len(hostEvents, 3) // hosted, user-joined x2
	s.Equal(model.EventUserJoined, hostEvents[1].Type)
	s.Equal(model.Username("alice"), hostEvents[1].Data)
	s.Equal(model.EventUserJoined, hostEvents[2].Type)
	s.Equal(model.Username("bob"), hostEvents[2].Data)

	// Alice sees bob's arrival but not her own
	aliceEvents := s.notifier.SentTo("conn-alice")
	s.Require().Len(aliceEvents, 2)
	s.Equal(model.EventJoined, aliceEvents[0].Type)
	s.Equal(model.EventUserJoined, aliceEvents[1].Type)
}

func (s *ControllerSuite) TestJoinPresenceListIncludesEarlierMembers() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))
	s.Require().NoError(s.controller.Join(s.ctx, "conn-bob", room, "bob"))

	bobEvents := s.notifier.SentTo("conn-bob")
	payload := bobEvents[0].Data.(model.JoinedPayload)
	s.ElementsMatch([]model.Username{"alice", "bob"}, payload.Usernames)
}

func (s *ControllerSuite) TestJoinRoomNotFound() {
	err := s.controller.Join(s.ctx, "conn-alice", "ZZZZ", "alice")
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.False(s.notifier.InGroup("ZZZZ", "conn-alice"))
}

func (s *ControllerSuite) TestJoinHostlessRoomNotFound() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Disconnect(s.ctx, "host-1"))

	err := s.controller.Join(s.ctx, "conn-alice", room, "alice")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *ControllerSuite) TestJoinNameTaken() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))

	err := s.controller.Join(s.ctx, "conn-other", room, "alice")
	s.ErrorIs(err, model.ErrNameTaken)
	s.False(s.notifier.InGroup(room, "conn-other"))
}

func (s *ControllerSuite) TestJoinFailureLeavesStateUnchanged() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))

	_ = s.controller.Join(s.ctx, "conn-other", room, "alice")

	// No events reached the failed joiner, no announcement went out
	s.Empty(s.notifier.SentTo("conn-other"))
	s.Len(s.notifier.Broadcasts(), 1)
}

// Rejoin tests

func (s *ControllerSuite) TestRejoinHostAfterDisconnect() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Disconnect(s.ctx, "host-1"))

	err := s.controller.Rejoin(s.ctx, "host-2", model.RejoinHost, room, "")
	s.Require().NoError(err)

	events := s.notifier.SentTo("host-2")
	s.Require().Len(events, 1)
	s.Equal(model.EventReconnectedHost, events[0].Type)
	s.Equal(room, events[0].Data)

	// Same code, never regenerated
	s.True(s.notifier.InGroup(room, "host-2"))
}

func (s *ControllerSuite) TestRejoinHostAgainstLiveHostFails() {
	room := s.hostRoom("ABCD", "host-1")

	err := s.controller.Rejoin(s.ctx, "host-2", model.RejoinHost, room, "")
	s.ErrorIs(err, model.ErrHostAlreadyExists)
	s.Empty(s.notifier.SentTo("host-2"))
}

func (s *ControllerSuite) TestRejoinHostSameConnectionSucceeds() {
	room := s.hostRoom("ABCD", "host-1")

	err := s.controller.Rejoin(s.ctx, "host-1", model.RejoinHost, room, "")
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestRejoinPlayer() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))
	s.Require().NoError(s.controller.Disconnect(s.ctx, "conn-alice"))

	err := s.controller.Rejoin(s.ctx, "conn-alice2", model.RejoinPlayer, room, "alice")
	s.Require().NoError(err)

	events := s.notifier.SentTo("conn-alice2")
	s.Require().Len(events, 1)
	s.Equal(model.EventReconnectedJoin, events[0].Type)

	payload := events[0].Data.(model.JoinedPayload)
	s.ElementsMatch([]model.Username{"alice"}, payload.Usernames)
}

func (s *ControllerSuite) TestRejoinPlayerNameStillHeldFails() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))

	err := s.controller.Rejoin(s.ctx, "conn-alice2", model.RejoinPlayer, room, "alice")
	s.ErrorIs(err, model.ErrNameTaken)
}

// Leave tests

func (s *ControllerSuite) TestLeaveReleasesNameAndAcks() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))

	err := s.controller.Leave(s.ctx, "conn-alice", room)
	s.Require().NoError(err)

	aliceEvents := s.notifier.SentTo("conn-alice")
	last := aliceEvents[len(aliceEvents)-1]
	s.Equal(model.EventLeftRoom, last.Type)

	// Host saw the departure, name is free again
	hostEvents := s.notifier.SentTo("host-1")
	s.Equal(model.EventUserLeft, hostEvents[len(hostEvents)-1].Type)
	s.Equal(model.Username("alice"), hostEvents[len(hostEvents)-1].Data)

	s.False(s.notifier.InGroup(room, "conn-alice"))
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice2", room, "alice"))
}

func (s *ControllerSuite) TestLeaveByHostReleasesRoom() {
	room := s.hostRoom("ABCD", "host-1")

	err := s.controller.Leave(s.ctx, "host-1", room)
	s.Require().NoError(err)

	joinErr := s.controller.Join(s.ctx, "conn-alice", room, "alice")
	s.ErrorIs(joinErr, model.ErrRoomNotFound)
}

// Disconnect tests

func (s *ControllerSuite) TestDisconnectReleasesNameWithoutBroadcast() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))

	before := len(s.notifier.Broadcasts())
	err := s.controller.Disconnect(s.ctx, "conn-alice")
	s.Require().NoError(err)
	s.Len(s.notifier.Broadcasts(), before)

	// Name becomes available immediately
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice2", room, "alice"))
}

func (s *ControllerSuite) TestDisconnectUnboundConnectionNoOp() {
	err := s.controller.Disconnect(s.ctx, "conn-stranger")
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestStaleHostDisconnectDoesNotEvictNewHost() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Disconnect(s.ctx, "host-1"))
	s.Require().NoError(s.controller.Rejoin(s.ctx, "host-2", model.RejoinHost, room, ""))

	// host-1's duplicate disconnect signal arrives late
	s.Require().NoError(s.controller.Disconnect(s.ctx, "host-1"))

	err := s.controller.Join(s.ctx, "conn-alice", room, "alice")
	s.Require().NoError(err)
}

// Kick tests

func (s *ControllerSuite) TestKickSeversAndFreesName() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))

	err := s.controller.Kick(s.ctx, "host-1", room, "alice")
	s.Require().NoError(err)

	aliceEvents := s.notifier.SentTo("conn-alice")
	s.Equal(model.EventKicked, aliceEvents[len(aliceEvents)-1].Type)
	s.Equal([]model.ConnID{"conn-alice"}, s.notifier.Severed())
	s.False(s.notifier.InGroup(room, "conn-alice"))

	hostEvents := s.notifier.SentTo("host-1")
	s.Equal(model.EventUserLeft, hostEvents[len(hostEvents)-1].Type)

	// Kick then immediate rejoin with the same name succeeds
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice2", room, "alice"))
}

func (s *ControllerSuite) TestKickFromNonHostIgnored() {
	room := s.hostRoom("ABCD", "host-1")
	s.Require().NoError(s.controller.Join(s.ctx, "conn-alice", room, "alice"))
	s.Require().NoError(s.controller.Join(s.ctx, "conn-bob", room, "bob"))

	err := s.controller.Kick(s.ctx, "conn-bob", room, "alice")
	s.Require().NoError(err)

	s.Empty(s.notifier.Severed())
	names, err := s.identity.ListActive(s.ctx, room)
	s.Require().NoError(err)
	s.ElementsMatch([]model.Username{"alice", "bob"}, names)
}

func (s *ControllerSuite) TestKickUnknownNameIgnored() {
	room := s.hostRoom("ABCD", "host-1")

	err := s.controller.Kick(s.ctx, "host-1", room, "nobody")
	s.Require().NoError(err)
	s.Empty(s.notifier.Severed())
}
