package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/ravenkeep/townsquare/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.app.LoadTestEdition()
}

// lastEvent returns the most recent event delivered to conn
func (s *IntegrationSuite) lastEvent(conn model.ConnID) model.Event {
	events := s.app.Notifier.SentTo(conn)
	s.Require().NotEmpty(events, "no events delivered to %s", conn)
	return events[len(events)-1]
}

// Test: full room lifecycle from hosting through presence churn
func (s *IntegrationSuite) TestRoomLifecycle() {
	s.app.MockRandom.QueueCode("ABCD")

	// Host opens a room and receives the code
	code, err := s.app.Sessions.Host(s.ctx, "conn-host")
	s.Require().NoError(err)
	s.Equal(model.RoomCode("ABCD"), code)
	s.Equal(model.EventHosted, s.lastEvent("conn-host").Type)

	// Alice joins; host is notified
	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-p1", code, "Alice"))
	hostEvent := s.lastEvent("conn-host")
	s.Equal(model.EventUserJoined, hostEvent.Type)
	s.Equal(model.Username("Alice"), hostEvent.Data)

	// A second connection cannot take the same name
	err = s.app.Sessions.Join(s.ctx, "conn-p2", code, "Alice")
	s.ErrorIs(err, model.ErrNameTaken)

	// Alice drops abruptly; the name frees up and the retry succeeds
	s.Require().NoError(s.app.Sessions.Disconnect(s.ctx, "conn-p1"))
	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-p2", code, "Alice"))

	names, err := s.app.Identity.ListActive(s.ctx, code)
	s.Require().NoError(err)
	s.ElementsMatch([]model.Username{"Alice"}, names)
}

// Test: targeted role delivery reaches exactly one player
func (s *IntegrationSuite) TestRoleAssignmentPrivacy() {
	s.app.MockRandom.QueueCode("ABCD")
	code, err := s.app.Sessions.Host(s.ctx, "conn-host")
	s.Require().NoError(err)

	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-alice", code, "Alice"))
	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-bob", code, "Bob"))

	role := model.RoleRef{Category: "Townsfolk", Role: "Washerwoman"}
	data, err := s.app.Content.RoleData("trouble-brewing", role)
	s.Require().NoError(err)

	s.Require().NoError(s.app.Roles.Assign(s.ctx, "conn-host", code, "Alice", role, data))

	aliceEvent := s.lastEvent("conn-alice")
	s.Equal(model.EventAssignedRole, aliceEvent.Type)
	payload := aliceEvent.Data.(model.AssignedRolePayload)
	s.Equal(role, payload.Role)
	s.Equal(data, payload.RoleData)

	for _, ev := range s.app.Notifier.SentTo("conn-bob") {
		s.NotEqual(model.EventAssignedRole, ev.Type)
	}
}

// Test: reveal reaches the whole room
func (s *IntegrationSuite) TestReveal() {
	s.app.MockRandom.QueueCode("ABCD")
	code, err := s.app.Sessions.Host(s.ctx, "conn-host")
	s.Require().NoError(err)
	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-alice", code, "Alice"))

	s.Require().NoError(s.app.Roles.Reveal(s.ctx, "conn-host", code))

	s.Equal(model.EventRolesRevealed, s.lastEvent("conn-alice").Type)
	s.Equal(model.EventRolesRevealed, s.lastEvent("conn-host").Type)
}

// Test: host reload recovery against the same code
func (s *IntegrationSuite) TestHostReconnect() {
	s.app.MockRandom.QueueCode("ABCD")
	code, err := s.app.Sessions.Host(s.ctx, "conn-host")
	s.Require().NoError(err)
	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-alice", code, "Alice"))

	// While the old host is still registered, a takeover is refused
	err = s.app.Sessions.Rejoin(s.ctx, "conn-host2", model.RejoinHost, code, "")
	s.ErrorIs(err, model.ErrHostAlreadyExists)

	// After the old host's disconnect, the reload reclaims the code
	s.Require().NoError(s.app.Sessions.Disconnect(s.ctx, "conn-host"))
	s.Require().NoError(s.app.Sessions.Rejoin(s.ctx, "conn-host2", model.RejoinHost, code, ""))
	s.Equal(model.EventReconnectedHost, s.lastEvent("conn-host2").Type)

	// Alice's membership survived the host reload
	names, err := s.app.Identity.ListActive(s.ctx, code)
	s.Require().NoError(err)
	s.ElementsMatch([]model.Username{"Alice"}, names)
}

// Test: kick frees the name and severs the target
func (s *IntegrationSuite) TestKick() {
	s.app.MockRandom.QueueCode("ABCD")
	code, err := s.app.Sessions.Host(s.ctx, "conn-host")
	s.Require().NoError(err)
	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-alice", code, "Alice"))

	s.Require().NoError(s.app.Sessions.Kick(s.ctx, "conn-host", code, "Alice"))

	s.Equal([]model.ConnID{"conn-alice"}, s.app.Notifier.Severed())
	s.Equal(model.EventKicked, s.lastEvent("conn-alice").Type)

	// Followed immediately by a fresh join under the same name
	s.Require().NoError(s.app.Sessions.Join(s.ctx, "conn-alice2", code, "Alice"))
}

// Test: two rooms never share a code
func (s *IntegrationSuite) TestDistinctRoomCodes() {
	s.app.MockRandom.QueueCode("ABCD", "ABCD", "WXYZ")

	first, err := s.app.Sessions.Host(s.ctx, "conn-h1")
	s.Require().NoError(err)
	second, err := s.app.Sessions.Host(s.ctx, "conn-h2")
	s.Require().NoError(err)

	s.NotEqual(first, second)

	for _, code := range []model.RoomCode{first, second} {
		exists, err := s.app.Directory.Exists(s.ctx, code)
		s.Require().NoError(err)
		s.True(exists)
	}
}
