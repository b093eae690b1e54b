package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/ravenkeep/townsquare/internal/dependencies/mocks"
	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/registry/memory"
	"github.com/ravenkeep/townsquare/internal/services/roles"
	"github.com/ravenkeep/townsquare/internal/services/session"
	"github.com/ravenkeep/townsquare/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// Notifier records everything the session and role layers emit
	Notifier *testutil.RecordingNotifier
}

// NewTestApp creates an App configured for testing with mocked
// dependencies and a recording notifier in place of the websocket
// manager
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, logger)

	notifier := testutil.NewRecordingNotifier()
	app.Sessions = session.NewController(app.Directory, app.Identity, notifier, logger)
	app.Roles = roles.NewBroadcaster(app.Directory, app.Identity, notifier, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Notifier:   notifier,
	}
}

// LoadTestEdition loads a small edition for testing
func (t *TestApp) LoadTestEdition() {
	t.Content.LoadEdition("trouble-brewing", &model.Edition{
		Roles: map[string]map[string]model.RoleData{
			"Townsfolk": {
				"Washerwoman": {"washerwoman", "You start knowing that one of two players is a particular Townsfolk."},
				"Chef":        {"chef", "You start knowing how many pairs of evil players there are."},
			},
			"Minion": {
				"Poisoner": {"poisoner", "Each night, choose a player: they are poisoned tonight and tomorrow day."},
			},
			"Demon": {
				"Imp": {"imp", "Each night, choose a player: they die."},
			},
		},
		NightOrder: []string{"Poisoner", "Washerwoman", "Chef", "Imp"},
	})
}
