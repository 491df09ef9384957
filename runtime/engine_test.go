package runtime

import (
	"log/slog"
	"mcserve/domain/event"
	"mcserve/errors"
	"mcserve/mocks"
	"mcserve/projection"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	aliceLogin   = "2013-01-05 12:00:00 [INFO] Alice [/127.0.0.1:54321] logged in with entity id 42 at (10.5, 64.0, -3.2)"
	bobLogin     = "2013-01-05 12:00:00 [INFO] Bob [/127.0.0.1:54322] logged in with entity id 43 at (1.0, 64.0, 1.0)"
	aliceLeft    = "2013-01-05 12:10:00 [INFO] Alice lost connection: disconnect.quitting"
	bobLeft      = "2013-01-05 12:10:00 [INFO] Bob lost connection: disconnect.endOfStream"
	bobKicked    = "2013-01-05 12:10:00 [INFO] Alice: Kicking Bob"
	aliceRestart = "2013-01-05 12:05:00 [INFO] Alice issued server command: /restart"
	bobRestart   = "2013-01-05 12:05:00 [INFO] Bob tried command: /restart now"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestEngine(opts ...EngineOption) (*Engine, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)}
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewEngine(log, append([]EngineOption{WithClock(clock.Now)}, opts...)...), clock
}

func TestEngine_PresenceAndTimeline(t *testing.T) {
	req := require.New(t)
	engine, clock := newTestEngine()

	// Given Alice logs in and leaves ten minutes later
	engine.HandleLine(aliceLogin)
	req.Len(engine.ListOnline(), 1)
	req.Equal("Alice", engine.ListOnline()[0].Identity)

	clock.Advance(10 * time.Minute)
	engine.HandleLine(aliceLeft)

	// Then presence is empty and the leave is annotated with the session length
	req.Empty(engine.ListOnline())
	entries := engine.RecentEvents(0)
	req.Len(entries, 2)
	req.Equal(projection.LeftAfter, entries[0].Annotation.Kind)
	req.Equal(10*time.Minute, entries[0].Annotation.Elapsed)
	req.Equal(projection.Joined, entries[1].Annotation.Kind)
}

func TestEngine_UnmatchedLineChangesNothing(t *testing.T) {
	req := require.New(t)
	engine, _ := newTestEngine()

	// When a line matches no rule
	engine.HandleLine("2013-01-05 12:00:00 [INFO] Preparing spawn area: 42%")
	engine.HandleLine("")

	// Then nothing is recorded but the miss is counted
	req.Empty(engine.ListOnline())
	req.Empty(engine.RecentEvents(0))
	req.False(engine.RestartPending())
	stats := engine.Monitoring().Snapshot()
	req.Equal(uint64(2), stats.LinesTotal)
	req.Equal(uint64(2), stats.LinesUnmatched)
}

func TestEngine_RestartWaitsForEveryoneToLeave(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	control := mocks.NewMockServerControl(ctrl)
	engine, _ := newTestEngine()
	engine.Attach(control)

	gomock.InOrder(
		control.EXPECT().SendLine("say Alice has requested a server restart once everyone logs off"),
		control.EXPECT().SendLine("tell Bob restart is already requested"),
		control.EXPECT().Stop().Times(1),
	)

	// Given two players online
	engine.HandleLine(aliceLogin)
	engine.HandleLine(bobLogin)

	// When Alice asks for a restart
	engine.HandleLine(aliceRestart)
	req.True(engine.RestartPending())
	req.Equal(RestartRequested, engine.RestartState())

	// And Bob asks again
	engine.HandleLine(bobRestart)

	// Then the server is stopped only once the last player has left
	engine.HandleLine(aliceLeft)
	engine.HandleLine(bobLeft)

	// And a later leave does not stop it twice
	engine.HandleLine(bobKicked)
	req.True(engine.RestartPending())

	entries := engine.RecentEvents(0)
	kinds := make([]event.Kind, 0, len(entries))
	for _, e := range entries {
		kinds = append(kinds, e.Event.Kind())
	}
	req.Contains(kinds, event.RestartRequestedKind)
}

func TestEngine_RestartOnEmptyServerStopsImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	control := mocks.NewMockServerControl(ctrl)
	engine, _ := newTestEngine()
	engine.Attach(control)

	gomock.InOrder(
		control.EXPECT().SendLine("say Alice has requested a server restart once everyone logs off"),
		control.EXPECT().Stop().Times(1),
	)

	// Given a player who already left (e.g. issued through the console)
	engine.HandleLine(aliceLogin)
	engine.HandleLine(aliceLeft)

	// When a restart is requested on an empty server
	engine.HandleLine(aliceRestart)
}

func TestEngine_UnknownCommandIsIgnored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	control := mocks.NewMockServerControl(ctrl)
	engine, _ := newTestEngine()
	engine.Attach(control)

	// Then nothing is written to the server
	control.EXPECT().SendLine(gomock.Any()).Times(0)
	control.EXPECT().Stop().Times(0)

	// When an unknown command is issued
	engine.HandleLine("2013-01-05 12:05:00 [INFO] Alice issued server command: /gamemode 1")

	req.False(engine.RestartPending())
	req.Empty(engine.RecentEvents(0))
	req.Equal(uint64(1), engine.Monitoring().Snapshot().Commands)
}

func TestEngine_HandleExit(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	control := mocks.NewMockServerControl(ctrl)
	engine, _ := newTestEngine()
	engine.Attach(control)

	control.EXPECT().SendLine(gomock.Any()).Times(1)

	// Given a player online and a pending restart
	engine.HandleLine(aliceLogin)
	engine.HandleLine(bobRestart)
	req.True(engine.RestartPending())

	// When the server exits twice in a row
	engine.HandleExit(control)
	engine.HandleExit(control)

	// Then presence is cleared, the coordinator is idle and each exit is recorded
	req.Empty(engine.ListOnline())
	req.False(engine.RestartPending())
	entries := engine.RecentEvents(2)
	req.Equal(event.RestartExecutedKind, entries[0].Event.Kind())
	req.Equal(event.RestartExecutedKind, entries[1].Event.Kind())
	req.Equal(uint64(2), engine.Monitoring().Snapshot().Restarts)

	// And nothing is attached anymore
	req.ErrorIs(engine.Send("list"), errors.ErrNoServerProcess)
}

func TestEngine_Send(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	engine, _ := newTestEngine()

	// Given no server process
	req.ErrorIs(engine.Send("list"), errors.ErrNoServerProcess)

	// When one is attached
	control := mocks.NewMockServerControl(ctrl)
	control.EXPECT().SendLine("list").Times(1)
	engine.Attach(control)

	// Then lines are forwarded verbatim
	req.NoError(engine.Send("list"))
}

func TestEngine_DetachKeepsNewerProcess(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	engine, _ := newTestEngine()
	older := mocks.NewMockServerControl(ctrl)
	newer := mocks.NewMockServerControl(ctrl)

	newer.EXPECT().SendLine("list").Times(1)

	// Given a newer process attached after an older one
	engine.Attach(older)
	engine.Attach(newer)

	// When the older one is detached
	engine.Detach(older)

	// Then the newer one still receives lines
	req.NoError(engine.Send("list"))
}

func TestEngine_DirectivesWithoutProcessAreDropped(t *testing.T) {
	req := require.New(t)
	engine, _ := newTestEngine()

	// When a restart is requested while no server is attached
	engine.HandleLine(aliceRestart)

	// Then the request is still recorded
	req.True(engine.RestartPending())
	req.Len(engine.RecentEvents(0), 1)
}

func TestEngine_PublishesWithoutBlocking(t *testing.T) {
	req := require.New(t)
	published := make(chan event.DomainEvent, 1)
	engine, _ := newTestEngine(WithPublisher(published))

	// When more events are appended than the channel can hold
	engine.HandleLine(aliceLogin)
	engine.HandleLine(aliceLeft)

	// Then the first is published and the second dropped without blocking
	req.Len(published, 1)
	evt := <-published
	pc, ok := evt.(event.PresenceChanged)
	req.True(ok)
	req.True(pc.Joined)
	req.Len(engine.RecentEvents(0), 2)
}

func TestEngine_TimelineCapacity(t *testing.T) {
	req := require.New(t)
	engine, _ := newTestEngine(WithTimelineCapacity(3))

	for i := 0; i < 5; i++ {
		engine.HandleLine(aliceLogin)
	}

	req.Len(engine.RecentEvents(0), 3)
}
