// Package runtime handles the server process, the log stream and the restart protocol.
// It orchestrates the system; domain rules live in domain, classifier and projection.
package runtime

import (
	"log/slog"
	"mcserve/classifier"
	"mcserve/contract"
	"mcserve/domain"
	"mcserve/domain/event"
	"mcserve/errors"
	"mcserve/observability"
	"mcserve/projection"
	"sync"
	"time"
)

// Engine is the single owner of presence, timeline and restart state.
// Every mutation goes through one mutex, so the effect of a classified line
// (presence update, timeline append, correlation, restart check) is atomic
// with respect to other lines, exits and reads.
type Engine struct {
	mu          sync.Mutex
	log         *slog.Logger
	now         func() time.Time
	classifier  *classifier.Classifier
	presence    *domain.Presence
	timeline    *projection.Timeline
	coordinator *Coordinator
	commands    CommandTable
	control     contract.ServerControl
	published   chan<- event.DomainEvent
	monitoring  *observability.Monitoring
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func WithClassifier(c *classifier.Classifier) EngineOption {
	return func(e *Engine) {
		e.classifier = c
	}
}

func WithTimelineCapacity(capacity int) EngineOption {
	return func(e *Engine) {
		e.timeline = projection.NewTimeline(capacity)
	}
}

func WithCommands(commands CommandTable) EngineOption {
	return func(e *Engine) {
		e.commands = commands
	}
}

// WithPublisher forwards every appended event to ch without ever blocking.
func WithPublisher(ch chan<- event.DomainEvent) EngineOption {
	return func(e *Engine) {
		e.published = ch
	}
}

func WithMonitoring(m *observability.Monitoring) EngineOption {
	return func(e *Engine) {
		e.monitoring = m
	}
}

func NewEngine(log *slog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		log:         log,
		now:         time.Now,
		classifier:  classifier.Default(),
		presence:    domain.NewPresence(),
		timeline:    projection.NewTimeline(projection.DefaultCapacity),
		coordinator: NewCoordinator(),
		commands:    DefaultCommands(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.monitoring == nil {
		e.monitoring = observability.NewMonitoring(log)
	}
	return e
}

// directives are collected while the lock is held and written to the
// server once it is released.
type directives struct {
	control contract.ServerControl
	lines   []string
	stop    bool
}

// Tx is what a command handler sees of the Engine while the lock is held.
type Tx struct {
	engine *Engine
	at     time.Time
	out    directives
}

func (tx *Tx) At() time.Time {
	return tx.at
}

func (tx *Tx) Coordinator() *Coordinator {
	return tx.engine.coordinator
}

// Append adds an event to the timeline.
func (tx *Tx) Append(e event.DomainEvent) {
	tx.engine.append(e)
}

// Send queues a line for the server's standard input.
func (tx *Tx) Send(line string) {
	tx.out.lines = append(tx.out.lines, line)
}

func (e *Engine) begin() *Tx {
	return &Tx{engine: e, at: e.now(), out: directives{control: e.control}}
}

// HandleLine classifies one complete line of server output and applies its effects.
func (e *Engine) HandleLine(line string) {
	e.log.Debug("[out]", "line", line)
	e.flush(e.apply(line))
}

func (e *Engine) apply(line string) directives {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.monitoring.IncrLines()
	tx := e.begin()
	res := e.classifier.Classify(line, tx.at)
	if !res.Matched() {
		e.monitoring.IncrUnmatched()
		e.log.Info("Unrecognized server line", "line", line)
		return tx.out
	}

	switch {
	case res.Command != nil:
		e.dispatch(tx, *res.Command)
	case res.Event != nil:
		e.applyEvent(tx, res.Event)
	}
	return tx.out
}

func (e *Engine) applyEvent(tx *Tx, evt event.DomainEvent) {
	switch ev := evt.(type) {
	case event.PresenceChanged:
		if ev.Joined {
			e.presence.MarkJoined(ev.Who, ev.At)
			e.log.Info("User logged in", "who", ev.Who)
		} else {
			e.presence.MarkLeft(ev.Who)
			e.log.Info("User logged out", "who", ev.Who, "cause", ev.Cause)
		}
		e.append(ev)
		e.checkRestart(tx)
	default:
		e.append(ev)
	}
}

func (e *Engine) dispatch(tx *Tx, cmd domain.AdminCommand) {
	e.monitoring.IncrCommands()
	e.log.Info("Try command", "who", cmd.Issuer, "command", cmd.Raw, "permitted", cmd.Permitted)
	handler, ok := e.commands[cmd.Name()]
	if !ok {
		e.log.Info("No such command", "command", cmd.Raw)
		return
	}
	handler(tx, cmd)
	e.checkRestart(tx)
}

// checkRestart sends the stop directive once a requested restart finds the server empty.
func (e *Engine) checkRestart(tx *Tx) {
	if e.coordinator.ShouldStop(e.presence.IsEmpty()) {
		e.log.Info("Everybody left, stopping the server for the requested restart",
			"requested_by", e.coordinator.RequestedBy())
		tx.out.stop = true
	}
}

func (e *Engine) append(evt event.DomainEvent) {
	e.timeline.Append(evt)
	if e.published == nil {
		return
	}
	select {
	case e.published <- evt:
	default:
		e.log.Debug("Event channel full, dropping event", "kind", evt.Kind())
	}
}

func (e *Engine) flush(out directives) {
	if len(out.lines) == 0 && !out.stop {
		return
	}
	if out.control == nil {
		e.log.Warn("No server process attached, dropping directives", "lines", len(out.lines), "stop", out.stop)
		return
	}
	for _, line := range out.lines {
		out.control.SendLine(line)
	}
	if out.stop {
		out.control.Stop()
	}
}

// Attach makes control the target of every directive until it exits.
func (e *Engine) Attach(control contract.ServerControl) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.control = control
}

// Detach forgets control without touching presence or the timeline.
// A newer process already attached is left alone.
func (e *Engine) Detach(control contract.ServerControl) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.control == control {
		e.control = nil
	}
}

// HandleExit records that the server process went away, whatever the reason:
// a restart is appended, presence is cleared and the coordinator goes back to Idle.
func (e *Engine) HandleExit(control contract.ServerControl) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.monitoring.IncrRestarts()
	e.append(event.NewRestartExecuted(e.now()))
	e.presence.ClearAll()
	e.coordinator.Reset()
	if e.control == control {
		e.control = nil
	}
}

// Send forwards an operator line to the server verbatim.
func (e *Engine) Send(line string) error {
	e.mu.Lock()
	control := e.control
	e.mu.Unlock()
	if control == nil {
		return errors.ErrNoServerProcess
	}
	control.SendLine(line)
	return nil
}

func (e *Engine) ListOnline() []domain.OnlineUser {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.presence.List()
}

// RecentEvents returns up to n entries, most recent first. n <= 0 means all retained.
func (e *Engine) RecentEvents(n int) []projection.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Recent(n)
}

func (e *Engine) RestartState() RestartState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coordinator.State()
}

func (e *Engine) RestartPending() bool {
	return e.RestartState() == RestartRequested
}

func (e *Engine) Monitoring() *observability.Monitoring {
	return e.monitoring
}
