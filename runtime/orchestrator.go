package runtime

import (
	"context"
	"log/slog"
	"mcserve/contract"
	"mcserve/domain/event"
	"mcserve/moderation"
	"mcserve/runtime/workers"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Settings are the orchestrator knobs taken from the configuration.
type Settings struct {
	Process          ProcessConfig
	TimelineCapacity int
	BufferSize       int
	SinkTimeout      time.Duration
	HealthInterval   time.Duration
	// CensoredWordsFile is watched and hot reloaded. Empty disables censoring.
	CensoredWordsFile string
	CharReplacement   rune
}

// Orchestrator wires the engine, the server process and the side consumers
// of the timeline under one supervisor.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	settings       Settings
	engine         *Engine
	supervisor     contract.ISupervisor
	registry       *Registry
	filter         *moderation.Filter
	events         chan event.DomainEvent
	permanentSinks []contract.EventSink
	observers      []contract.LifecycleObserver
	shutdown       chan struct{}
	shutdownOnce   sync.Once
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	settings Settings, opts ...EngineOption) *Orchestrator {
	events := make(chan event.DomainEvent, settings.BufferSize)
	engineOpts := append([]EngineOption{
		WithTimelineCapacity(settings.TimelineCapacity),
		WithPublisher(events),
	}, opts...)

	return &Orchestrator{
		log:        log,
		settings:   settings,
		engine:     NewEngine(log, engineOpts...),
		supervisor: supervisor,
		registry:   registry,
		filter:     moderation.NewFilter(settings.CharReplacement, log),
		events:     events,
		shutdown:   make(chan struct{}),
	}
}

func (o *Orchestrator) Engine() *Engine {
	return o.engine
}

func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

func (o *Orchestrator) Filter() *moderation.Filter {
	return o.filter
}

// Add registers permanent sinks. Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Observe registers lifecycle observers of the server process. Must be called before Start.
func (o *Orchestrator) Observe(observers ...contract.LifecycleObserver) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, observers...)
}

// Start prepares every worker then blocks until the supervisor stops.
func (o *Orchestrator) Start(ctx context.Context) error {
	// 1. Preparation phase (No Lock)
	censorWorker, err := o.prepareModeration()
	if err != nil {
		return err
	}

	// 2. Critical Section (Short Lock)
	o.mu.Lock()
	observers := append([]contract.LifecycleObserver{o.engine.Monitoring()}, o.observers...)
	serverWorker := NewServerProcess(o.log, o.engine, o.settings.Process, observers...)
	fanoutWorker := workers.NewEventFanout(o.log, o.permanentSinks, o.registry, o.events, o.settings.SinkTimeout)
	o.supervisor.Add(serverWorker, fanoutWorker)
	if o.settings.HealthInterval > 0 {
		o.supervisor.Add(workers.NewHealthMonitoringWorker(o.log, o.engine.Monitoring(), o.events, o.settings.HealthInterval))
	}
	if censorWorker != nil {
		o.supervisor.Add(censorWorker)
	}
	o.mu.Unlock()

	// 3. Execution phase (No Lock)
	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads the censored words and returns the watcher reloading them.
func (o *Orchestrator) prepareModeration() (contract.Worker, error) {
	path := o.settings.CensoredWordsFile
	if path == "" {
		return nil, nil
	}
	if err := o.reloadCensoredWords(); err != nil {
		return nil, err
	}
	return workers.NewCensorWatcher(o.log, path, o.reloadCensoredWords), nil
}

func (o *Orchestrator) reloadCensoredWords() error {
	path := o.settings.CensoredWordsFile
	loader := NewCensoredLoader(os.DirFS(filepath.Dir(path)))
	data, err := loader.Load(filepath.Base(path))
	if err != nil {
		return err
	}
	if err := o.filter.Reload(data.Words); err != nil {
		return err
	}
	o.log.Info("Censored words loaded", "path", path, "words", len(data.Words))
	return nil
}

// RequestShutdown asks the host process to shut down. Safe to call many times.
func (o *Orchestrator) RequestShutdown() {
	o.shutdownOnce.Do(func() {
		o.log.Info("Shutdown requested")
		close(o.shutdown)
	})
}

func (o *Orchestrator) ShutdownRequested() <-chan struct{} {
	return o.shutdown
}

// Stop cancels the supervised workers: the server gets its stop command and
// Start returns once it exited.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
