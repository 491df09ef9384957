package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats aggregates the supervisor counters for the status API.
type Stats struct {
	LinesTotal     uint64 `json:"lines_total"`
	LinesUnmatched uint64 `json:"lines_unmatched"`
	Commands       uint64 `json:"commands"`
	Restarts       uint64 `json:"restarts"`
	Spawns         uint64 `json:"spawns"`
	LastExit       string `json:"last_exit,omitempty"`
	AllocMemMb     uint64 `json:"alloc_mem_mb"`
	NumGC          uint32 `json:"num_gc"`
}

// ProcessStats describes the running server process.
type ProcessStats struct {
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
	RSSBytes   uint64    `json:"rss_bytes"`
	CPUPercent float64   `json:"cpu_percent"`
}

// Monitoring counts what went through the supervisor and keeps track of the
// current server process. Safe for concurrent use.
type Monitoring struct {
	log       *slog.Logger
	lines     atomic.Uint64
	unmatched atomic.Uint64
	commands  atomic.Uint64
	restarts  atomic.Uint64
	spawns    atomic.Uint64

	mu        sync.RWMutex
	pid       int
	startedAt time.Time
	lastExit  string
}

func NewMonitoring(log *slog.Logger) *Monitoring {
	return &Monitoring{log: log}
}

func (m *Monitoring) IncrLines()     { m.lines.Add(1) }
func (m *Monitoring) IncrUnmatched() { m.unmatched.Add(1) }
func (m *Monitoring) IncrCommands()  { m.commands.Add(1) }
func (m *Monitoring) IncrRestarts()  { m.restarts.Add(1) }

func (m *Monitoring) ProcessStarted(pid int) {
	m.spawns.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pid = pid
	m.startedAt = time.Now()
}

func (m *Monitoring) ProcessExited(pid int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pid == pid {
		m.pid = 0
	}
	if err != nil {
		m.lastExit = err.Error()
	} else {
		m.lastExit = "exit status 0"
	}
}

func (m *Monitoring) Snapshot() Stats {
	m.mu.RLock()
	lastExit := m.lastExit
	m.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		LinesTotal:     m.lines.Load(),
		LinesUnmatched: m.unmatched.Load(),
		Commands:       m.commands.Load(),
		Restarts:       m.restarts.Load(),
		Spawns:         m.spawns.Load(),
		LastExit:       lastExit,
		AllocMemMb:     mem.Alloc / 1024 / 1024,
		NumGC:          mem.NumGC,
	}
}

// Process samples the running server process. ok is false when none runs.
func (m *Monitoring) Process() (stats ProcessStats, ok bool) {
	m.mu.RLock()
	pid, startedAt := m.pid, m.startedAt
	m.mu.RUnlock()
	if pid == 0 {
		return ProcessStats{}, false
	}

	rss, cpu, err := sampleProcess(pid)
	if err != nil {
		m.log.Debug("Error while sampling server process", "pid", pid, "err", err)
	}
	return ProcessStats{PID: pid, StartedAt: startedAt, RSSBytes: rss, CPUPercent: cpu}, true
}

// sampleProcess retrieves resident memory and CPU usage for pid.
func sampleProcess(pid int) (uint64, float64, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, 0, err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return memInfo.RSS, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
