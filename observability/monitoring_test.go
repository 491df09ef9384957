package observability

import (
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoring_Counters(t *testing.T) {
	req := require.New(t)
	m := NewMonitoring(logs.GetLoggerFromLevel(slog.LevelDebug))

	m.IncrLines()
	m.IncrLines()
	m.IncrUnmatched()
	m.IncrCommands()
	m.IncrRestarts()

	stats := m.Snapshot()
	req.Equal(uint64(2), stats.LinesTotal)
	req.Equal(uint64(1), stats.LinesUnmatched)
	req.Equal(uint64(1), stats.Commands)
	req.Equal(uint64(1), stats.Restarts)
}

func TestMonitoring_ProcessLifecycle(t *testing.T) {
	req := require.New(t)
	m := NewMonitoring(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given no process runs
	_, ok := m.Process()
	req.False(ok)

	// When the current process is reported as the server
	pid := os.Getpid()
	m.ProcessStarted(pid)

	// Then it can be sampled
	stats, ok := m.Process()
	req.True(ok)
	req.Equal(pid, stats.PID)
	req.NotZero(stats.RSSBytes)
	req.Equal(uint64(1), m.Snapshot().Spawns)

	// When an older process exits, the current one is kept
	m.ProcessExited(pid+1, fmt.Errorf("exit status 1"))
	_, ok = m.Process()
	req.True(ok)

	// When the current one exits
	m.ProcessExited(pid, nil)
	_, ok = m.Process()
	req.False(ok)
	req.Equal("exit status 0", m.Snapshot().LastExit)
}
