package runtime_test

import (
	"context"
	"log/slog"
	"mcserve/domain/event"
	"mcserve/runtime"
	"mcserve/runtime/workers"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type RecordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *RecordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestOrchestrator_RunsServerAndFansOut(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dir := t.TempDir()
	wordsFile := filepath.Join(dir, "censored.txt")
	req.NoError(os.WriteFile(wordsFile, []byte("creeper\n"), 0o644))

	script := `echo '2013-01-05 12:00:00 [INFO] Alice [/127.0.0.1:54321] logged in with entity id 42 at (1.0, 64.0, 1.0)'` +
		`; echo '2013-01-05 12:00:01 [INFO] <Alice> creeper behind you'` +
		`; while read -r line; do [ "$line" = stop ] && exit 0; done`

	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 50*time.Millisecond), runtime.NewRegistry(),
		runtime.Settings{
			Process: runtime.ProcessConfig{
				Command:     "/bin/sh",
				Args:        []string{"-c", script},
				StopCommand: "stop",
				StopTimeout: 5 * time.Second,
			},
			TimelineCapacity:  10,
			BufferSize:        16,
			SinkTimeout:       time.Second,
			CensoredWordsFile: wordsFile,
			CharReplacement:   '*',
		})
	sink := &RecordingSink{}
	orchestrator.Add(sink)

	done := make(chan error, 1)
	go func() {
		done <- orchestrator.Start(context.Background())
	}()

	// Then the lines reach the engine and the sinks
	req.Eventually(func() bool {
		return sink.Len() == 2
	}, 5*time.Second, 10*time.Millisecond)
	req.Len(orchestrator.Engine().ListOnline(), 1)
	req.True(orchestrator.Filter().Enabled())
	req.Equal("******* behind you", orchestrator.Filter().Censor("creeper behind you"))

	// When shutdown is requested
	orchestrator.RequestShutdown()
	orchestrator.RequestShutdown()
	select {
	case <-orchestrator.ShutdownRequested():
	default:
		req.Fail("shutdown should be requested")
	}
	orchestrator.Stop()

	// Then the server is stopped and Start returns
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		req.Fail("orchestrator should have stopped")
	}
}

func TestOrchestrator_MissingCensoredWords(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0), runtime.NewRegistry(),
		runtime.Settings{
			Process:           runtime.ProcessConfig{Command: "/bin/true"},
			BufferSize:        1,
			CensoredWordsFile: filepath.Join(t.TempDir(), "missing.txt"),
		})

	req.Error(orchestrator.Start(context.Background()))
}
