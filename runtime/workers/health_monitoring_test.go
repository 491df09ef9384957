package workers

import (
	"context"
	"log/slog"
	"mcserve/domain/event"
	"mcserve/observability"
	"os"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestHealthMonitoringWorker_Run(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoring(log)
	monitoring.ProcessStarted(os.Getpid())

	// Given a full event channel
	events := make(chan event.DomainEvent, 1)
	events <- event.NewRestartExecuted(time.Now())

	w := NewHealthMonitoringWorker(log, monitoring, events, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Then sampling never consumes events and stops with the context
	req.NoError(w.Run(ctx))
	req.Len(events, 1)
}
