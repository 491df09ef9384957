package internal

import (
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthReporter_FollowsProcess(t *testing.T) {
	req := require.New(t)
	reporter := NewHealthReporter(logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx := context.Background()
	check := &healthpb.HealthCheckRequest{Service: HealthService}

	status := func() healthpb.HealthCheckResponse_ServingStatus {
		resp, err := reporter.Server().Check(ctx, check)
		req.NoError(err)
		return resp.GetStatus()
	}

	// Given no process yet
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, status())

	// When the process starts then exits
	reporter.ProcessStarted(42)
	req.Equal(healthpb.HealthCheckResponse_SERVING, status())
	reporter.ProcessExited(42, nil)
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, status())

	// When shut down, a later start is ignored
	reporter.Shutdown()
	reporter.ProcessStarted(43)
	req.Equal(healthpb.HealthCheckResponse_NOT_SERVING, status())
}
