package internal

import (
	"log/slog"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const HealthService = "mcserve"

// HealthReporter exposes the server process state over the gRPC health
// protocol: SERVING while a process runs, NOT_SERVING otherwise.
type HealthReporter struct {
	log    *slog.Logger
	server *health.Server
}

func NewHealthReporter(log *slog.Logger) *HealthReporter {
	server := health.NewServer()
	server.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{log: log, server: server}
}

func (h *HealthReporter) Server() *health.Server {
	return h.server
}

func (h *HealthReporter) ProcessStarted(pid int) {
	h.log.Debug("Health is SERVING", "pid", pid)
	h.server.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
}

func (h *HealthReporter) ProcessExited(pid int, err error) {
	h.log.Debug("Health is NOT_SERVING", "pid", pid, "error", err)
	h.server.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)
}

// Shutdown marks every service NOT_SERVING for good.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}
