package workers

import (
	"context"
	"log/slog"
	"mcserve/domain/event"
	"mcserve/observability"
	"time"
)

// channelAlertRatio is the fill ratio of the event channel above which
// events are about to be dropped.
const channelAlertRatio = 0.8

// HealthMonitoringWorker periodically samples the server process and the
// event channel. Reading len/cap of a channel is non-blocking.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	monitoring     *observability.Monitoring
	events         chan event.DomainEvent
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(log *slog.Logger, monitoring *observability.Monitoring,
	events chan event.DomainEvent, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{
		log:            log,
		monitoring:     monitoring,
		events:         events,
		metricInterval: metricInterval,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *HealthMonitoringWorker) sample() {
	if stats, ok := w.monitoring.Process(); ok {
		w.log.Debug("Server process stats",
			"pid", stats.PID, "rss_bytes", stats.RSSBytes, "cpu_percent", stats.CPUPercent,
			"uptime", time.Since(stats.StartedAt).Round(time.Second))
	}
	if c := cap(w.events); c > 0 {
		if ratio := float64(len(w.events)) / float64(c); ratio >= channelAlertRatio {
			w.log.Warn("Event channel almost full", "len", len(w.events), "cap", c)
		}
	}
}
