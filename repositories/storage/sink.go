package storage

import (
	"context"
	"log/slog"
	"mcserve/domain/event"
	"mcserve/repositories"
)

// DiskSink journals every timeline event.
type DiskSink struct {
	repository repositories.IEventRepository
	log        *slog.Logger
}

func NewDiskSink(repository repositories.IEventRepository, log *slog.Logger) DiskSink {
	return DiskSink{repository: repository, log: log}
}

func (d DiskSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.log.Debug("Journaling event", "kind", e.Kind(), "id", e.EventID())
	return d.repository.StoreEvent(repositories.FromDomainEvent(e))
}
