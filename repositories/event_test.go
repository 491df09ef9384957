package repositories

import (
	"log/slog"
	"mcserve/domain/event"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *badger.DB {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestEventRepository_StoreAndPage(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repository := NewEventRepository(openInMemory(t), log, 2)

	at := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	events := []DiskEvent{
		FromDomainEvent(event.NewJoined("Alice", at)),
		FromDomainEvent(event.NewChatPosted("Alice", "hello there", at.Add(time.Second))),
		FromDomainEvent(event.NewLeft("Alice", "disconnect.quitting", at.Add(time.Minute))),
		FromDomainEvent(event.NewRestartExecuted(at.Add(time.Hour))),
		FromDomainEvent(event.NewRestartRequested("Bob", at.Add(30 * time.Minute))),
	}

	// Given five events stored
	for _, e := range events {
		req.NoError(repository.StoreEvent(e))
	}

	// When the first page is read
	page, cursor, err := repository.GetEvents(nil)

	// Then the newest events come first
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]DiskEvent{events[3], events[4]}, page)

	// When the next pages are read
	page, cursor, err = repository.GetEvents(cursor)
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]DiskEvent{events[2], events[1]}, page)

	page, cursor, err = repository.GetEvents(cursor)
	req.NoError(err)
	req.Nil(cursor)
	req.Equal([]DiskEvent{events[0]}, page)
}

func TestEventRepository_Empty(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repository := NewEventRepository(openInMemory(t), log, 10)

	page, cursor, err := repository.GetEvents(nil)

	req.NoError(err)
	req.Nil(cursor)
	req.Empty(page)
}

func TestFromDomainEvent(t *testing.T) {
	req := require.New(t)
	at := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)

	left := event.NewLeft("Bob", "kicked by Alice", at)
	d := FromDomainEvent(left)

	req.Equal(left.ID, d.ID)
	req.Equal(event.PresenceChangedKind, d.Kind)
	req.Equal("Bob", d.Who)
	req.False(d.Joined)
	req.Equal("kicked by Alice", d.Cause)
	req.Equal(at, d.At)
}
