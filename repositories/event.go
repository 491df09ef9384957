//go:generate go run go.uber.org/mock/mockgen -source=event.go -destination=../mocks/mock_event_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"mcserve/domain/event"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const eventPrefix = "evt:"

type IEventRepository interface {
	StoreEvent(evt DiskEvent) error
	GetEvents(cursor *string) ([]DiskEvent, *string, error)
}

// EventRepository is the append-only journal of the timeline.
// It is write-only for the supervisor: nothing is read back into memory at start-up.
type EventRepository struct {
	db       *badger.DB
	log      *slog.Logger
	pageSize int
}

func NewEventRepository(db *badger.DB, log *slog.Logger, pageSize int) EventRepository {
	return EventRepository{db: db, log: log, pageSize: pageSize}
}

// DiskEvent is the flattened form of every event kind.
type DiskEvent struct {
	ID     uuid.UUID  `json:"id"`
	Kind   event.Kind `json:"kind"`
	Who    string     `json:"who,omitempty"`
	Text   string     `json:"text,omitempty"`
	Joined bool       `json:"joined,omitempty"`
	Cause  string     `json:"cause,omitempty"`
	At     time.Time  `json:"at"`
}

func FromDomainEvent(e event.DomainEvent) DiskEvent {
	d := DiskEvent{ID: e.EventID(), Kind: e.Kind(), Who: event.Identity(e), At: e.CreatedAt().UTC()}
	switch evt := e.(type) {
	case event.ChatPosted:
		d.Text = evt.Text
	case event.PresenceChanged:
		d.Joined = evt.Joined
		d.Cause = evt.Cause
	}
	return d
}

// StoreEvent persists an event in BadgerDB.
// The key is formatted as "evt:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two events
//     arrive at the same nanosecond.
func (r EventRepository) StoreEvent(evt DiskEvent) error {
	key := fmt.Sprintf("%s%019d:%s", eventPrefix, evt.At.UnixNano(), evt.ID)
	value, err := toStruct(evt)
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetEvents returns one page of events, newest first, starting after cursor.
// The returned cursor is nil once the journal is exhausted.
func (r EventRepository) GetEvents(cursor *string) ([]DiskEvent, *string, error) {
	var values [][]byte
	var lastKey string
	exhausted := true
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(eventPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Highest possible timestamp, then we go back in time
			seekKey = append(prefix, []byte("9999999999999999999~")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[len(prefix):]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.pageSize > 0 && len(values) == r.pageSize {
				exhausted = false
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[len(prefix):])
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := make([]DiskEvent, 0, len(values))
	for _, b := range values {
		evt, err := DecodeDiskEvent(b)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, evt)
	}
	if exhausted {
		return events, nil, nil
	}
	r.log.Debug("Journal page full", "size", r.pageSize, "cursor", lastKey)
	return events, &lastKey, nil
}

// DecodeDiskEvent reads a journal value back.
func DecodeDiskEvent(b []byte) (DiskEvent, error) {
	var value structpb.Struct
	if err := proto.Unmarshal(b, &value); err != nil {
		return DiskEvent{}, err
	}
	return fromStruct(&value)
}

func toStruct(evt DiskEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":     evt.ID.String(),
		"kind":   string(evt.Kind),
		"who":    evt.Who,
		"text":   evt.Text,
		"joined": evt.Joined,
		"cause":  evt.Cause,
		"at":     evt.At.UTC().Format(time.RFC3339Nano),
	})
}

func fromStruct(value *structpb.Struct) (DiskEvent, error) {
	fields := value.GetFields()
	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return DiskEvent{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, fields["at"].GetStringValue())
	if err != nil {
		return DiskEvent{}, err
	}
	return DiskEvent{
		ID:     id,
		Kind:   event.Kind(fields["kind"].GetStringValue()),
		Who:    fields["who"].GetStringValue(),
		Text:   fields["text"].GetStringValue(),
		Joined: fields["joined"].GetBoolValue(),
		Cause:  fields["cause"].GetStringValue(),
		At:     at,
	}, nil
}
