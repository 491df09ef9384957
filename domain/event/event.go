// Package event defines the closed set of domain events produced from the
// server log stream. Events are immutable values; At is the capture time on
// the supervisor, not the timestamp printed by the server.
package event

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	ChatPostedKind       Kind = "CHAT_POSTED"
	PresenceChangedKind  Kind = "PRESENCE_CHANGED"
	RestartRequestedKind Kind = "RESTART_REQUESTED"
	RestartExecutedKind  Kind = "RESTART_EXECUTED"
)

// DomainEvent is implemented only by the types of this package.
type DomainEvent interface {
	EventID() uuid.UUID
	Kind() Kind
	CreatedAt() time.Time
	isDomainEvent()
}

type ChatPosted struct {
	ID   uuid.UUID
	Who  string
	Text string
	At   time.Time
}

func NewChatPosted(who, text string, at time.Time) ChatPosted {
	return ChatPosted{ID: uuid.New(), Who: who, Text: text, At: at}
}

func (c ChatPosted) EventID() uuid.UUID   { return c.ID }
func (c ChatPosted) Kind() Kind           { return ChatPostedKind }
func (c ChatPosted) CreatedAt() time.Time { return c.At }
func (ChatPosted) isDomainEvent()         {}

// PresenceChanged is a join (Joined=true) or a leave. Cause holds the
// disconnect reason or the kicker when the log line carried one.
type PresenceChanged struct {
	ID     uuid.UUID
	Who    string
	Joined bool
	Cause  string
	At     time.Time
}

func NewJoined(who string, at time.Time) PresenceChanged {
	return PresenceChanged{ID: uuid.New(), Who: who, Joined: true, At: at}
}

func NewLeft(who, cause string, at time.Time) PresenceChanged {
	return PresenceChanged{ID: uuid.New(), Who: who, Joined: false, Cause: cause, At: at}
}

func (p PresenceChanged) EventID() uuid.UUID   { return p.ID }
func (p PresenceChanged) Kind() Kind           { return PresenceChangedKind }
func (p PresenceChanged) CreatedAt() time.Time { return p.At }
func (PresenceChanged) isDomainEvent()         {}

type RestartRequested struct {
	ID  uuid.UUID
	Who string
	At  time.Time
}

func NewRestartRequested(who string, at time.Time) RestartRequested {
	return RestartRequested{ID: uuid.New(), Who: who, At: at}
}

func (r RestartRequested) EventID() uuid.UUID   { return r.ID }
func (r RestartRequested) Kind() Kind           { return RestartRequestedKind }
func (r RestartRequested) CreatedAt() time.Time { return r.At }
func (RestartRequested) isDomainEvent()         {}

type RestartExecuted struct {
	ID uuid.UUID
	At time.Time
}

func NewRestartExecuted(at time.Time) RestartExecuted {
	return RestartExecuted{ID: uuid.New(), At: at}
}

func (r RestartExecuted) EventID() uuid.UUID   { return r.ID }
func (r RestartExecuted) Kind() Kind           { return RestartExecutedKind }
func (r RestartExecuted) CreatedAt() time.Time { return r.At }
func (RestartExecuted) isDomainEvent()         {}

// Identity returns the user an event is about, or "" for server-wide events.
func Identity(e DomainEvent) string {
	switch evt := e.(type) {
	case ChatPosted:
		return evt.Who
	case PresenceChanged:
		return evt.Who
	case RestartRequested:
		return evt.Who
	default:
		return ""
	}
}
