// Package projection builds the local timeline from observed events.
// Handles bounded retention and the join/leave correlation of presence events.
// Does not emit events or interact with UI directly.
package projection

import (
	"mcserve/domain/event"
	"time"
)

const (
	DefaultCapacity = 100
	// QuickReturnWindow below which a leave followed by a join is treated as a reconnection.
	QuickReturnWindow = 60 * time.Second
)

type AnnotationKind string

const (
	Plain            AnnotationKind = "PLAIN"
	Joined           AnnotationKind = "JOINED"
	JoinedAfter      AnnotationKind = "JOINED_AFTER"
	LoggedBackIn     AnnotationKind = "LOGGED_BACK_IN"
	Left             AnnotationKind = "LEFT"
	LeftAfter        AnnotationKind = "LEFT_AFTER"
	LoggedOutBriefly AnnotationKind = "LOGGED_OUT_BRIEFLY"
)

// Annotation is the display label of an entry. Elapsed is only meaningful
// for JoinedAfter (time logged off) and LeftAfter (time logged on).
type Annotation struct {
	Kind    AnnotationKind
	Elapsed time.Duration
}

func (a Annotation) Label() string {
	switch a.Kind {
	case Joined, JoinedAfter:
		return "joined"
	case LoggedBackIn:
		return "logged back in"
	case Left, LeftAfter:
		return "left"
	case LoggedOutBriefly:
		return "logged out briefly"
	default:
		return ""
	}
}

func (a Annotation) Detail() string {
	switch a.Kind {
	case JoinedAfter:
		return "(logged off for " + HumanizeDuration(a.Elapsed) + ")"
	case LeftAfter:
		return "(logged on for " + HumanizeDuration(a.Elapsed) + ")"
	default:
		return ""
	}
}

// Muted labels describe connection noise and are rendered in gray.
func (a Annotation) Muted() bool {
	return a.Kind == LoggedBackIn || a.Kind == LoggedOutBriefly
}

func (a Annotation) String() string {
	if detail := a.Detail(); detail != "" {
		return a.Label() + " " + detail
	}
	return a.Label()
}

// Entry is one line of the timeline. Event is immutable; Annotation and
// QuickReturn may be rewritten by a later correlation.
type Entry struct {
	Event       event.DomainEvent
	Annotation  Annotation
	QuickReturn bool
	// consumed marks a leave already paired with a later join.
	consumed bool
}

// Describe renders the entry the way the status page shows it, without markup.
func (e Entry) Describe() string {
	switch evt := e.Event.(type) {
	case event.ChatPosted:
		return "<" + evt.Who + "> " + evt.Text
	case event.PresenceChanged:
		return "*" + evt.Who + " " + e.Annotation.String()
	case event.RestartRequested:
		return "*" + evt.Who + " requested restart"
	case event.RestartExecuted:
		return "server restart"
	default:
		return ""
	}
}

// Timeline holds the most recent entries in classification order.
// It is not safe for concurrent use.
type Timeline struct {
	capacity int
	entries  []*Entry
}

func NewTimeline(capacity int) *Timeline {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Timeline{capacity: capacity, entries: make([]*Entry, 0, capacity+1)}
}

func (t *Timeline) Len() int {
	return len(t.entries)
}

// Append correlates presence events with retained history, stores the
// entry and evicts the oldest one when over capacity.
func (t *Timeline) Append(e event.DomainEvent) Entry {
	entry := &Entry{Event: e, Annotation: Annotation{Kind: Plain}}
	if pc, ok := e.(event.PresenceChanged); ok {
		t.correlate(entry, pc)
	}

	t.entries = append(t.entries, entry)
	if len(t.entries) > t.capacity {
		evicted := len(t.entries) - t.capacity
		kept := copy(t.entries, t.entries[evicted:])
		clear(t.entries[kept:])
		t.entries = t.entries[:kept]
	}
	return *entry
}

// correlate looks backward for the nearest opposite-direction entry of the
// same identity and annotates the new entry (and possibly the old one).
func (t *Timeline) correlate(entry *Entry, pc event.PresenceChanged) {
	if pc.Joined {
		entry.Annotation = Annotation{Kind: Joined}
	} else {
		entry.Annotation = Annotation{Kind: Left}
	}

	for i := len(t.entries) - 1; i >= 0; i-- {
		other := t.entries[i]
		prev, ok := other.Event.(event.PresenceChanged)
		if !ok || prev.Who != pc.Who || prev.Joined == pc.Joined {
			continue
		}
		elapsed := pc.At.Sub(prev.At)

		if pc.Joined {
			if other.consumed {
				return
			}
			other.consumed = true
			if elapsed < QuickReturnWindow {
				other.Annotation = Annotation{Kind: LoggedOutBriefly}
				entry.Annotation = Annotation{Kind: LoggedBackIn}
				entry.QuickReturn = true
			} else {
				entry.Annotation = Annotation{Kind: JoinedAfter, Elapsed: elapsed}
			}
			return
		}

		// A quick return continues the session opened by an earlier join.
		if other.QuickReturn {
			continue
		}
		entry.Annotation = Annotation{Kind: LeftAfter, Elapsed: elapsed}
		return
	}
}

// Recent returns up to n entries, most recent first. n <= 0 means all.
func (t *Timeline) Recent(n int) []Entry {
	if n <= 0 || n > len(t.entries) {
		n = len(t.entries)
	}
	res := make([]Entry, 0, n)
	for i := len(t.entries) - 1; i >= len(t.entries)-n; i-- {
		res = append(res, *t.entries[i])
	}
	return res
}
