package sink

import (
	"context"
	"mcserve/domain/event"
)

// ChannelSink hands events to a live subscriber. A subscriber too slow to
// keep up loses events rather than slowing down the fanout.
type ChannelSink struct {
	ch chan event.DomainEvent
}

func NewChannelSink(size int) *ChannelSink {
	return &ChannelSink{ch: make(chan event.DomainEvent, size)}
}

func (c *ChannelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case c.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (c *ChannelSink) Events() <-chan event.DomainEvent {
	return c.ch
}
