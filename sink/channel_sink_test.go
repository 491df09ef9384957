package sink

import (
	"context"
	"mcserve/domain/event"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChannelSink_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	s := NewChannelSink(1)
	ctx := context.Background()

	first := event.NewChatPosted("Alice", "one", time.Now())

	// When two events are consumed by a subscriber reading nothing
	req.NoError(s.Consume(ctx, first))
	req.NoError(s.Consume(ctx, event.NewChatPosted("Alice", "two", time.Now())))

	// Then only the first is kept and nothing blocked
	req.Len(s.Events(), 1)
	req.Equal(first, <-s.Events())
}
