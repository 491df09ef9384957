package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoordinator(t *testing.T) {
	req := require.New(t)
	c := NewCoordinator()
	req.Equal(Idle, c.State())

	// Nothing to stop while idle
	req.False(c.ShouldStop(true))

	// Given a restart requested by Alice
	req.True(c.Request("Alice"))
	req.Equal(RestartRequested, c.State())
	req.Equal("Alice", c.RequestedBy())

	// When Bob asks again, the first request is kept
	req.False(c.Request("Bob"))
	req.Equal("Alice", c.RequestedBy())

	// Then the stop is issued only once the server is empty, and only once
	req.False(c.ShouldStop(false))
	req.True(c.ShouldStop(true))
	req.False(c.ShouldStop(true))

	// When the server exits
	c.Reset()
	req.Equal(Idle, c.State())
	req.Empty(c.RequestedBy())

	// Then a new request starts over
	req.True(c.Request("Bob"))
	req.True(c.ShouldStop(true))
}
