package runtime

type RestartState string

const (
	Idle             RestartState = "IDLE"
	RestartRequested RestartState = "RESTART_REQUESTED"
)

// Coordinator tracks a drain-and-restart request: the server is stopped once
// everybody has left, never while someone is playing.
// It is not safe for concurrent use; the Engine owns it.
type Coordinator struct {
	state       RestartState
	requestedBy string
	stopIssued  bool
}

func NewCoordinator() *Coordinator {
	return &Coordinator{state: Idle}
}

func (c *Coordinator) State() RestartState {
	return c.state
}

func (c *Coordinator) RequestedBy() string {
	return c.requestedBy
}

// Request returns false when a restart is already pending.
func (c *Coordinator) Request(who string) bool {
	if c.state == RestartRequested {
		return false
	}
	c.state = RestartRequested
	c.requestedBy = who
	return true
}

// ShouldStop reports whether the stop directive must be sent now. It returns
// true at most once per request.
func (c *Coordinator) ShouldStop(presenceEmpty bool) bool {
	if c.state != RestartRequested || !presenceEmpty || c.stopIssued {
		return false
	}
	c.stopIssued = true
	return true
}

// Reset happens when the server process actually exits.
func (c *Coordinator) Reset() {
	c.state = Idle
	c.requestedBy = ""
	c.stopIssued = false
}
