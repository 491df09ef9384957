//go:build !linux

package runtime

import "os/exec"

// setPlatformSpecificAttrs is a no-op: Pdeathsig only exists on Linux.
// Elsewhere the server is stopped through the stop directive and the kill timer.
func setPlatformSpecificAttrs(_ *exec.Cmd) {}
