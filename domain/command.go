package domain

import "strings"

// AdminCommand is a command a user typed in game, as reported by the server log.
// Permitted is false when the server refused it ("tried command").
type AdminCommand struct {
	Issuer    string
	Raw       string
	Permitted bool
}

// Name is the normalised command word: trimmed, without a leading slash, lower case.
func (c AdminCommand) Name() string {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(c.Raw), "/"))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
