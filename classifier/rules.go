package classifier

import (
	"mcserve/domain"
	"mcserve/domain/event"
	"regexp"
	"time"
)

const (
	RuleLogin            = "login"
	RuleLostConnection   = "lost_connection"
	RuleKicked           = "kicked"
	RuleKickedBy         = "kicked_by"
	RuleChat             = "chat"
	RuleCommandIssued    = "command_issued"
	RuleCommandAttempted = "command_attempted"
)

// Every line starts with "YYYY-MM-DD HH:MM:SS [LEVEL] ".
const stamp = `^(\d+-\d+-\d+ \d+:\d+:\d+) `

// DefaultRules returns the rules for the server log format, in match order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    RuleLogin,
			Pattern: regexp.MustCompile(stamp + `\[INFO\] (.+) \[/(\d+\.\d+\.\d+\.\d+:\d+)\] logged in with entity id (\d+?) at \(.+?\)$`),
			Build: func(m []string, at time.Time) Result {
				return Result{Event: event.NewJoined(m[2], at)}
			},
		},
		{
			Name:    RuleLostConnection,
			Pattern: regexp.MustCompile(stamp + `\[INFO\] (.+?) lost connection: (.+)$`),
			Build: func(m []string, at time.Time) Result {
				return Result{Event: event.NewLeft(m[2], m[3], at)}
			},
		},
		{
			Name:    RuleKicked,
			Pattern: regexp.MustCompile(stamp + `\[WARNING\] (.+?) was kicked for (.+?)$`),
			Build: func(m []string, at time.Time) Result {
				return Result{Event: event.NewLeft(m[2], "kicked for "+m[3], at)}
			},
		},
		{
			Name:    RuleKickedBy,
			Pattern: regexp.MustCompile(stamp + `\[INFO\] (.+?): Kicking (.+?)$`),
			Build: func(m []string, at time.Time) Result {
				return Result{Event: event.NewLeft(m[3], "kicked by "+m[2], at)}
			},
		},
		{
			Name:    RuleChat,
			Pattern: regexp.MustCompile(stamp + `\[INFO\] <(.+?)> (.+)$`),
			Build: func(m []string, at time.Time) Result {
				return Result{Event: event.NewChatPosted(m[2], m[3], at)}
			},
		},
		{
			Name:    RuleCommandIssued,
			Pattern: regexp.MustCompile(stamp + `\[INFO\] (.+?) issued server command: (.+)$`),
			Build: func(m []string, _ time.Time) Result {
				return Result{Command: &domain.AdminCommand{Issuer: m[2], Raw: m[3], Permitted: true}}
			},
		},
		{
			Name:    RuleCommandAttempted,
			Pattern: regexp.MustCompile(stamp + `\[INFO\] (.+?) tried command: (.+)$`),
			Build: func(m []string, _ time.Time) Result {
				return Result{Command: &domain.AdminCommand{Issuer: m[2], Raw: m[3], Permitted: false}}
			},
		},
	}
}
