// Package classifier turns complete server log lines into domain events.
//
// Rules are tried in order and the first match wins. Several patterns overlap
// (a chat line can look like a disconnect), so the order is part of the
// contract and must not be replaced by a lookup table.
package classifier

import (
	"mcserve/domain"
	"mcserve/domain/event"
	"regexp"
	"time"
)

// Rule maps one pattern to a Result. Build receives the submatches of a full-line match.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Build   func(match []string, at time.Time) Result
}

// Result is what one line produced: an Event, a Command, or nothing.
type Result struct {
	Rule    string
	Event   event.DomainEvent
	Command *domain.AdminCommand
}

func (r Result) Matched() bool {
	return r.Rule != ""
}

type Classifier struct {
	rules []Rule
}

func New(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

func Default() *Classifier {
	return New(DefaultRules()...)
}

func (c *Classifier) Rules() []Rule {
	return c.rules
}

// Classify returns the Result of the first matching rule, or an unmatched Result.
// at is stamped on the produced event.
func (c *Classifier) Classify(line string, at time.Time) Result {
	for _, rule := range c.rules {
		match := rule.Pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		res := rule.Build(match, at)
		res.Rule = rule.Name
		return res
	}
	return Result{}
}
