// Package domain contains core concepts of the supervised server.
// This file defines who is online and the invariants of presence.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"sort"
	"time"
)

type OnlineUser struct {
	Identity string
	JoinedAt time.Time
}

// Presence maps an identity to its join time. An identity is online if and
// only if it has an entry. Presence is not safe for concurrent use: the
// runtime Engine serializes every access.
type Presence struct {
	online map[string]time.Time
}

func NewPresence() *Presence {
	return &Presence{online: make(map[string]time.Time)}
}

// MarkJoined overwrites any previous entry, a re-join without a leave is a fresh join.
func (p *Presence) MarkJoined(identity string, at time.Time) {
	p.online[identity] = at
}

// MarkLeft is a no-op for an identity that is not online.
func (p *Presence) MarkLeft(identity string) {
	delete(p.online, identity)
}

func (p *Presence) IsOnline(identity string) bool {
	_, ok := p.online[identity]
	return ok
}

func (p *Presence) IsEmpty() bool {
	return len(p.online) == 0
}

func (p *Presence) Len() int {
	return len(p.online)
}

// ClearAll is used when the server restarts: nobody survives a restart.
func (p *Presence) ClearAll() {
	clear(p.online)
}

// List returns online users ordered by join time, then identity.
func (p *Presence) List() []OnlineUser {
	users := make([]OnlineUser, 0, len(p.online))
	for identity, at := range p.online {
		users = append(users, OnlineUser{Identity: identity, JoinedAt: at})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].Identity < users[j].Identity
		}
		return users[i].JoinedAt.Before(users[j].JoinedAt)
	})
	return users
}
