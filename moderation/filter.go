package moderation

import (
	"log/slog"
	"sync/atomic"
)

// Filter is the censor shared by readers while the word list may be reloaded.
// Without a loaded word list it returns text untouched.
type Filter struct {
	log          *slog.Logger
	censoredChar rune
	current      atomic.Pointer[Moderator]
}

func NewFilter(censoredChar rune, log *slog.Logger) *Filter {
	return &Filter{log: log, censoredChar: censoredChar}
}

// Reload swaps the word list. On error the previous list stays active.
func (f *Filter) Reload(words []string) error {
	m, err := NewModerator(words, f.censoredChar, f.log)
	if err != nil {
		return err
	}
	f.current.Store(m)
	return nil
}

func (f *Filter) Enabled() bool {
	return f.current.Load() != nil
}

func (f *Filter) Censor(text string) string {
	m := f.current.Load()
	if m == nil {
		return text
	}
	censored, words := m.Censor(text)
	if len(words) > 0 {
		f.log.Debug("Chat censored", "words", len(words))
	}
	return censored
}
