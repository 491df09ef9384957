package internal

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"mcserve/contract"
	"mcserve/domain"
	"mcserve/domain/event"
	"mcserve/errors"
	"mcserve/moderation"
	"mcserve/projection"
	"mcserve/repositories"
	"mcserve/runtime"
	"mcserve/sink"
	"net/http"
	"strconv"
	"time"

	stdErrors "errors"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

//go:embed status.html
var templatesFS embed.FS

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	streamBufferSize   = 64
)

// ChatSearcher is the full-text index over chat.
type ChatSearcher interface {
	Search(ctx context.Context, q string, limit int) ([]sink.ChatHit, error)
}

type OnlineView struct {
	Identity string    `json:"identity"`
	JoinedAt time.Time `json:"joined_at"`
	Since    string    `json:"since"`
	Color    string    `json:"color"`
}

type EventView struct {
	ID          string     `json:"id"`
	Kind        event.Kind `json:"kind"`
	Who         string     `json:"who,omitempty"`
	Text        string     `json:"text,omitempty"`
	Label       string     `json:"label,omitempty"`
	Detail      string     `json:"detail,omitempty"`
	Muted       bool       `json:"muted"`
	Description string     `json:"description"`
	Color       string     `json:"color,omitempty"`
	At          time.Time  `json:"at"`
}

type ProcessView struct {
	Running      bool                 `json:"running"`
	RestartState runtime.RestartState `json:"restart_state"`
	PID          int                  `json:"pid,omitempty"`
	StartedAt    *time.Time           `json:"started_at,omitempty"`
	RSSBytes     uint64               `json:"rss_bytes,omitempty"`
	CPUPercent   float64              `json:"cpu_percent,omitempty"`
}

type HistoryView struct {
	Events []repositories.DiskEvent `json:"events"`
	Cursor *string                  `json:"cursor,omitempty"`
}

type PageData struct {
	Online         []OnlineView
	Events         []EventView
	RestartPending bool
	Version        string
}

// StatusServer is the read-only web view of the supervisor.
type StatusServer struct {
	log      *slog.Logger
	engine   *runtime.Engine
	filter   *moderation.Filter
	registry contract.IRegistry
	journal  repositories.IEventRepository
	search   ChatSearcher
	version  string
	now      func() time.Time
	tmpl     *template.Template
}

type StatusOption func(*StatusServer)

func WithJournal(journal repositories.IEventRepository) StatusOption {
	return func(s *StatusServer) {
		s.journal = journal
	}
}

func WithSearch(search ChatSearcher) StatusOption {
	return func(s *StatusServer) {
		s.search = search
	}
}

func WithVersion(version string) StatusOption {
	return func(s *StatusServer) {
		s.version = version
	}
}

func WithStatusClock(now func() time.Time) StatusOption {
	return func(s *StatusServer) {
		s.now = now
	}
}

func NewStatusServer(log *slog.Logger, engine *runtime.Engine, filter *moderation.Filter,
	registry contract.IRegistry, opts ...StatusOption) *StatusServer {
	s := &StatusServer{
		log:      log,
		engine:   engine,
		filter:   filter,
		registry: registry,
		version:  "dev",
		now:      time.Now,
		tmpl:     template.Must(template.ParseFS(templatesFS, "status.html")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *StatusServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.page)
	mux.HandleFunc("GET /api/online", s.online)
	mux.HandleFunc("GET /api/events", s.events)
	mux.HandleFunc("GET /api/process", s.process)
	mux.HandleFunc("GET /api/stats", s.stats)
	mux.HandleFunc("GET /api/search", s.searchChat)
	mux.HandleFunc("GET /api/history", s.history)
	mux.HandleFunc("GET /api/stream", s.stream)
	return mux
}

func (s *StatusServer) page(w http.ResponseWriter, r *http.Request) {
	s.log.Debug("Status page requested", "remote", r.RemoteAddr)
	data := PageData{
		Online:         s.onlineViews(),
		Events:         s.eventViews(0),
		RestartPending: s.engine.RestartPending(),
		Version:        s.version,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.Warn("Error while rendering status page", "error", err)
	}
}

func (s *StatusServer) online(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.onlineViews())
}

func (s *StatusServer) events(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.eventViews(n))
}

func (s *StatusServer) process(w http.ResponseWriter, _ *http.Request) {
	view := ProcessView{RestartState: s.engine.RestartState()}
	if stats, ok := s.engine.Monitoring().Process(); ok {
		view.Running = true
		view.PID = stats.PID
		view.StartedAt = lo.ToPtr(stats.StartedAt)
		view.RSSBytes = stats.RSSBytes
		view.CPUPercent = stats.CPUPercent
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *StatusServer) stats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"supervisor":  s.engine.Monitoring().Snapshot(),
		"online":      len(s.engine.ListOnline()),
		"subscribers": len(s.registry.Sinks()),
		"censoring":   s.filter.Enabled(),
	})
}

func (s *StatusServer) searchChat(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.ErrSearchDisabled)
		return
	}
	limit, err := intParam(r, "limit", defaultSearchLimit)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	limit = min(max(limit, 1), maxSearchLimit)

	hits, err := s.search.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	hits = lo.Map(hits, func(hit sink.ChatHit, _ int) sink.ChatHit {
		hit.Text = s.filter.Censor(hit.Text)
		return hit
	})
	s.writeJSON(w, http.StatusOK, lo.Ternary(hits == nil, []sink.ChatHit{}, hits))
}

func (s *StatusServer) history(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.ErrJournalDisabled)
		return
	}
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}
	events, next, err := s.journal.GetEvents(cursor)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	events = lo.Map(events, func(e repositories.DiskEvent, _ int) repositories.DiskEvent {
		e.Text = s.filter.Censor(e.Text)
		return e
	})
	s.writeJSON(w, http.StatusOK, HistoryView{Events: events, Cursor: next})
}

// stream pushes every new event as a server-sent event until the client leaves.
func (s *StatusServer) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, stdErrors.New("streaming unsupported"))
		return
	}

	subscriberID := uuid.NewString()
	subscriber := sink.NewChannelSink(streamBufferSize)
	s.registry.Subscribe(subscriberID, subscriber)
	defer s.registry.Unsubscribe(subscriberID)
	s.log.Debug("Stream subscriber connected", "id", subscriberID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("Stream subscriber left", "id", subscriberID)
			return
		case evt := <-subscriber.Events():
			disk := repositories.FromDomainEvent(evt)
			disk.Text = s.filter.Censor(disk.Text)
			payload, err := sonic.Marshal(disk)
			if err != nil {
				s.log.Warn("Error while encoding event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind(), payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *StatusServer) onlineViews() []OnlineView {
	now := s.now()
	return lo.Map(s.engine.ListOnline(), func(u domain.OnlineUser, _ int) OnlineView {
		return OnlineView{
			Identity: u.Identity,
			JoinedAt: u.JoinedAt,
			Since:    projection.HumanizeDuration(now.Sub(u.JoinedAt)) + " ago",
			Color:    domain.Color(u.Identity),
		}
	})
}

func (s *StatusServer) eventViews(n int) []EventView {
	return lo.Map(s.engine.RecentEvents(n), func(entry projection.Entry, _ int) EventView {
		return s.toEventView(entry)
	})
}

func (s *StatusServer) toEventView(entry projection.Entry) EventView {
	e := entry.Event
	view := EventView{
		ID:          e.EventID().String(),
		Kind:        e.Kind(),
		Who:         event.Identity(e),
		Description: entry.Describe(),
		At:          e.CreatedAt(),
	}
	if view.Who != "" {
		view.Color = domain.Color(view.Who)
	}
	switch evt := e.(type) {
	case event.ChatPosted:
		view.Text = s.filter.Censor(evt.Text)
		view.Description = fmt.Sprintf("<%s> %s", evt.Who, view.Text)
	case event.PresenceChanged:
		view.Label = entry.Annotation.Label()
		view.Detail = entry.Annotation.Detail()
		view.Muted = entry.Annotation.Muted()
	}
	return view
}

func (s *StatusServer) writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := sonic.Marshal(v)
	if err != nil {
		s.log.Warn("Error while encoding response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func (s *StatusServer) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}
