// Package daemon provides the long-running forecast status service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/forecast"
	"github.com/theirongolddev/cashflowcast/internal/model"
)

// Event types.
const (
	EventSnapshot        = "snapshot"
	EventForecastChanged = "forecast_changed"
	EventDayRollover     = "day_rollover"
)

// ProjectLoader resolves the watched project on every poll.
type ProjectLoader interface {
	Project(ctx context.Context, idOrName string) (model.Project, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	Project       string
	HorizonMonths int // overrides the project's horizon when positive
	Interval      time.Duration
	Addr          string
	EventsBuffer  int
	RolloverCron  string
	Clock         func() calendar.Date
}

// Snapshot is a compact forecast state for status/event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	Today          string    `json:"today"`
	ProjectID      string    `json:"project_id"`
	ProjectName    string    `json:"project_name"`
	Currency       string    `json:"currency"`
	Months         int       `json:"months"`
	Entries        int       `json:"entries"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	EndingBalance  decimal.Decimal `json:"ending_balance"`
	LowestBalance  decimal.Decimal `json:"lowest_balance"`
	LowestMonth    string          `json:"lowest_month"`
	Truncated      int             `json:"truncated"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Entries       int             `json:"entries"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpense  decimal.Decimal `json:"total_expense"`
	EndingBalance decimal.Decimal `json:"ending_balance"`
	LowestBalance decimal.Decimal `json:"lowest_balance"`
}

func (d Delta) isZero() bool {
	return d.Entries == 0 &&
		d.TotalIncome.IsZero() &&
		d.TotalExpense.IsZero() &&
		d.EndingBalance.IsZero() &&
		d.LowestBalance.IsZero()
}

// Event is emitted whenever the forecast snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastRolloverAt  time.Time `json:"last_rollover_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Project         string    `json:"project"`
	RolloverCron    string    `json:"rollover_cron"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// ForecastResponse is served at /v1/forecast.
type ForecastResponse struct {
	Snapshot  Snapshot              `json:"snapshot"`
	Rows      []model.ForecastRow   `json:"rows"`
	Truncated []forecast.Truncation `json:"truncated,omitempty"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg       Config
	loader    ProjectLoader
	publisher Publisher
	log       *logrus.Entry
	outbox    chan Event

	// pollMu serializes whole polls so event IDs reach the ring in order.
	pollMu sync.Mutex

	mu           sync.RWMutex
	startedAt    time.Time
	lastPollAt   time.Time
	lastRollover time.Time
	pollCount    int64
	lastError    string
	hasSnapshot  bool
	snapshot     Snapshot
	rows         []model.ForecastRow
	truncated    []forecast.Truncation
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service. publisher may be nil; logger may be nil.
func New(cfg Config, loader ProjectLoader, publisher Publisher, logger *logrus.Logger) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.RolloverCron == "" {
		cfg.RolloverCron = "@midnight"
	}
	if cfg.Clock == nil {
		cfg.Clock = calendar.Today
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Service{
		cfg:       cfg,
		loader:    loader,
		publisher: publisher,
		log:       logger.WithField("component", "daemon"),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
	if publisher != nil {
		s.outbox = make(chan Event, cfg.EventsBuffer)
	}
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/forecast", s.handleForecast)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

// Run serves the HTTP API, polls the project, fires the rollover schedule
// and forwards events to the publisher until ctx is canceled or one of
// those fails.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	sched := cron.New()
	if _, err := sched.AddFunc(s.cfg.RolloverCron, func() { s.rollover(gctx) }); err != nil {
		return fmt.Errorf("scheduling rollover %q: %w", s.cfg.RolloverCron, err)
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	sched.Start()
	g.Go(func() error {
		<-gctx.Done()
		<-sched.Stop().Done()
		return nil
	})

	if s.publisher != nil {
		g.Go(func() error {
			s.forward(gctx)
			return nil
		})
	}

	g.Go(func() error {
		// Seed initial snapshot so status is useful immediately.
		s.pollOnce(gctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(gctx)
			}
		}
	})

	s.log.WithFields(logrus.Fields{
		"addr":     s.cfg.Addr,
		"project":  s.cfg.Project,
		"interval": s.cfg.Interval.String(),
		"rollover": s.cfg.RolloverCron,
	}).Info("daemon started")

	return g.Wait()
}

func (s *Service) rollover(ctx context.Context) {
	s.mu.Lock()
	s.lastRollover = time.Now()
	s.mu.Unlock()
	s.pollOnce(ctx)
}

func (s *Service) pollOnce(ctx context.Context) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	p, err := s.loader.Project(ctx, s.cfg.Project)
	now := time.Now()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.WithError(err).Warn("poll failed")
		return
	}

	if s.cfg.HorizonMonths > 0 {
		p.HorizonMonths = s.cfg.HorizonMonths
	}
	today := s.cfg.Clock()
	res := forecast.Generate(p, today)
	snap := buildSnapshot(p, today, res, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevRows := s.rows
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.rows = res.Rows
	s.truncated = res.Truncated
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	delta := diffSnapshots(prev, snap)
	switch {
	case !prevExists:
		ev = Event{Type: EventSnapshot, Snapshot: snap}
		publish = true
	case prev.Today != snap.Today:
		ev = Event{Type: EventDayRollover, Snapshot: snap, Delta: delta}
		publish = true
	case !delta.isZero() || !sameRows(prevRows, res.Rows):
		ev = Event{Type: EventForecastChanged, Snapshot: snap, Delta: delta}
		publish = true
	}
	if publish {
		s.nextEventID++
		ev.ID = s.nextEventID
		ev.Timestamp = now
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
		s.log.WithFields(logrus.Fields{
			"event":   ev.Type,
			"id":      ev.ID,
			"today":   snap.Today,
			"ending":  snap.EndingBalance.String(),
			"lowest":  snap.LowestBalance.String(),
			"entries": snap.Entries,
		}).Info("forecast event")
	}
	for _, tr := range res.Truncated {
		s.log.WithFields(logrus.Fields{"entry": tr.EntryID, "guard": tr.Guard}).Warn("entry enumeration truncated")
	}
}

func buildSnapshot(p model.Project, today calendar.Date, res forecast.Result, at time.Time) Snapshot {
	sum := forecast.Summarise(res.Rows, p.OpeningBalance)
	snap := Snapshot{
		At:             at,
		Today:          today.String(),
		ProjectID:      p.ID,
		ProjectName:    p.Name,
		Currency:       p.Currency,
		Months:         len(res.Rows),
		Entries:        len(p.Entries),
		OpeningBalance: sum.OpeningBalance,
		TotalIncome:    sum.TotalIncome,
		TotalExpense:   sum.TotalExpense,
		EndingBalance:  sum.EndingBalance,
		Truncated:      len(res.Truncated),
	}
	if low, ok := forecast.LowestBalance(res.Rows); ok {
		snap.LowestBalance = low.Balance
		snap.LowestMonth = low.Label
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Entries:       curr.Entries - prev.Entries,
		TotalIncome:   curr.TotalIncome.Sub(prev.TotalIncome),
		TotalExpense:  curr.TotalExpense.Sub(prev.TotalExpense),
		EndingBalance: curr.EndingBalance.Sub(prev.EndingBalance),
		LowestBalance: curr.LowestBalance.Sub(prev.LowestBalance),
	}
}

func sameRows(a, b []model.ForecastRow) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].PeriodStart.Equal(b[i].PeriodStart) ||
			!a[i].Incomes.Equal(b[i].Incomes) ||
			!a[i].Expenses.Equal(b[i].Expenses) ||
			!a[i].Balance.Equal(b[i].Balance) {
			return false
		}
	}
	return true
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()

	if s.outbox != nil {
		select {
		case s.outbox <- ev:
		default:
			s.log.WithField("id", ev.ID).Warn("publisher backlog full, dropping event")
		}
	}
}

// forward drains the outbox into the publisher until ctx is done.
func (s *Service) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.outbox:
			if err := s.publisher.Publish(ctx, ev); err != nil {
				s.log.WithError(err).WithField("id", ev.ID).Warn("publishing event failed")
			}
		}
	}
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastRolloverAt:  s.lastRollover,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Project:         s.cfg.Project,
		RolloverCron:    s.cfg.RolloverCron,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleForecast(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ready := s.hasSnapshot
	resp := ForecastResponse{
		Snapshot:  s.snapshot,
		Rows:      append([]model.ForecastRow(nil), s.rows...),
		Truncated: append([]forecast.Truncation(nil), s.truncated...),
	}
	lastError := s.lastError
	s.mu.RUnlock()

	if !ready {
		msg := "forecast not ready"
		if lastError != "" {
			msg += ": " + lastError
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleEvents returns buffered events, optionally only those with an ID
// greater than the "since" query parameter.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since"})
			return
		}
		since = n
	}

	s.mu.RLock()
	events := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.ID > since {
			events = append(events, ev)
		}
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
