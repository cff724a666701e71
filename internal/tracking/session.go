package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"backend-colatrails/internal/library"
	"backend-colatrails/internal/shared/geo"
	"backend-colatrails/internal/transport"

	"github.com/google/uuid"
)

type Lifecycle string

const (
	Idle    Lifecycle = "idle"
	Active  Lifecycle = "active"
	Paused  Lifecycle = "paused"
	Stopped Lifecycle = "stopped"
)

var (
	ErrInvalidTransition = errors.New("invalid tracking transition")
	ErrNothingToSave     = errors.New("no tracked path to save")
	ErrClosed            = errors.New("tracking session closed")
)

type Subscription uint64

// Geolocator delivers position samples. Subscribe must not invoke the
// callbacks before it returns.
type Geolocator interface {
	Subscribe(onSample func(geo.Point), onError func(error)) (Subscription, error)
	Unsubscribe(sub Subscription)
}

const (
	EventMetrics   = "metrics"
	EventLifecycle = "lifecycle"
	EventError     = "error"
	EventSaved     = "saved"
)

type Metrics struct {
	DistanceMeters float64 `json:"distance_meters"`
	DistanceMiles  float64 `json:"distance_miles"`
	ElapsedMillis  int64   `json:"elapsed_ms"`
	Points         int     `json:"points"`
}

type Event struct {
	Type      string          `json:"type"`
	Lifecycle Lifecycle       `json:"lifecycle"`
	Metrics   Metrics         `json:"metrics"`
	Error     string          `json:"error,omitempty"`
	Record    *library.Record `json:"record,omitempty"`
}

// Emitter receives session events. Emit is called without the session lock
// held but must not block for long.
type Emitter interface {
	Emit(Event)
}

type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

type Snapshot struct {
	Lifecycle Lifecycle      `json:"lifecycle"`
	Mode      transport.Mode `json:"transport_mode"`
	Path      []geo.Point    `json:"path"`
	LastError string         `json:"last_error,omitempty"`
	Metrics
}

// Decision is the caller's answer to the persist prompt offered on stop.
type Decision struct {
	Save   bool
	Title  string
	Public bool
}

// Prompt asks whether a stopped session should be saved. It may block until
// ctx is cancelled.
type Prompt func(ctx context.Context, summary Snapshot) (Decision, error)

type Options struct {
	// OwnerID is stamped on saved records.
	OwnerID    string
	Geolocator Geolocator
	Store      library.Store
	Emitter    Emitter
	// Tick is the live metrics interval while active; zero disables it.
	Tick  time.Duration
	Now   func() time.Time
	NewID func() string
}

// Session captures one live GPS track. All state is guarded by mu; sample
// callbacks re-check the lifecycle and subscription generation under the lock
// so samples arriving after pause or stop are dropped.
type Session struct {
	mu sync.Mutex

	owner string
	geo   Geolocator
	store library.Store
	emit  Emitter
	tick  time.Duration
	now   func() time.Time
	newID func() string

	lifecycle  Lifecycle
	mode       transport.Mode
	path       []geo.Point
	distance   float64
	clock      *Clock
	sub        Subscription
	subscribed bool
	generation uint64
	stopTick   chan struct{}
	lastErr    string
	saving     bool
	closed     bool
}

func NewSession(opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Session{
		owner:     opts.OwnerID,
		geo:       opts.Geolocator,
		store:     opts.Store,
		emit:      opts.Emitter,
		tick:      opts.Tick,
		now:       now,
		newID:     newID,
		lifecycle: Idle,
		mode:      transport.Walk,
		path:      []geo.Point{},
		clock:     NewClock(now),
	}
}

// Begin starts capturing from Idle with an empty path.
func (s *Session) Begin(mode transport.Mode) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.lifecycle != Idle {
		s.mu.Unlock()
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, s.lifecycle)
	}
	if mode != "" {
		s.mode = mode
	}
	s.path = []geo.Point{}
	s.distance = 0
	s.lastErr = ""
	s.clock.Reset()

	if err := s.subscribeLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.clock.Start()
	s.lifecycle = Active
	s.startTickerLocked()
	evt := s.eventLocked(EventLifecycle)
	s.mu.Unlock()

	s.publish(evt)
	return nil
}

// Pause releases the position subscription and stops the clock. The path is
// kept.
func (s *Session) Pause() error {
	s.mu.Lock()
	if s.lifecycle != Active {
		s.mu.Unlock()
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, s.lifecycle)
	}
	s.releaseLocked()
	s.clock.Pause()
	s.lifecycle = Paused
	evt := s.eventLocked(EventLifecycle)
	s.mu.Unlock()

	s.publish(evt)
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	if s.lifecycle != Paused {
		s.mu.Unlock()
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, s.lifecycle)
	}
	if err := s.subscribeLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.clock.Resume()
	s.lifecycle = Active
	s.startTickerLocked()
	evt := s.eventLocked(EventLifecycle)
	s.mu.Unlock()

	s.publish(evt)
	return nil
}

// Stop ends capture and freezes the path. When the path is not empty and
// prompt is set, the caller is asked whether to persist it; a positive answer
// saves the route and returns the session to Idle. A declined, cancelled or
// failed save leaves the session Stopped so it can be saved or reset later.
func (s *Session) Stop(ctx context.Context, prompt Prompt) (Snapshot, *library.Record, error) {
	s.mu.Lock()
	if s.lifecycle != Active && s.lifecycle != Paused {
		s.mu.Unlock()
		return Snapshot{}, nil, fmt.Errorf("%w: stop from %s", ErrInvalidTransition, s.lifecycle)
	}
	s.releaseLocked()
	s.clock.Stop()
	s.lifecycle = Stopped
	summary := s.snapshotLocked()
	evt := s.eventLocked(EventLifecycle)
	s.mu.Unlock()

	s.publish(evt)

	if len(summary.Path) == 0 || prompt == nil {
		return summary, nil, nil
	}
	decision, err := ask(ctx, prompt, summary)
	if err != nil {
		return summary, nil, err
	}
	if !decision.Save {
		return summary, nil, nil
	}
	record, err := s.Save(ctx, decision)
	if err != nil {
		return summary, nil, err
	}
	return summary, &record, nil
}

// Save persists a Stopped session and resets it to Idle.
func (s *Session) Save(ctx context.Context, decision Decision) (library.Record, error) {
	s.mu.Lock()
	if s.lifecycle != Stopped {
		s.mu.Unlock()
		return library.Record{}, fmt.Errorf("%w: save from %s", ErrInvalidTransition, s.lifecycle)
	}
	if len(s.path) == 0 {
		s.mu.Unlock()
		return library.Record{}, ErrNothingToSave
	}
	if s.store == nil {
		s.mu.Unlock()
		return library.Record{}, errors.New("no route store configured")
	}
	if s.saving {
		s.mu.Unlock()
		return library.Record{}, fmt.Errorf("%w: save already in progress", ErrInvalidTransition)
	}
	s.saving = true
	record := s.recordLocked(decision)
	s.mu.Unlock()

	err := s.store.Append(ctx, record)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		s.mu.Unlock()
		log.Printf("tracking save %s: %v", record.ID, err)
		return library.Record{}, err
	}
	if s.lifecycle == Stopped {
		s.resetLocked()
	}
	saved := s.eventLocked(EventSaved)
	saved.Record = &record
	s.mu.Unlock()

	s.publish(saved)
	return record, nil
}

// Reset discards the session from any state.
func (s *Session) Reset() {
	s.mu.Lock()
	s.resetLocked()
	evt := s.eventLocked(EventLifecycle)
	s.mu.Unlock()

	s.publish(evt)
}

// Close releases the subscription and timer and refuses further use.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.closed = true
	s.mu.Unlock()
}

// SetMode changes the transport mode recorded when the session is saved.
func (s *Session) SetMode(mode transport.Mode) {
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) handleSample(gen uint64, p geo.Point) {
	s.mu.Lock()
	if s.lifecycle != Active || gen != s.generation {
		s.mu.Unlock()
		samplesTotal.WithLabelValues("discarded").Inc()
		return
	}
	if n := len(s.path); n > 0 {
		s.distance += geo.DistanceMeters(s.path[n-1], p)
	}
	s.path = append(s.path, p)
	evt := s.eventLocked(EventMetrics)
	s.mu.Unlock()

	samplesTotal.WithLabelValues("accepted").Inc()
	s.publish(evt)
}

// handleError surfaces a geolocation failure. The lifecycle is unchanged.
func (s *Session) handleError(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.generation || !s.subscribed {
		s.mu.Unlock()
		return
	}
	s.lastErr = err.Error()
	evt := s.eventLocked(EventError)
	evt.Error = s.lastErr
	s.mu.Unlock()

	log.Printf("tracking geolocation error: %v", err)
	s.publish(evt)
}

func (s *Session) subscribeLocked() error {
	if s.geo == nil {
		return errors.New("no geolocation provider")
	}
	s.generation++
	gen := s.generation
	sub, err := s.geo.Subscribe(
		func(p geo.Point) { s.handleSample(gen, p) },
		func(err error) { s.handleError(gen, err) },
	)
	if err != nil {
		return fmt.Errorf("subscribe to positions: %w", err)
	}
	s.sub = sub
	s.subscribed = true
	return nil
}

// releaseLocked drops the subscription and ticker. Bumping the generation
// invalidates callbacks already in flight.
func (s *Session) releaseLocked() {
	s.generation++
	if s.subscribed {
		s.geo.Unsubscribe(s.sub)
		s.subscribed = false
	}
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

func (s *Session) resetLocked() {
	s.releaseLocked()
	s.path = []geo.Point{}
	s.distance = 0
	s.lastErr = ""
	s.clock.Reset()
	s.lifecycle = Idle
}

func (s *Session) startTickerLocked() {
	if s.tick <= 0 {
		return
	}
	stop := make(chan struct{})
	s.stopTick = stop
	go s.runTicker(stop, s.tick)
}

func (s *Session) runTicker(stop chan struct{}, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			s.mu.Lock()
			if s.stopTick != stop {
				s.mu.Unlock()
				return
			}
			evt := s.eventLocked(EventMetrics)
			s.mu.Unlock()
			s.publish(evt)
		}
	}
}

func (s *Session) metricsLocked() Metrics {
	return Metrics{
		DistanceMeters: s.distance,
		DistanceMiles:  roundTo(geo.MetersToMiles(s.distance), 2),
		ElapsedMillis:  s.clock.Elapsed().Milliseconds(),
		Points:         len(s.path),
	}
}

func (s *Session) snapshotLocked() Snapshot {
	path := make([]geo.Point, len(s.path))
	copy(path, s.path)
	return Snapshot{
		Lifecycle: s.lifecycle,
		Mode:      s.mode,
		Path:      path,
		LastError: s.lastErr,
		Metrics:   s.metricsLocked(),
	}
}

func (s *Session) eventLocked(kind string) Event {
	return Event{Type: kind, Lifecycle: s.lifecycle, Metrics: s.metricsLocked()}
}

func (s *Session) recordLocked(d Decision) library.Record {
	path := make([]geo.Point, len(s.path))
	copy(path, s.path)
	start, end := path[0], path[len(path)-1]
	minutes := int(math.Round(float64(s.clock.Elapsed().Milliseconds()) / 60000))
	now := s.now().UTC()

	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = "Tracked " + string(s.mode) + " " + now.Format("Jan 2 15:04")
	}
	return library.Record{
		ID:            s.newID(),
		OwnerID:       s.owner,
		Title:         title,
		Origin:        formatPoint(start),
		Destination:   formatPoint(end),
		DistanceText:  fmt.Sprintf("%.2f mi", geo.MetersToMiles(s.distance)),
		DurationText:  transport.FormatMinutes(minutes),
		TransportMode: s.mode,
		IsPublic:      d.Public,
		CreatedAt:     now,
		UpdatedAt:     now,
		Path:          path,
	}
}

func (s *Session) publish(evt Event) {
	if s.emit != nil {
		s.emit.Emit(evt)
	}
}

func ask(ctx context.Context, prompt Prompt, summary Snapshot) (Decision, error) {
	type answer struct {
		decision Decision
		err      error
	}
	ch := make(chan answer, 1)
	go func() {
		d, err := prompt(ctx, summary)
		ch <- answer{d, err}
	}()
	select {
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	case a := <-ch:
		return a.decision, a.err
	}
}

func formatPoint(p geo.Point) string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
