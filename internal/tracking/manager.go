package tracking

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"backend-colatrails/internal/library"
)

var ErrNoSession = errors.New("no tracking session")

// Broadcaster publishes encoded events on a topic.
type Broadcaster interface {
	Broadcast(topic string, payload []byte)
}

// Handle pairs a user's session with the feed their samples arrive on.
type Handle struct {
	Session *Session
	Feed    *Feed
}

// Manager holds one tracking session per user.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Handle
	store    library.Store
	hub      Broadcaster
	tick     time.Duration
	now      func() time.Time
}

func NewManager(store library.Store, hub Broadcaster, tick time.Duration) *Manager {
	return &Manager{
		sessions: map[string]*Handle{},
		store:    store,
		hub:      hub,
		tick:     tick,
		now:      time.Now,
	}
}

func Topic(userID string) string {
	return "tracking:" + userID
}

// Open returns the user's session, creating it on first use.
func (m *Manager) Open(userID string) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.sessions[userID]; ok {
		return h
	}

	feed := NewFeed()
	h := &Handle{
		Feed: feed,
		Session: NewSession(Options{
			OwnerID:    userID,
			Geolocator: feed,
			Store:      m.store,
			Emitter:    m.emitter(Topic(userID)),
			Tick:       m.tick,
			Now:        m.now,
		}),
	}
	m.sessions[userID] = h
	openSessions.Inc()
	return h
}

func (m *Manager) Get(userID string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return h, nil
}

// Release closes and forgets the user's session.
func (m *Manager) Release(userID string) error {
	m.mu.Lock()
	h, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	h.Session.Close()
	openSessions.Dec()
	return nil
}

// Close releases every session.
func (m *Manager) Close() {
	m.mu.Lock()
	handles := m.sessions
	m.sessions = map[string]*Handle{}
	m.mu.Unlock()

	for _, h := range handles {
		h.Session.Close()
		openSessions.Dec()
	}
}

func (m *Manager) emitter(topic string) Emitter {
	if m.hub == nil {
		return nil
	}
	return EmitterFunc(func(evt Event) {
		payload, err := json.Marshal(evt)
		if err != nil {
			log.Printf("tracking event encode: %v", err)
			return
		}
		m.hub.Broadcast(topic, payload)
	})
}
