package tracking

import (
	"errors"
	"sync"

	"backend-colatrails/internal/shared/geo"
)

var ErrFeedBusy = errors.New("position feed already has a subscriber")

// Feed is a Geolocator fed by clients that push their own positions, one
// subscriber at a time. Callbacks run on the pushing goroutine.
type Feed struct {
	mu       sync.Mutex
	next     Subscription
	current  Subscription
	onSample func(geo.Point)
	onError  func(error)
}

func NewFeed() *Feed {
	return &Feed{}
}

func (f *Feed) Subscribe(onSample func(geo.Point), onError func(error)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current != 0 {
		return 0, ErrFeedBusy
	}
	f.next++
	f.current = f.next
	f.onSample = onSample
	f.onError = onError
	return f.current, nil
}

func (f *Feed) Unsubscribe(sub Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub != f.current {
		return
	}
	f.current = 0
	f.onSample = nil
	f.onError = nil
}

// Push delivers a sample and reports whether anyone was listening.
func (f *Feed) Push(p geo.Point) bool {
	f.mu.Lock()
	cb := f.onSample
	f.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(p)
	return true
}

// Fail delivers a geolocation error and reports whether anyone was listening.
func (f *Feed) Fail(err error) bool {
	f.mu.Lock()
	cb := f.onError
	f.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(err)
	return true
}
