package library

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("route not found")
	ErrDuplicate  = errors.New("route id already exists")
	ErrCorrupt    = errors.New("saved routes are unreadable")
	ErrValidation = errors.New("invalid route input")
	ErrForbidden  = errors.New("route belongs to another user")
)

// Store is the saved-route collection. Each operation is an atomic
// read-modify-write on the collection.
type Store interface {
	Append(ctx context.Context, record Record) error
	ListAll(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	UpdateByID(ctx context.Context, id string, patch Patch) (Record, error)
	DeleteByID(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Notifier receives change events for other readers of the collection.
type Notifier interface {
	Broadcast(topic string, payload []byte)
}

const ChangeTopic = "library"
