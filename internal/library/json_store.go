package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// JSONStore keeps the whole library as one JSON array under a fixed key,
// newest record first.
type JSONStore struct {
	kv     KV
	key    string
	notify Notifier
	now    func() time.Time
}

func NewJSONStore(kv KV, key string, notify Notifier) *JSONStore {
	return &JSONStore{kv: kv, key: key, notify: notify, now: time.Now}
}

func (s *JSONStore) Append(ctx context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("%w: id required", ErrValidation)
	}
	err := s.mutate(ctx, func(records []Record) ([]Record, error) {
		for _, r := range records {
			if r.ID == record.ID {
				return nil, ErrDuplicate
			}
		}
		return append([]Record{record}, records...), nil
	})
	if err != nil {
		return err
	}
	s.changed("append", record.ID)
	return nil
}

func (s *JSONStore) ListAll(ctx context.Context) ([]Record, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	return s.decode(raw)
}

func (s *JSONStore) Get(ctx context.Context, id string) (Record, error) {
	records, err := s.ListAll(ctx)
	if err != nil {
		return Record{}, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (s *JSONStore) UpdateByID(ctx context.Context, id string, patch Patch) (Record, error) {
	var updated Record
	err := s.mutate(ctx, func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].ID == id {
				patch.apply(&records[i], s.now())
				updated = records[i]
				return records, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Record{}, err
	}
	s.changed("update", id)
	return updated, nil
}

func (s *JSONStore) DeleteByID(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(records []Record) ([]Record, error) {
		for i := range records {
			if records[i].ID == id {
				return append(records[:i:i], records[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return err
	}
	s.changed("delete", id)
	return nil
}

// Clear drops the stored collection, including an unreadable one.
func (s *JSONStore) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return err
	}
	s.changed("clear", "")
	return nil
}

func (s *JSONStore) mutate(ctx context.Context, fn func([]Record) ([]Record, error)) error {
	return s.kv.Update(ctx, s.key, func(current []byte) ([]byte, error) {
		records, err := s.decode(current)
		if err != nil {
			return nil, err
		}
		next, err := fn(records)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

// decode never discards an unreadable collection: the caller gets ErrCorrupt
// and writes are refused until the collection is cleared.
func (s *JSONStore) decode(raw []byte) ([]Record, error) {
	records := []Record{}
	if len(raw) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		log.Printf("library %s: malformed stored json: %v", s.key, err)
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (s *JSONStore) changed(op, id string) {
	if s.notify == nil {
		return
	}
	payload, err := json.Marshal(ChangeEvent{Type: "library_changed", Op: op, ID: id})
	if err != nil {
		log.Printf("library change event: %v", err)
		return
	}
	s.notify.Broadcast(ChangeTopic, payload)
}

// IsCorrupt reports whether err came from an unreadable collection.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorrupt)
}
