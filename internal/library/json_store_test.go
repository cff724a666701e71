package library

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"backend-colatrails/internal/shared/geo"
	"backend-colatrails/internal/transport"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
)

const testKey = "savedRoutes_v1"

type recordingNotifier struct {
	mu     sync.Mutex
	topics []string
	events []ChangeEvent
}

func (n *recordingNotifier) Broadcast(topic string, payload []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var evt ChangeEvent
	_ = json.Unmarshal(payload, &evt)
	n.topics = append(n.topics, topic)
	n.events = append(n.events, evt)
}

func sampleRecord(id string, at time.Time) Record {
	return Record{
		ID:            id,
		OwnerID:       "user-1",
		Title:         "Library → Quad",
		Origin:        "Library",
		Destination:   "Quad",
		DistanceText:  "0.40 mi",
		DurationText:  "8 min",
		TransportMode: transport.Walk,
		CreatedAt:     at,
		UpdatedAt:     at,
		Path: []geo.Point{
			{Lat: 34.0689, Lng: -118.4452},
			{Lat: 34.0700, Lng: -118.4440},
		},
	}
}

func newRedisKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKV(client), mr
}

func TestJSONStoreRoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) KV{
		"memory": func(t *testing.T) KV { return NewMemoryKV() },
		"redis": func(t *testing.T) KV {
			kv, _ := newRedisKV(t)
			return kv
		},
	}

	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewJSONStore(mk(t), testKey, nil)
			at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

			first := sampleRecord("r1", at)
			second := sampleRecord("r2", at.Add(time.Minute))
			if err := store.Append(ctx, first); err != nil {
				t.Fatalf("append first: %v", err)
			}
			if err := store.Append(ctx, second); err != nil {
				t.Fatalf("append second: %v", err)
			}

			got, err := store.ListAll(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if diff := cmp.Diff([]Record{second, first}, got); diff != "" {
				t.Fatalf("records mismatch (-want +got):\n%s", diff)
			}

			loaded, err := store.Get(ctx, "r1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if diff := cmp.Diff(first, loaded); diff != "" {
				t.Fatalf("get mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSONStoreEmpty(t *testing.T) {
	store := NewJSONStore(NewMemoryKV(), testKey, nil)
	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", records)
	}
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJSONStoreAppendValidation(t *testing.T) {
	ctx := context.Background()
	store := NewJSONStore(NewMemoryKV(), testKey, nil)
	if err := store.Append(ctx, Record{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	rec := sampleRecord("dup", time.Now())
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, rec); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestJSONStoreUpdateDeleteClear(t *testing.T) {
	ctx := context.Background()
	notifier := &recordingNotifier{}
	store := NewJSONStore(NewMemoryKV(), testKey, notifier)
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Append(ctx, sampleRecord(id, time.Now())); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	title := "Evening loop"
	public := true
	updated, err := store.UpdateByID(ctx, "b", Patch{Title: &title, Public: &public})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title || !updated.IsPublic || !updated.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected update: %+v", updated)
	}
	if _, err := store.UpdateByID(ctx, "zzz", Patch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}

	if err := store.DeleteByID(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteByID(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	records, _ := store.ListAll(ctx)
	ids := []string{}
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"c", "a"}, ids); diff != "" {
		t.Fatalf("ids after delete (-want +got):\n%s", diff)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	records, _ = store.ListAll(ctx)
	if len(records) != 0 {
		t.Fatalf("expected empty after clear, got %d", len(records))
	}

	ops := []string{}
	for i, evt := range notifier.events {
		if notifier.topics[i] != ChangeTopic || evt.Type != "library_changed" {
			t.Fatalf("unexpected event %d: %s %+v", i, notifier.topics[i], evt)
		}
		ops = append(ops, evt.Op)
	}
	want := []string{"append", "append", "append", "update", "delete", "clear"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("change events (-want +got):\n%s", diff)
	}
}

func TestJSONStoreCorruptCollection(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	kv.Set(testKey, []byte(`[{"id":`))
	store := NewJSONStore(kv, testKey, nil)

	if _, err := store.ListAll(ctx); !IsCorrupt(err) {
		t.Fatalf("expected corrupt on list, got %v", err)
	}
	if err := store.Append(ctx, sampleRecord("new", time.Now())); !IsCorrupt(err) {
		t.Fatalf("expected append to be refused, got %v", err)
	}
	raw, _ := kv.Get(ctx, testKey)
	if string(raw) != `[{"id":` {
		t.Fatalf("corrupt value was overwritten: %s", raw)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.Append(ctx, sampleRecord("new", time.Now())); err != nil {
		t.Fatalf("append after clear: %v", err)
	}
}

func TestRedisKVPersistsUnderKey(t *testing.T) {
	ctx := context.Background()
	kv, mr := newRedisKV(t)
	store := NewJSONStore(kv, testKey, nil)
	if err := store.Append(ctx, sampleRecord("r1", time.Now().UTC())); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := mr.Get(testKey)
	if err != nil {
		t.Fatalf("miniredis get: %v", err)
	}
	var stored []Record
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored value is not a json array: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != "r1" {
		t.Fatalf("unexpected stored value: %s", raw)
	}

	if err := kv.Delete(ctx, testKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(testKey) {
		t.Fatalf("expected key removed")
	}
}

func TestRedisKVConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	kv, _ := newRedisKV(t)
	store := NewJSONStore(kv, testKey, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for _, id := range []string{"w", "x", "y", "z"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			errs <- store.Append(ctx, sampleRecord(id, time.Now()))
		}(id)
	}
	wg.Wait()
	close(errs)

	failed := 0
	for err := range errs {
		if err != nil {
			failed++
		}
	}
	records, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 4-failed {
		t.Fatalf("expected %d records, got %d", 4-failed, len(records))
	}
}
