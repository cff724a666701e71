package library

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend-colatrails/internal/transport"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

var recordColumnNames = []string{"id", "owner_id", "title", "origin", "destination", "distance_text", "duration_text", "transport_mode", "is_public", "review", "path", "created_at", "updated_at"}

func newMockStore(t *testing.T, notify Notifier) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock, notify), mock
}

func TestPostgresStoreAppendAndList(t *testing.T) {
	notifier := &recordingNotifier{}
	store, mock := newMockStore(t, notifier)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord("r1", at)

	mock.ExpectExec(`INSERT INTO route_records`).
		WithArgs("r1", "user-1", rec.Title, "Library", "Quad", "0.40 mi", "8 min", "walk", false, pgxmock.AnyArg(), pgxmock.AnyArg(), at, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := store.Append(context.Background(), rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	mock.ExpectQuery(`SELECT .* FROM route_records ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(recordColumnNames).
			AddRow("r2", "user-2", "Quad → Gym", "Quad", "Gym", "1.1 mi", "6 mins", "bike", true,
				[]byte(`{"stars":4,"terrain":7,"comment":"smooth"}`), []byte(nil), at, at).
			AddRow("r1", "user-1", rec.Title, "Library", "Quad", "0.40 mi", "8 min", "walk", false,
				[]byte(nil), []byte(`[{"lat":34.0689,"lng":-118.4452}]`), at, at))

	records, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 || records[0].ID != "r2" || records[1].OwnerID != "user-1" {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].TransportMode != transport.Bike || records[0].Review == nil || records[0].Review.Terrain != 7 {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].Review != nil || len(records[1].Path) != 1 {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
	if len(notifier.events) != 1 || notifier.events[0].Op != "append" {
		t.Fatalf("expected append event, got %+v", notifier.events)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreAppendDuplicate(t *testing.T) {
	store, mock := newMockStore(t, nil)
	mock.ExpectExec(`INSERT INTO route_records`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := store.Append(context.Background(), sampleRecord("r1", time.Now()))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	store, mock := newMockStore(t, nil)
	mock.ExpectQuery(`SELECT .* FROM route_records WHERE id=\$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresStoreUpdate(t *testing.T) {
	store, mock := newMockStore(t, nil)
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	title := "Renamed"

	mock.ExpectQuery(`UPDATE route_records`).
		WithArgs("r1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), fixed).
		WillReturnRows(pgxmock.NewRows(recordColumnNames).
			AddRow("r1", "user-1", title, "Library", "Quad", "0.40 mi", "8 min", "walk", false, []byte(nil), []byte(nil), fixed, fixed))

	updated, err := store.UpdateByID(context.Background(), "r1", Patch{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != title {
		t.Fatalf("unexpected title %q", updated.Title)
	}

	mock.ExpectQuery(`UPDATE route_records`).
		WithArgs("nope", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), fixed).
		WillReturnError(pgx.ErrNoRows)
	if _, err := store.UpdateByID(context.Background(), "nope", Patch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreDeleteAndClear(t *testing.T) {
	store, mock := newMockStore(t, nil)

	mock.ExpectExec(`DELETE FROM route_records WHERE id=\$1`).WithArgs("r1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	if err := store.DeleteByID(context.Background(), "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(`DELETE FROM route_records WHERE id=\$1`).WithArgs("r1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	if err := store.DeleteByID(context.Background(), "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectExec(`DELETE FROM route_records`).WillReturnResult(pgxmock.NewResult("DELETE", 3))
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
