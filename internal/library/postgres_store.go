package library

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-colatrails/internal/db"
	"backend-colatrails/internal/transport"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const recordColumns = `id, owner_id, title, origin, destination, distance_text, duration_text, transport_mode, is_public, review, path, created_at, updated_at`

// PostgresStore keeps records in the route_records table.
type PostgresStore struct {
	db     db.Querier
	notify Notifier
	now    func() time.Time
}

func NewPostgresStore(q db.Querier, notify Notifier) *PostgresStore {
	return &PostgresStore{db: q, notify: notify, now: time.Now}
}

func (s *PostgresStore) Append(ctx context.Context, r Record) error {
	review, err := marshalNullable(r.Review)
	if err != nil {
		return err
	}
	path, err := marshalNullable(r.Path)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO route_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, r.ID, r.OwnerID, r.Title, r.Origin, r.Destination, r.DistanceText, r.DurationText, string(r.TransportMode), r.IsPublic, review, path, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	s.changed("append", r.ID)
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx, `SELECT `+recordColumns+` FROM route_records ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRow(ctx, `SELECT `+recordColumns+` FROM route_records WHERE id=$1`, id)
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) UpdateByID(ctx context.Context, id string, patch Patch) (Record, error) {
	var mode *string
	if patch.Mode != nil {
		m := string(*patch.Mode)
		mode = &m
	}
	var review []byte
	if patch.Review != nil {
		raw, err := json.Marshal(patch.Review)
		if err != nil {
			return Record{}, err
		}
		review = raw
	}

	row := s.db.QueryRow(ctx, `
		UPDATE route_records
		SET title = COALESCE($2, title),
		    transport_mode = COALESCE($3, transport_mode),
		    is_public = COALESCE($4, is_public),
		    review = COALESCE($5::jsonb, review),
		    updated_at = $6
		WHERE id=$1
		RETURNING `+recordColumns, id, patch.Title, mode, patch.Public, review, s.now())
	r, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	s.changed("update", id)
	return r, nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM route_records WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.changed("delete", id)
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM route_records`); err != nil {
		return err
	}
	s.changed("clear", "")
	return nil
}

func (s *PostgresStore) changed(op, id string) {
	if s.notify == nil {
		return
	}
	payload, _ := json.Marshal(ChangeEvent{Type: "library_changed", Op: op, ID: id})
	s.notify.Broadcast(ChangeTopic, payload)
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		r            Record
		mode         string
		review, path []byte
	)
	err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Origin, &r.Destination, &r.DistanceText, &r.DurationText, &mode, &r.IsPublic, &review, &path, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	r.TransportMode = transport.Mode(mode)
	if len(review) > 0 {
		if err := json.Unmarshal(review, &r.Review); err != nil {
			return Record{}, err
		}
	}
	if len(path) > 0 {
		if err := json.Unmarshal(path, &r.Path); err != nil {
			return Record{}, err
		}
	}
	return r, nil
}

func marshalNullable[T any](v T) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return nil, err
	}
	return raw, nil
}
