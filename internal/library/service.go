package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend-colatrails/internal/transport"

	"github.com/google/uuid"
)

const (
	maxStars       = 5
	maxTerrain     = 10
	defaultTerrain = 5
)

type Service struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now, newID: uuid.NewString}
}

func (s *Service) Store() Store {
	return s.store
}

// SaveCalculated stores a provider-routed route for ownerID. The title
// defaults to "origin → destination".
func (s *Service) SaveCalculated(ctx context.Context, ownerID string, req SaveRequest) (Record, error) {
	origin := strings.TrimSpace(req.Origin)
	destination := strings.TrimSpace(req.Destination)
	if origin == "" || destination == "" {
		return Record{}, fmt.Errorf("%w: please calculate a route before saving", ErrValidation)
	}
	mode, err := transport.ParseMode(req.TransportMode)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = origin + " → " + destination
	}

	now := s.now().UTC()
	record := Record{
		ID:            s.newID(),
		OwnerID:       ownerID,
		Title:         title,
		Origin:        origin,
		Destination:   destination,
		DistanceText:  req.DistanceText,
		DurationText:  req.DurationText,
		TransportMode: mode,
		IsPublic:      req.IsPublic,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.Append(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Search returns ownerID's records whose title, origin or destination contain
// query, ignoring case. A blank query returns all of them.
func (s *Service) Search(ctx context.Context, ownerID, query string) ([]Record, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	matched := []Record{}
	for _, r := range records {
		if !ownedBy(r, ownerID) {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(r.Title), q) ||
			strings.Contains(strings.ToLower(r.Origin), q) ||
			strings.Contains(strings.ToLower(r.Destination), q) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Public is the explore feed.
func (s *Service) Public(ctx context.Context) ([]Record, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	public := []Record{}
	for _, r := range records {
		if r.IsPublic {
			public = append(public, r)
		}
	}
	return public, nil
}

// Get returns a record the viewer owns or one that is public. Private records
// of other users read as missing.
func (s *Service) Get(ctx context.Context, viewerID, id string) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !r.IsPublic && !ownedBy(r, viewerID) {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *Service) owned(ctx context.Context, ownerID, id string) error {
	r, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !ownedBy(r, ownerID) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) UpdateSettings(ctx context.Context, ownerID, id string, req SettingsRequest) (Record, error) {
	var patch Patch
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return Record{}, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		patch.Title = &title
	}
	if req.TransportMode != nil {
		mode, err := transport.ParseMode(*req.TransportMode)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		patch.Mode = &mode
	}
	patch.Public = req.IsPublic
	if err := s.owned(ctx, ownerID, id); err != nil {
		return Record{}, err
	}
	return s.store.UpdateByID(ctx, id, patch)
}

// SubmitReview overwrites any previous review on the record.
func (s *Service) SubmitReview(ctx context.Context, ownerID, id string, req ReviewRequest) (Record, error) {
	terrain := defaultTerrain
	if req.Terrain != nil {
		terrain = *req.Terrain
	}
	if req.Stars < 0 || req.Stars > maxStars {
		return Record{}, fmt.Errorf("%w: stars must be between 0 and %d", ErrValidation, maxStars)
	}
	if terrain < 0 || terrain > maxTerrain {
		return Record{}, fmt.Errorf("%w: terrain must be between 0 and %d", ErrValidation, maxTerrain)
	}
	if err := s.owned(ctx, ownerID, id); err != nil {
		return Record{}, err
	}

	patch := Patch{
		Review: &Review{
			Stars:     req.Stars,
			Terrain:   terrain,
			Comment:   strings.TrimSpace(req.Comment),
			UpdatedAt: s.now().UTC(),
		},
		Public: req.IsPublic,
	}
	return s.store.UpdateByID(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	return s.store.DeleteByID(ctx, id)
}

// Clear removes ownerID's records. An unreadable collection is dropped
// entirely since no record in it can be attributed to anyone.
func (s *Service) Clear(ctx context.Context, ownerID string) error {
	records, err := s.store.ListAll(ctx)
	if IsCorrupt(err) {
		return s.store.Clear(ctx)
	}
	if err != nil {
		return err
	}
	for _, r := range records {
		if !ownedBy(r, ownerID) {
			continue
		}
		if err := s.store.DeleteByID(ctx, r.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

func ownedBy(r Record, userID string) bool {
	return userID != "" && r.OwnerID == userID
}
