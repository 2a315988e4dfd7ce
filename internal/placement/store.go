// Package placement keeps the in-memory collection of signature placements
// for the document currently open in an editing session, consistent with
// the persistence layer.
package placement

import (
	"context"
	"fmt"
	"log"
	"sync"

	"signhub/internal/models"
)

// RectUpdate is a position change with an optional new footprint.
type RectUpdate struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

// Repository is the persistence surface the store syncs against.
type Repository interface {
	List(ctx context.Context, documentID string) ([]models.Signature, error)
	Create(ctx context.Context, sig *models.Signature) (*models.Signature, error)
	UpdateRect(ctx context.Context, id string, upd RectUpdate) error
	Delete(ctx context.Context, id string) error
}

// Store holds the placements of one open document. Mutations go through the
// repository first; local state is never updated speculatively, so a failed
// create or delete leaves the collection untouched.
type Store struct {
	repo Repository

	mu         sync.RWMutex
	documentID string
	sigs       []models.Signature

	// onError receives persistence failures from fire-and-forget updates.
	onError func(error)
}

func NewStore(repo Repository) *Store {
	return &Store{
		repo:    repo,
		onError: func(err error) { log.Printf("placement update failed: %v", err) },
	}
}

// OnError replaces the handler invoked when a fire-and-forget rect update
// fails. The intended change is surfaced, never silently dropped.
func (s *Store) OnError(fn func(error)) {
	if fn != nil {
		s.onError = fn
	}
}

// Load fetches all placements for the document and replaces the local
// collection wholesale. There is no incremental merge; the last load wins.
func (s *Store) Load(ctx context.Context, documentID string) error {
	sigs, err := s.repo.List(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load placements: %w", err)
	}

	s.mu.Lock()
	s.documentID = documentID
	s.sigs = sigs
	s.mu.Unlock()
	return nil
}

// Add persists the placement and appends it locally only after the remote
// creation succeeded.
func (s *Store) Add(ctx context.Context, sig *models.Signature) (*models.Signature, error) {
	saved, err := s.repo.Create(ctx, sig)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sigs = append(s.sigs, *saved)
	s.mu.Unlock()
	return saved, nil
}

// UpdateRect persists a position/size change without blocking the caller.
// The overlay controller owns the visual position during a drag, so the
// local record is refreshed in the background once the write lands.
func (s *Store) UpdateRect(ctx context.Context, id string, upd RectUpdate) {
	go func() {
		if err := s.repo.UpdateRect(ctx, id, upd); err != nil {
			s.onError(fmt.Errorf("placement %s: %w", id, err))
			return
		}

		s.mu.Lock()
		for i := range s.sigs {
			if s.sigs[i].ID != id {
				continue
			}
			s.sigs[i].X = upd.X
			s.sigs[i].Y = upd.Y
			if upd.Width != nil {
				s.sigs[i].Width = *upd.Width
			}
			if upd.Height != nil {
				s.sigs[i].Height = *upd.Height
			}
			break
		}
		s.mu.Unlock()
	}()
}

// Remove deletes the placement remotely, then locally.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	for i := range s.sigs {
		if s.sigs[i].ID == id {
			s.sigs = append(s.sigs[:i], s.sigs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// ByPage returns a snapshot of the placements on one page.
func (s *Store) ByPage(pageNumber int) []models.Signature {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Signature
	for _, sig := range s.sigs {
		if sig.PageNumber == pageNumber {
			out = append(out, sig)
		}
	}
	return out
}

// All returns a snapshot of every placement for the loaded document.
func (s *Store) All() []models.Signature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Signature, len(s.sigs))
	copy(out, s.sigs)
	return out
}

// DocumentID reports the document the store is currently loaded for.
func (s *Store) DocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentID
}
