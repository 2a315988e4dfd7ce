package overlay

import (
	"context"
	"sync"
	"testing"
	"time"

	"signhub/internal/geom"
	"signhub/internal/models"
	"signhub/internal/placement"

	"github.com/stretchr/testify/require"
)

type sessionRepo struct {
	mu      sync.Mutex
	sigs    []models.Signature
	updates map[string]placement.RectUpdate
}

func (r *sessionRepo) List(ctx context.Context, documentID string) ([]models.Signature, error) {
	return r.sigs, nil
}

func (r *sessionRepo) Create(ctx context.Context, sig *models.Signature) (*models.Signature, error) {
	return sig, nil
}

func (r *sessionRepo) UpdateRect(ctx context.Context, id string, upd placement.RectUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[id] = upd
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *sessionRepo) update(id string) (placement.RectUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	upd, ok := r.updates[id]
	return upd, ok
}

func TestSessionBuildsControllersPerPage(t *testing.T) {
	repo := &sessionRepo{
		sigs: []models.Signature{
			{ID: "a", PageNumber: 1, X: 10, Y: 20, Width: 160, Height: 64},
			{ID: "b", PageNumber: 2, X: 30, Y: 40, Width: 160, Height: 64},
		},
		updates: make(map[string]placement.RectUpdate),
	}
	store := placement.NewStore(repo)
	require.NoError(t, store.Load(context.Background(), "doc-1"))

	sess := NewSession(store)
	page := geom.Rect{Left: 100, Top: 50, Width: 1000, Height: 1294}
	container := geom.Rect{Left: 0, Top: 0, Width: 1200, Height: 900}
	sess.SetPage(1, page, container)

	_, ok := sess.Controller("a")
	require.True(t, ok)
	_, ok = sess.Controller("b")
	require.False(t, ok, "other pages get no controllers")

	sess.SetPage(2, page, container)
	_, ok = sess.Controller("b")
	require.True(t, ok)
}

func TestSessionForwardsDragToStore(t *testing.T) {
	repo := &sessionRepo{
		sigs:    []models.Signature{{ID: "a", PageNumber: 1, X: 10, Y: 20, Width: 160, Height: 64}},
		updates: make(map[string]placement.RectUpdate),
	}
	store := placement.NewStore(repo)
	require.NoError(t, store.Load(context.Background(), "doc-1"))

	sess := NewSession(store)
	page := geom.Rect{Left: 100, Top: 50, Width: 1000, Height: 1294}
	container := geom.Rect{Left: 0, Top: 0, Width: 1200, Height: 900}
	sess.SetPage(1, page, container)

	c, _ := sess.Controller("a")
	c.DragEnd(25, 35)

	require.Eventually(t, func() bool {
		upd, ok := repo.update("a")
		return ok && upd.X == 35 && upd.Y == 55
	}, time.Second, 5*time.Millisecond)

	upd, _ := repo.update("a")
	require.Nil(t, upd.Width)
	require.Nil(t, upd.Height)
}

func TestSessionPreservesLockAcrossPageRebuild(t *testing.T) {
	repo := &sessionRepo{
		sigs:    []models.Signature{{ID: "a", PageNumber: 1, X: 10, Y: 20, Width: 160, Height: 64}},
		updates: make(map[string]placement.RectUpdate),
	}
	store := placement.NewStore(repo)
	require.NoError(t, store.Load(context.Background(), "doc-1"))

	sess := NewSession(store)
	page := geom.Rect{Left: 100, Top: 50, Width: 1000, Height: 1294}
	container := geom.Rect{Left: 0, Top: 0, Width: 1200, Height: 900}
	sess.SetPage(1, page, container)

	c, _ := sess.Controller("a")
	c.SetLocked(true)

	// rebuild after a render pass; the interactive lock survives
	sess.SetPage(1, page, container)
	c, _ = sess.Controller("a")
	require.True(t, c.Locked())
}
