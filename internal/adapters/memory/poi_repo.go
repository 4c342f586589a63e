// Package memory provides a process-local POI store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// POIRepo implements ports.POIRepository in memory.
type POIRepo struct {
	mu   sync.RWMutex
	pois map[string]domain.POI
	now  func() time.Time
}

// NewPOIRepo creates an empty POIRepo.
func NewPOIRepo() *POIRepo {
	return &POIRepo{pois: make(map[string]domain.POI), now: time.Now}
}

// List returns every POI ordered by creation time.
func (r *POIRepo) List(_ context.Context) ([]domain.POI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.POI, 0, len(r.pois))
	for _, p := range r.pois {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *POIRepo) GetByID(_ context.Context, id string) (*domain.POI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pois[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *POIRepo) Create(_ context.Context, p *domain.POI) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Distance = nil
	r.pois[p.ID] = *p
	return nil
}

func (r *POIRepo) Update(_ context.Context, id string, u domain.POIUpdate) (*domain.POI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pois[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.Title = u.Title
	p.Description = u.Description
	p.UpdatedAt = r.now().UTC()
	r.pois[id] = p
	return &p, nil
}

func (r *POIRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pois[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.pois, id)
	return nil
}

// Ping always succeeds; it lets the readiness probe treat both drivers alike.
func (r *POIRepo) Ping(context.Context) error { return nil }
