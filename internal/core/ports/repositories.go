package ports

import (
	"context"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// POIRepository persists points of interest.
// Implementations return domain.ErrNotFound for unknown ids.
type POIRepository interface {
	List(ctx context.Context) ([]domain.POI, error)
	GetByID(ctx context.Context, id string) (*domain.POI, error)
	// Create assigns ID and timestamps on poi.
	Create(ctx context.Context, poi *domain.POI) error
	Update(ctx context.Context, id string, update domain.POIUpdate) (*domain.POI, error)
	Delete(ctx context.Context, id string) error
}

// POIBatchWriter is implemented by repositories that can insert many POIs in
// one round trip. It fills in id and timestamps on every element.
type POIBatchWriter interface {
	CreateBatch(ctx context.Context, pois []*domain.POI) error
}
