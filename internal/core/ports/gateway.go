package ports

import (
	"context"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// POILister fetches the full POI collection from the backend.
type POILister interface {
	List(ctx context.Context) ([]domain.POI, error)
}

// POIGateway is the client-side view of the POI backend.
// Update does not return the edited record; callers refresh the list.
type POIGateway interface {
	POILister
	Create(ctx context.Context, poi domain.NewPOI) (*domain.POI, error)
	Update(ctx context.Context, id string, update domain.POIUpdate) error
	Delete(ctx context.Context, id string) error
}
