package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/ports"
	"github.com/samirrijal/poimap/internal/pkg/geospatial"
	"github.com/samirrijal/poimap/internal/pkg/metrics"
	"github.com/samirrijal/poimap/internal/pkg/telemetry"
)

const (
	listCacheKey = "pois:all"
	listCacheTTL = 60 // seconds

	// listGenKey holds the current list generation. Writes replace it, so a
	// list read that raced a write stores its result under a dead key.
	listGenKey = "pois:gen"
	listGenTTL = 24 * 60 * 60

	// MaxNearbyRadius caps the radius accepted by FindNearby, in meters.
	MaxNearbyRadius = 50_000.0
)

var tracer = otel.Tracer("poimap/usecases")

// POIService handles POI business logic: validation, caching and change events.
type POIService struct {
	pois      ports.POIRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewPOIService creates a new POIService. cache and publisher may be nil.
func NewPOIService(pois ports.POIRepository, cache ports.CacheService, publisher ports.EventPublisher) *POIService {
	return &POIService{pois: pois, cache: cache, publisher: publisher, now: time.Now}
}

// List returns every POI, served from cache when possible.
func (s *POIService) List(ctx context.Context) ([]domain.POI, error) {
	ctx, span := tracer.Start(ctx, "POIService.List")
	defer span.End()

	var key string
	cached := false
	if s.cache != nil {
		key, cached = s.listKey(ctx)
	}
	if cached {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var pois []domain.POI
			if err := json.Unmarshal(data, &pois); err == nil {
				metrics.CacheHits.WithLabelValues("pois_list").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return pois, nil
			}
		} else if !errors.Is(err, ports.ErrCacheMiss) {
			slog.WarnContext(ctx, "poi cache read failed", "error", err)
		}
		metrics.CacheMisses.WithLabelValues("pois_list").Inc()
	}

	pois, err := s.pois.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list pois: %w", err)
	}
	if pois == nil {
		pois = []domain.POI{}
	}

	if cached {
		if data, err := json.Marshal(pois); err == nil {
			_ = s.cache.Set(ctx, key, data, listCacheTTL)
		}
	}

	span.SetAttributes(attribute.Int(telemetry.AttrPOICount, len(pois)))
	return pois, nil
}

// FindNearby returns POIs within radiusMeters of the point, nearest first.
// Each result carries its distance in meters.
func (s *POIService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64) ([]domain.POI, error) {
	if !geospatial.ValidLatitude(lat) || !geospatial.ValidLongitude(lon) {
		return nil, domain.ValidationErrors{{Field: "lat/lon", Message: "must be valid coordinates"}}
	}
	if radiusMeters <= 0 || radiusMeters > MaxNearbyRadius {
		return nil, domain.ValidationErrors{{Field: "radius", Message: fmt.Sprintf("must be between 0 and %.0f meters", MaxNearbyRadius)}}
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusMeters)
	out := make([]domain.POI, 0)
	for _, p := range all {
		// The box is only a prefilter; it does not wrap the antimeridian.
		if maxLon <= 180 && minLon >= -180 && !geospatial.InBox(p.Latitude, p.Longitude, minLat, minLon, maxLat, maxLon) {
			continue
		}
		d := geospatial.Haversine(lat, lon, p.Latitude, p.Longitude)
		if d > radiusMeters {
			continue
		}
		p.Distance = &d
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	return out, nil
}

// GetByID returns a single POI.
func (s *POIService) GetByID(ctx context.Context, id string) (*domain.POI, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.pois.GetByID(ctx, id)
}

// Create validates and stores a new POI.
func (s *POIService) Create(ctx context.Context, in domain.NewPOI) (*domain.POI, error) {
	ctx, span := tracer.Start(ctx, "POIService.Create")
	defer span.End()

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		metrics.POIMutations.WithLabelValues("create", "invalid").Inc()
		return nil, err
	}

	poi := &domain.POI{
		Title:       in.Title,
		Description: in.Description,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	if err := s.pois.Create(ctx, poi); err != nil {
		metrics.POIMutations.WithLabelValues("create", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("create poi: %w", err)
	}

	span.SetAttributes(attribute.String(telemetry.AttrPOIID, poi.ID))
	metrics.POIMutations.WithLabelValues("create", "ok").Inc()
	s.changed(ctx, domain.POICreated, poi.ID, poi)
	return poi, nil
}

// Update replaces the title and description of an existing POI.
func (s *POIService) Update(ctx context.Context, id string, in domain.POIUpdate) (*domain.POI, error) {
	ctx, span := tracer.Start(ctx, "POIService.Update")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrPOIID, id))

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		metrics.POIMutations.WithLabelValues("update", "invalid").Inc()
		return nil, err
	}

	poi, err := s.pois.Update(ctx, id, in)
	if err != nil {
		metrics.POIMutations.WithLabelValues("update", outcome(err)).Inc()
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("update poi %s: %w", id, err)
	}

	metrics.POIMutations.WithLabelValues("update", "ok").Inc()
	s.changed(ctx, domain.POIUpdated, id, poi)
	return poi, nil
}

// Delete removes a POI. Unknown ids return domain.ErrNotFound.
func (s *POIService) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "POIService.Delete")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrPOIID, id))

	if err := s.pois.Delete(ctx, id); err != nil {
		metrics.POIMutations.WithLabelValues("delete", outcome(err)).Inc()
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("delete poi %s: %w", id, err)
	}

	metrics.POIMutations.WithLabelValues("delete", "ok").Inc()
	s.changed(ctx, domain.POIDeleted, id, nil)
	return nil
}

// ImportRejection is an input row that failed validation.
type ImportRejection struct {
	Index int
	Err   error
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Created  []domain.POI
	Rejected []ImportRejection
}

// Import validates and stores many POIs at once. Invalid rows are reported in
// the result and skipped. Storage failure aborts the whole import.
func (s *POIService) Import(ctx context.Context, items []domain.NewPOI) (ImportResult, error) {
	ctx, span := tracer.Start(ctx, "POIService.Import")
	defer span.End()

	var res ImportResult
	pois := make([]*domain.POI, 0, len(items))
	for i, in := range items {
		in = in.Normalize()
		if err := in.Validate(); err != nil {
			res.Rejected = append(res.Rejected, ImportRejection{Index: i, Err: err})
			continue
		}
		pois = append(pois, &domain.POI{
			Title:       in.Title,
			Description: in.Description,
			Latitude:    in.Latitude,
			Longitude:   in.Longitude,
		})
	}
	metrics.POIMutations.WithLabelValues("import", "invalid").Add(float64(len(res.Rejected)))
	if len(pois) == 0 {
		return res, nil
	}

	if err := s.createAll(ctx, pois); err != nil {
		metrics.POIMutations.WithLabelValues("import", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, fmt.Errorf("import pois: %w", err)
	}

	res.Created = make([]domain.POI, len(pois))
	for i, p := range pois {
		res.Created[i] = *p
	}
	span.SetAttributes(attribute.Int(telemetry.AttrPOICount, len(pois)))
	metrics.POIMutations.WithLabelValues("import", "ok").Add(float64(len(pois)))

	s.invalidate(ctx)
	for _, p := range pois {
		s.publish(ctx, domain.POICreated, p.ID, p)
	}
	return res, nil
}

func (s *POIService) createAll(ctx context.Context, pois []*domain.POI) error {
	if bw, ok := s.pois.(ports.POIBatchWriter); ok {
		return bw.CreateBatch(ctx, pois)
	}
	for _, p := range pois {
		if err := s.pois.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// changed invalidates the list cache and publishes the event. Both are best effort.
func (s *POIService) changed(ctx context.Context, typ domain.POIEventType, id string, poi *domain.POI) {
	s.invalidate(ctx)
	s.publish(ctx, typ, id, poi)
}

// listKey returns the list cache key for the current generation. It reports
// false when the generation cannot be read; the caller then skips the cache.
func (s *POIService) listKey(ctx context.Context) (string, bool) {
	gen, err := s.cache.Get(ctx, listGenKey)
	if errors.Is(err, ports.ErrCacheMiss) {
		return listCacheKey, true
	}
	if err != nil {
		slog.WarnContext(ctx, "poi cache generation read failed", "error", err)
		return "", false
	}
	return listCacheKey + ":" + string(gen), true
}

func (s *POIService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	old, ok := s.listKey(ctx)
	if err := s.cache.Set(ctx, listGenKey, []byte(uuid.NewString()), listGenTTL); err != nil {
		slog.WarnContext(ctx, "poi cache generation bump failed", "error", err)
	}
	if !ok {
		return
	}
	if err := s.cache.Delete(ctx, old); err != nil {
		slog.WarnContext(ctx, "poi cache invalidation failed", "error", err)
	}
}

func (s *POIService) publish(ctx context.Context, typ domain.POIEventType, id string, poi *domain.POI) {
	if s.publisher == nil {
		return
	}
	event := domain.POIEvent{Type: typ, ID: id, POI: poi, Time: s.now().UTC()}
	if err := s.publisher.PublishPOIEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "poi event publish failed", "type", typ, "id", id, "error", err)
	}
}

func outcome(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "not_found"
	}
	return "error"
}
