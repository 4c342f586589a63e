package telemetry

// SampleRatio is the fraction of root traces recorded.
const SampleRatio = 1.0

// Span attribute keys shared across layers.
const (
	AttrPOIID     = "poi.id"
	AttrPOICount  = "pois.count"
	AttrCacheHit  = "cache.hit"
	AttrEventType = "event.type"
	AttrRequestID = "request.id"
)
