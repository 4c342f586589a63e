// Package mapview binds the POI list to markers on an interactive map.
//
// The map engine itself is reached only through the Renderer, Surface and
// Marker interfaces. Engine handles never leave this package.
package mapview

import (
	"errors"
	"time"

	"github.com/samirrijal/poimap/internal/core/domain"
)

const (
	DefaultStyle = "streets-v12"
	DefaultZoom  = 12

	// CenterOn flies to this zoom level.
	FocusZoom     = 15
	FlyToDuration = 1000 * time.Millisecond
)

// DefaultCenter is the initial viewport center (New York City).
var DefaultCenter = domain.GeoPoint{Lat: 40.7128, Lon: -74.006}

var (
	ErrNoAccessToken  = errors.New("mapview: access token is required")
	ErrAlreadyMounted = errors.New("mapview: already mounted")
)

// ElementID identifies the on-screen element a click landed on.
// The zero value means the bare map canvas.
type ElementID string

// ScreenPoint is a position in surface pixels.
type ScreenPoint struct {
	X float64
	Y float64
}

// ClickEvent is a click on the map surface. Target is the element under the
// pointer; clicks that land on a marker also reach the surface.
type ClickEvent struct {
	Point  domain.GeoPoint
	Target ElementID
}

// MarkerKind distinguishes persisted POI markers from the draft marker.
type MarkerKind int

const (
	MarkerPOI MarkerKind = iota
	MarkerDraft
)

func (k MarkerKind) String() string {
	if k == MarkerDraft {
		return "draft"
	}
	return "poi"
}

// Options configures a map instance. The access token is passed explicitly.
type Options struct {
	AccessToken string
	Style       string
	Center      domain.GeoPoint
	Zoom        float64
}

// DefaultOptions returns the standard viewport for the given token.
func DefaultOptions(accessToken string) Options {
	return Options{
		AccessToken: accessToken,
		Style:       DefaultStyle,
		Center:      DefaultCenter,
		Zoom:        DefaultZoom,
	}
}

// Renderer constructs map surfaces.
type Renderer interface {
	NewSurface(opts Options) (Surface, error)
}

// Surface is one live map instance.
type Surface interface {
	// AddMarker places a marker. onClick fires when the marker itself is clicked.
	AddMarker(at domain.GeoPoint, kind MarkerKind, onClick func()) Marker
	OnClick(fn func(ClickEvent))
	FlyTo(center domain.GeoPoint, zoom float64, duration time.Duration)
	SetStyle(style string)
	Project(p domain.GeoPoint) ScreenPoint
	// Remove releases the map. The surface is unusable afterwards.
	Remove()
}

// Marker is a single placed marker.
type Marker interface {
	Element() ElementID
	Position() domain.GeoPoint
	SetPosition(p domain.GeoPoint)
	Remove()
}

// Events are the View's outbound notifications. Both run without any View
// lock held.
type Events struct {
	// OnMapClick reports a click on empty map area after the draft marker
	// has been placed or moved there.
	OnMapClick func(p domain.GeoPoint)
	// OnMarkerClick reports a click on the marker of the given POI.
	OnMarkerClick func(poiID string)
}
