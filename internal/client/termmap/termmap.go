// Package termmap is a text map surface for terminals. It prints map and
// marker operations as lines of text and lets the host inject clicks.
package termmap

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/poimap/internal/client/mapview"
	"github.com/samirrijal/poimap/internal/core/domain"
)

// Viewport size used for screen projection.
const (
	Width  = 800
	Height = 600
)

// Renderer creates Surfaces that print to w.
type Renderer struct {
	w io.Writer

	mu      sync.Mutex
	current *Surface
}

func New(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// NewSurface implements mapview.Renderer.
func (r *Renderer) NewSurface(opts mapview.Options) (mapview.Surface, error) {
	s := &Surface{
		w:       r.w,
		style:   opts.Style,
		center:  opts.Center,
		zoom:    opts.Zoom,
		markers: make(map[mapview.ElementID]*marker),
	}
	s.printf("map: style=%s center=%s zoom=%g", opts.Style, formatPoint(opts.Center), opts.Zoom)

	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
	return s, nil
}

// Surface returns the most recently created surface, or nil.
func (r *Renderer) Surface() *Surface {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Surface is a map instance rendered as text.
type Surface struct {
	w io.Writer

	mu      sync.Mutex
	style   string
	center  domain.GeoPoint
	zoom    float64
	markers map[mapview.ElementID]*marker
	seq     int
	onClick func(mapview.ClickEvent)
	removed bool
}

type marker struct {
	s       *Surface
	id      mapview.ElementID
	kind    mapview.MarkerKind
	onClick func()

	pos domain.GeoPoint // guarded by s.mu
}

func (s *Surface) AddMarker(at domain.GeoPoint, kind mapview.MarkerKind, onClick func()) mapview.Marker {
	s.mu.Lock()
	s.seq++
	m := &marker{
		s:       s,
		id:      mapview.ElementID(fmt.Sprintf("marker-%d", s.seq)),
		kind:    kind,
		onClick: onClick,
		pos:     at,
	}
	s.markers[m.id] = m
	s.mu.Unlock()

	s.printf("+ %s %s at %s", kind, m.id, formatPoint(at))
	return m
}

func (s *Surface) OnClick(fn func(mapview.ClickEvent)) {
	s.mu.Lock()
	s.onClick = fn
	s.mu.Unlock()
}

func (s *Surface) FlyTo(center domain.GeoPoint, zoom float64, d time.Duration) {
	s.mu.Lock()
	s.center = center
	s.zoom = zoom
	s.mu.Unlock()
	s.printf("fly to %s zoom=%g over %s", formatPoint(center), zoom, d)
}

func (s *Surface) SetStyle(style string) {
	s.mu.Lock()
	s.style = style
	s.mu.Unlock()
	s.printf("style: %s", style)
}

// Project converts p to pixels in a Web Mercator viewport of Width x Height
// centered on the current center.
func (s *Surface) Project(p domain.GeoPoint) mapview.ScreenPoint {
	s.mu.Lock()
	center, zoom := s.center, s.zoom
	s.mu.Unlock()

	scale := 256 * math.Pow(2, zoom)
	cx, cy := mercator(center, scale)
	px, py := mercator(p, scale)
	return mapview.ScreenPoint{X: Width/2 + px - cx, Y: Height/2 + py - cy}
}

func (s *Surface) Remove() {
	s.mu.Lock()
	s.removed = true
	s.onClick = nil
	s.mu.Unlock()
	s.printf("map removed")
}

// Click simulates a click on bare map area.
func (s *Surface) Click(lat, lon float64) {
	s.dispatch(mapview.ClickEvent{Point: domain.GeoPoint{Lat: lat, Lon: lon}})
}

// ClickMarker simulates a click on a marker element: the marker's own
// listener fires, then the click reaches the map with the marker as target.
func (s *Surface) ClickMarker(id mapview.ElementID) bool {
	s.mu.Lock()
	m, ok := s.markers[id]
	var pos domain.GeoPoint
	if ok {
		pos = m.pos
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	if m.onClick != nil {
		m.onClick()
	}
	s.dispatch(mapview.ClickEvent{Point: pos, Target: id})
	return true
}

// LiveMarkers returns the element ids of markers currently on the map.
func (s *Surface) LiveMarkers() []mapview.ElementID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]mapview.ElementID, 0, len(s.markers))
	for id := range s.markers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MarkerPosition returns where the marker with the given element id sits.
func (s *Surface) MarkerPosition(id mapview.ElementID) (domain.GeoPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[id]
	if !ok {
		return domain.GeoPoint{}, false
	}
	return m.pos, true
}

// Style returns the current map style.
func (s *Surface) Style() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// Center returns the current viewport center and zoom.
func (s *Surface) Center() (domain.GeoPoint, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center, s.zoom
}

// Removed reports whether the map has been released.
func (s *Surface) Removed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed
}

func (s *Surface) dispatch(ev mapview.ClickEvent) {
	s.mu.Lock()
	fn := s.onClick
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func (s *Surface) printf(format string, args ...any) {
	fmt.Fprintf(s.w, format+"\n", args...)
}

func (m *marker) Element() mapview.ElementID { return m.id }

func (m *marker) Position() domain.GeoPoint {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.pos
}

func (m *marker) SetPosition(p domain.GeoPoint) {
	m.s.mu.Lock()
	m.pos = p
	m.s.mu.Unlock()
	m.s.printf("~ %s %s to %s", m.kind, m.id, formatPoint(p))
}

func (m *marker) Remove() {
	m.s.mu.Lock()
	_, ok := m.s.markers[m.id]
	delete(m.s.markers, m.id)
	m.s.mu.Unlock()
	if ok {
		m.s.printf("- %s %s", m.kind, m.id)
	}
}

func mercator(p domain.GeoPoint, scale float64) (x, y float64) {
	x = (p.Lon + 180) / 360 * scale
	sin := math.Sin(p.Lat * math.Pi / 180)
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale
	return x, y
}

func formatPoint(p domain.GeoPoint) string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Lat, p.Lon)
}
