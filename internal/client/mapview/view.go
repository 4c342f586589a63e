package mapview

import (
	"sync"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// View owns one map instance and keeps its markers in step with the POI list.
type View struct {
	renderer Renderer
	opts     Options
	events   Events

	mu      sync.Mutex
	surface Surface
	reg     registry
	style   string
	applied uint64
	synced  bool
}

// New returns an unmounted View.
func New(renderer Renderer, opts Options, events Events) *View {
	if opts.Style == "" {
		opts.Style = DefaultStyle
	}
	return &View{
		renderer: renderer,
		opts:     opts,
		events:   events,
		reg:      newRegistry(),
	}
}

// Mount constructs the map. It may be called once per mount cycle.
func (v *View) Mount() error {
	if v.opts.AccessToken == "" {
		return ErrNoAccessToken
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface != nil {
		return ErrAlreadyMounted
	}

	s, err := v.renderer.NewSurface(v.opts)
	if err != nil {
		return err
	}
	s.OnClick(v.handleClick)
	v.surface = s
	v.style = v.opts.Style
	v.synced = false
	v.applied = 0
	return nil
}

// Unmount releases every marker, the draft included, and then the map.
func (v *View) Unmount() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface == nil {
		return
	}
	v.reg.releaseAll()
	v.surface.Remove()
	v.surface = nil
}

// Mounted reports whether a map instance is live.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.surface != nil
}

// Reconcile rebuilds the keyed markers from pois. version is the list
// version the caller read pois at; versions at or below the last applied
// one are ignored. Every call that passes the version check removes all
// keyed markers and recreates one per POI.
func (v *View) Reconcile(version uint64, pois []domain.POI) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface == nil {
		return
	}
	if v.synced && version <= v.applied {
		return
	}

	v.reg.clear()
	for _, p := range pois {
		id := p.ID
		m := v.surface.AddMarker(p.Point(), MarkerPOI, func() { v.handleMarkerClick(id) })
		v.reg.put(id, m)
	}
	v.applied = version
	v.synced = true
}

// Draft returns the draft point, if one is placed.
func (v *View) Draft() (domain.GeoPoint, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reg.draft == nil {
		return domain.GeoPoint{}, false
	}
	return v.reg.draft.Position(), true
}

// DiscardDraft removes the draft marker from the map.
func (v *View) DiscardDraft() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reg.discardDraft()
}

// CenterOn starts a fly-to animation and returns immediately.
func (v *View) CenterOn(lat, lon float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface == nil {
		return
	}
	v.surface.FlyTo(domain.GeoPoint{Lat: lat, Lon: lon}, FocusZoom, FlyToDuration)
}

// SetStyle switches the map style when it differs from the current one.
func (v *View) SetStyle(style string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if style == "" || style == v.style {
		return
	}
	v.style = style
	if v.surface != nil {
		v.surface.SetStyle(style)
	}
}

// Style returns the style last applied.
func (v *View) Style() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.style
}

// AnchorFor returns the screen position of the marker for poiID, or of the
// draft marker when poiID is empty.
func (v *View) AnchorFor(poiID string) (ScreenPoint, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.surface == nil {
		return ScreenPoint{}, false
	}

	m := v.reg.draft
	if poiID != "" {
		m = v.reg.markers[poiID]
	}
	if m == nil {
		return ScreenPoint{}, false
	}
	return v.surface.Project(m.Position()), true
}

// ElementFor returns the element id of the marker for poiID.
func (v *View) ElementFor(poiID string) (ElementID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.reg.markers[poiID]
	if !ok {
		return "", false
	}
	return m.Element(), true
}

// MarkerIDs returns the POI ids that currently have a marker, sorted.
func (v *View) MarkerIDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reg.ids()
}

func (v *View) handleClick(ev ClickEvent) {
	v.mu.Lock()
	if v.surface == nil || v.reg.owns(ev.Target) {
		v.mu.Unlock()
		return
	}
	if v.reg.draft == nil {
		v.reg.draft = v.surface.AddMarker(ev.Point, MarkerDraft, nil)
	} else {
		v.reg.draft.SetPosition(ev.Point)
	}
	v.mu.Unlock()

	if v.events.OnMapClick != nil {
		v.events.OnMapClick(ev.Point)
	}
}

func (v *View) handleMarkerClick(id string) {
	v.mu.Lock()
	_, live := v.reg.markers[id]
	live = live && v.surface != nil
	v.mu.Unlock()

	if live && v.events.OnMarkerClick != nil {
		v.events.OnMarkerClick(id)
	}
}
