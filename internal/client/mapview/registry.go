package mapview

import "sort"

// registry maps POI ids to their markers, plus the one draft slot.
type registry struct {
	markers map[string]Marker
	draft   Marker
}

func newRegistry() registry {
	return registry{markers: make(map[string]Marker)}
}

func (r *registry) put(id string, m Marker) {
	r.markers[id] = m
}

// clear removes every keyed marker from the map. The draft is left alone.
func (r *registry) clear() {
	for id, m := range r.markers {
		m.Remove()
		delete(r.markers, id)
	}
}

func (r *registry) discardDraft() {
	if r.draft != nil {
		r.draft.Remove()
		r.draft = nil
	}
}

func (r *registry) releaseAll() {
	r.clear()
	r.discardDraft()
}

// owns reports whether el belongs to any registered marker.
func (r *registry) owns(el ElementID) bool {
	if el == "" {
		return false
	}
	if r.draft != nil && r.draft.Element() == el {
		return true
	}
	for _, m := range r.markers {
		if m.Element() == el {
			return true
		}
	}
	return false
}

func (r *registry) ids() []string {
	ids := make([]string, 0, len(r.markers))
	for id := range r.markers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
