package app

import "github.com/samirrijal/poimap/internal/core/domain"

// SelectionKind says which overlay, if any, is open.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionDraft
	SelectionEditing
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionDraft:
		return "draft"
	case SelectionEditing:
		return "editing"
	default:
		return "none"
	}
}

// Selection is exactly one of None, Draft(point) or Editing(poi).
type Selection struct {
	Kind  SelectionKind
	Point domain.GeoPoint // Draft only
	POI   domain.POI      // Editing only
}

func NoSelection() Selection { return Selection{} }

func DraftSelection(p domain.GeoPoint) Selection {
	return Selection{Kind: SelectionDraft, Point: p}
}

func EditingSelection(poi domain.POI) Selection {
	return Selection{Kind: SelectionEditing, POI: poi}
}
