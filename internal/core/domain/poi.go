package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samirrijal/poimap/internal/pkg/geospatial"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// POI is a named, described, geolocated record owned by the backend.
// Coordinates are fixed at creation time; only title and description change.
type POI struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Distance    *float64  `json:"distance,omitempty"` // computed field
}

// Point returns the POI's coordinates.
func (p POI) Point() GeoPoint {
	return GeoPoint{Lat: p.Latitude, Lon: p.Longitude}
}

// NewPOI is the create payload: POST /pois.
type NewPOI struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Validate checks the payload before it reaches storage.
func (n NewPOI) Validate() error {
	var errs ValidationErrors
	errs = append(errs, checkText(n.Title, n.Description)...)
	if !geospatial.ValidLatitude(n.Latitude) {
		errs = append(errs, FieldError{Field: "latitude", Message: "must be between -90 and 90"})
	}
	if !geospatial.ValidLongitude(n.Longitude) {
		errs = append(errs, FieldError{Field: "longitude", Message: "must be between -180 and 180"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Normalize trims surrounding whitespace from the text fields.
func (n NewPOI) Normalize() NewPOI {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	return n
}

// POIUpdate is the edit payload: PATCH /pois/{id}.
type POIUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks the editable fields.
func (u POIUpdate) Validate() error {
	if errs := checkText(u.Title, u.Description); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

// Normalize trims surrounding whitespace from the text fields.
func (u POIUpdate) Normalize() POIUpdate {
	u.Title = strings.TrimSpace(u.Title)
	u.Description = strings.TrimSpace(u.Description)
	return u
}

func checkText(title, description string) []FieldError {
	var errs []FieldError
	if strings.TrimSpace(title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "is required"})
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		errs = append(errs, FieldError{Field: "title", Message: "must be at most 200 characters"})
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		errs = append(errs, FieldError{Field: "description", Message: "must be at most 2000 characters"})
	}
	return errs
}

// POIEventType names a change to the POI collection.
type POIEventType string

const (
	POICreated POIEventType = "created"
	POIUpdated POIEventType = "updated"
	POIDeleted POIEventType = "deleted"
)

// POIEvent is published after every successful mutation.
type POIEvent struct {
	Type POIEventType `json:"type"`
	ID   string       `json:"id"`
	POI  *POI         `json:"poi,omitempty"`
	Time time.Time    `json:"time"`
}
