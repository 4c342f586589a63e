package domain_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/poimap/internal/core/domain"
)

func TestNewPOI_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      domain.NewPOI
		wantErr bool
		field   string
	}{
		{"valid", domain.NewPOI{Title: "Central Park", Description: "Big park", Latitude: 40.785, Longitude: -73.968}, false, ""},
		{"empty description ok", domain.NewPOI{Title: "Big Ben", Latitude: 51.5, Longitude: -0.12}, false, ""},
		{"blank title", domain.NewPOI{Title: "   ", Latitude: 1, Longitude: 1}, true, "title"},
		{"latitude out of range", domain.NewPOI{Title: "x", Latitude: 90.5, Longitude: 0}, true, "latitude"},
		{"longitude out of range", domain.NewPOI{Title: "x", Latitude: 0, Longitude: -180.01}, true, "longitude"},
		{"title too long", domain.NewPOI{Title: strings.Repeat("a", 201)}, true, "title"},
		{"multibyte title within limit", domain.NewPOI{Title: strings.Repeat("東", 200)}, false, ""},
		{"multibyte title too long", domain.NewPOI{Title: strings.Repeat("東", 201)}, true, "title"},
		{"multibyte description within limit", domain.NewPOI{Title: "x", Description: strings.Repeat("é", 2000)}, false, ""},
		{"multibyte description too long", domain.NewPOI{Title: "x", Description: strings.Repeat("é", 2001)}, true, "description"},
		{"poles and antimeridian", domain.NewPOI{Title: "edge", Latitude: -90, Longitude: 180}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs domain.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, fe := range verrs {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestPOIUpdate_Validate(t *testing.T) {
	if err := (domain.POIUpdate{Title: "Renamed"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := (domain.POIUpdate{Title: ""}).Validate()
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := (domain.POIUpdate{Title: strings.Repeat("ß", 150)}).Validate(); err != nil {
		t.Fatalf("150 characters should fit, got %v", err)
	}
}

func TestNormalize_TrimsText(t *testing.T) {
	n := domain.NewPOI{Title: "  Big Ben ", Description: "\tclock\n"}.Normalize()
	if n.Title != "Big Ben" || n.Description != "clock" {
		t.Errorf("unexpected normalized payload: %+v", n)
	}
}

func TestValidationErrors_Message(t *testing.T) {
	err := domain.ValidationErrors{
		{Field: "title", Message: "is required"},
		{Field: "latitude", Message: "must be between -90 and 90"},
	}
	want := "title is required; latitude must be between -90 and 90"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}
