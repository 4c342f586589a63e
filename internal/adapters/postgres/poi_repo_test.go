package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/poimap/internal/core/domain"
)

func TestNotFound_MapsNoRows(t *testing.T) {
	if err := notFound(pgx.ErrNoRows); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := notFound(fmt.Errorf("scan: %w", pgx.ErrNoRows)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected wrapped ErrNoRows to map to ErrNotFound, got %v", err)
	}
	other := errors.New("connection reset")
	if err := notFound(other); err != other {
		t.Errorf("expected other errors unchanged, got %v", err)
	}
}

func TestValidID(t *testing.T) {
	if !validID("3f1c1a52-7b0e-4d7a-9b55-3f0e7b6c2a10") {
		t.Error("expected uuid to be valid")
	}
	for _, id := range []string{"", "42", "not-a-uuid"} {
		if validID(id) {
			t.Errorf("expected %q to be rejected", id)
		}
	}
}

func TestPOIRepo_InvalidIDShortCircuits(t *testing.T) {
	// A nil pool would panic if the query were issued.
	repo := NewPOIRepo(&DB{})
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Update(ctx, "nope", domain.POIUpdate{Title: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}
