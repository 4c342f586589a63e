package app

import (
	"context"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// CreationForm collects a title and description for the draft point.
type CreationForm struct {
	app *App

	// guarded by app.mu
	title       string
	description string
	submitting  bool
}

// Open reports whether the form is shown, which is whenever a draft is selected.
func (f *CreationForm) Open() bool {
	f.app.mu.Lock()
	defer f.app.mu.Unlock()
	return f.app.selection.Kind == SelectionDraft
}

// Point returns the draft coordinate the form is for.
func (f *CreationForm) Point() (domain.GeoPoint, bool) {
	f.app.mu.Lock()
	defer f.app.mu.Unlock()
	if f.app.selection.Kind != SelectionDraft {
		return domain.GeoPoint{}, false
	}
	return f.app.selection.Point, true
}

func (f *CreationForm) SetTitle(s string) {
	f.app.mu.Lock()
	f.title = s
	f.app.mu.Unlock()
}

func (f *CreationForm) SetDescription(s string) {
	f.app.mu.Lock()
	f.description = s
	f.app.mu.Unlock()
}

func (f *CreationForm) Title() string {
	f.app.mu.Lock()
	defer f.app.mu.Unlock()
	return f.title
}

func (f *CreationForm) Description() string {
	f.app.mu.Lock()
	defer f.app.mu.Unlock()
	return f.description
}

// Submitting reports whether a create is in flight. Submit is disabled meanwhile.
func (f *CreationForm) Submitting() bool {
	f.app.mu.Lock()
	defer f.app.mu.Unlock()
	return f.submitting
}

// Submit creates a POI at the draft point. On success the store is refreshed
// and the form closes, discarding the draft marker. On failure the form stays
// open with its text and the error goes to the Reporter.
func (f *CreationForm) Submit(ctx context.Context) error {
	a := f.app
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return ErrClosed
	case a.selection.Kind != SelectionDraft:
		a.mu.Unlock()
		return ErrNoDraft
	case f.submitting:
		a.mu.Unlock()
		return ErrBusy
	}
	f.submitting = true
	payload := domain.NewPOI{
		Title:       f.title,
		Description: f.description,
		Latitude:    a.selection.Point.Lat,
		Longitude:   a.selection.Point.Lon,
	}
	a.mu.Unlock()

	if _, err := a.gateway.Create(ctx, payload); err != nil {
		a.mu.Lock()
		f.submitting = false
		closed := a.closed
		a.mu.Unlock()
		if !closed {
			a.reporter.Report(SeverityError, componentForm, "failed to create POI", err)
		}
		return err
	}

	a.refresh(ctx, componentForm)

	a.mu.Lock()
	defer a.mu.Unlock()
	f.submitting = false
	if !a.closed && a.selection.Kind == SelectionDraft {
		a.dismissDraftLocked()
	}
	return nil
}

// Dismiss closes the form and discards the draft marker.
func (f *CreationForm) Dismiss() {
	f.app.mu.Lock()
	defer f.app.mu.Unlock()
	if f.app.closed {
		return
	}
	f.app.dismissDraftLocked()
}

// reset clears the text fields. Caller holds app.mu.
func (f *CreationForm) reset() {
	f.title = ""
	f.description = ""
}
