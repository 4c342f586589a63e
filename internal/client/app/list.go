package app

import (
	"context"
	"fmt"

	"github.com/samirrijal/poimap/internal/core/domain"
)

// ListPanel shows the store's POIs with select and delete actions.
type ListPanel struct {
	app *App

	deleting bool // guarded by app.mu
}

func (l *ListPanel) Open() bool {
	l.app.mu.Lock()
	defer l.app.mu.Unlock()
	return l.app.listOpen
}

// Toggle opens or closes the panel.
func (l *ListPanel) Toggle() {
	l.app.ToggleList()
}

// Rows returns the POIs to render, in store order.
func (l *ListPanel) Rows() []domain.POI {
	return l.app.store.POIs()
}

func (l *ListPanel) Loading() bool { return l.app.store.Loading() }
func (l *ListPanel) Err() string   { return l.app.store.Err() }

// Deleting reports whether a delete from this panel is in flight.
func (l *ListPanel) Deleting() bool {
	l.app.mu.Lock()
	defer l.app.mu.Unlock()
	return l.deleting
}

// Delete removes a POI and refreshes. On failure the row remains and the
// error goes to the Reporter.
func (l *ListPanel) Delete(ctx context.Context, id string) error {
	a := l.app
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return ErrClosed
	case l.deleting:
		a.mu.Unlock()
		return ErrBusy
	}
	l.deleting = true
	a.mu.Unlock()

	if err := a.gateway.Delete(ctx, id); err != nil {
		a.mu.Lock()
		l.deleting = false
		closed := a.closed
		a.mu.Unlock()
		if !closed {
			a.reporter.Report(SeverityError, componentList, "failed to delete POI", err)
		}
		return err
	}

	a.refresh(ctx, componentList)

	a.mu.Lock()
	defer a.mu.Unlock()
	l.deleting = false
	if a.selection.Kind == SelectionEditing && a.selection.POI.ID == id {
		a.closeEditorLocked()
	}
	return nil
}

// Select centers the map on the POI.
func (l *ListPanel) Select(id string) error {
	poi, ok := l.app.store.Find(id)
	if !ok {
		return fmt.Errorf("select %q: %w", id, domain.ErrNotFound)
	}
	l.app.view.CenterOn(poi.Latitude, poi.Longitude)
	return nil
}

// Retry re-fetches the list after a load error. It is also the panel's
// refresh action.
func (l *ListPanel) Retry(ctx context.Context) error {
	if l.app.isClosed() {
		return ErrClosed
	}
	return l.app.store.Refresh(ctx)
}
