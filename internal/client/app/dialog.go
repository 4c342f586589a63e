package app

import (
	"context"

	"github.com/samirrijal/poimap/internal/client/store"
	"github.com/samirrijal/poimap/internal/core/domain"
)

// EditDialog edits the title and description of an existing POI. Its
// coordinates are shown read-only.
type EditDialog struct {
	app *App

	// guarded by app.mu
	poi         *domain.POI
	title       string
	description string
	updating    bool
	err         string
}

// Open reports whether a POI is loaded. Without one the dialog renders nothing.
func (d *EditDialog) Open() bool {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	return d.poi != nil
}

// POI returns the POI under edit as it was when the dialog opened.
func (d *EditDialog) POI() (domain.POI, bool) {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	if d.poi == nil {
		return domain.POI{}, false
	}
	return *d.poi, true
}

func (d *EditDialog) SetTitle(s string) {
	d.app.mu.Lock()
	d.title = s
	d.app.mu.Unlock()
}

func (d *EditDialog) SetDescription(s string) {
	d.app.mu.Lock()
	d.description = s
	d.app.mu.Unlock()
}

func (d *EditDialog) Title() string {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	return d.title
}

func (d *EditDialog) Description() string {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	return d.description
}

func (d *EditDialog) Updating() bool {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	return d.updating
}

// Err is the message of the last failed update, shown inline.
func (d *EditDialog) Err() string {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	return d.err
}

// Submit sends the edited fields. On success the store is refreshed and the
// dialog closes. On failure it stays open and Err is set. With no POI loaded
// Submit does nothing.
func (d *EditDialog) Submit(ctx context.Context) error {
	a := d.app
	a.mu.Lock()
	switch {
	case a.closed:
		a.mu.Unlock()
		return ErrClosed
	case d.poi == nil:
		a.mu.Unlock()
		return nil
	case d.updating:
		a.mu.Unlock()
		return ErrBusy
	}
	d.updating = true
	d.err = ""
	id := d.poi.ID
	update := domain.POIUpdate{Title: d.title, Description: d.description}
	a.mu.Unlock()

	if err := a.gateway.Update(ctx, id, update); err != nil {
		a.mu.Lock()
		d.updating = false
		if d.poi != nil && d.poi.ID == id {
			d.err = store.Message(err)
		}
		a.mu.Unlock()
		return err
	}

	a.refresh(ctx, componentDialog)

	a.mu.Lock()
	defer a.mu.Unlock()
	d.updating = false
	if !a.closed && d.poi != nil && d.poi.ID == id {
		a.closeEditorLocked()
	}
	return nil
}

// Close dismisses the dialog without saving.
func (d *EditDialog) Close() {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	d.app.closeEditorLocked()
}

// load and clear are called with app.mu held.
func (d *EditDialog) load(poi domain.POI) {
	d.poi = &poi
	d.title = poi.Title
	d.description = poi.Description
	d.err = ""
}

func (d *EditDialog) clear() {
	d.poi = nil
	d.title = ""
	d.description = ""
	d.err = ""
}
