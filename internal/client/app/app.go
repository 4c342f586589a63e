// Package app coordinates the POI client: the store, the map view and the
// three overlays (creation form, edit dialog, list panel).
//
// Every mutation goes to the backend first and is followed by a full store
// refresh; nothing is edited locally.
package app

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/poimap/internal/client/mapview"
	"github.com/samirrijal/poimap/internal/client/store"
	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/ports"
)

var (
	ErrBusy    = errors.New("app: operation already in progress")
	ErrNoDraft = errors.New("app: no draft point selected")
	ErrClosed  = errors.New("app: closed")
)

const (
	componentApp    = "app"
	componentMap    = "map"
	componentForm   = "creation-form"
	componentDialog = "edit-dialog"
	componentList   = "list-panel"
)

// App owns the Selection and wires the client components together.
// All overlay state is guarded by mu. Network calls run without it.
type App struct {
	gateway  ports.POIGateway
	store    *store.Store
	view     *mapview.View
	reporter Reporter

	form   *CreationForm
	dialog *EditDialog
	list   *ListPanel

	mu          sync.Mutex
	selection   Selection
	listOpen    bool
	anchor      mapview.ScreenPoint
	anchored    bool
	closed      bool
	unsubscribe func()
}

// New builds an App. Nothing is fetched or mounted until Start.
func New(gateway ports.POIGateway, renderer mapview.Renderer, opts mapview.Options, reporter Reporter) *App {
	if reporter == nil {
		reporter = NewSlogReporter(nil)
	}
	a := &App{
		gateway:  gateway,
		store:    store.New(gateway),
		reporter: reporter,
	}
	a.view = mapview.New(renderer, opts, mapview.Events{
		OnMapClick:    a.openDraft,
		OnMarkerClick: a.openEditor,
	})
	a.form = &CreationForm{app: a}
	a.dialog = &EditDialog{app: a}
	a.list = &ListPanel{app: a}
	return a
}

// Start mounts the map and performs the initial fetch. A map that cannot be
// mounted is reported and the app continues without it. The returned error
// is the fetch error, which the list panel also shows.
func (a *App) Start(ctx context.Context) error {
	if err := a.view.Mount(); err != nil {
		a.reporter.Report(SeverityWarn, componentMap, "map disabled", err)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.unsubscribe = a.store.Subscribe(a.onStoreChange)
	a.mu.Unlock()

	if err := a.store.Start(ctx); err != nil {
		a.reporter.Report(SeverityError, componentApp, "failed to load POIs", err)
		return err
	}
	return nil
}

// Close unmounts the map. Results of calls still in flight are dropped.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	unsubscribe := a.unsubscribe
	a.unsubscribe = nil
	a.selection = NoSelection()
	a.anchored = false
	a.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	a.view.Unmount()
}

func (a *App) Store() *store.Store { return a.store }
func (a *App) View() *mapview.View { return a.view }
func (a *App) Form() *CreationForm { return a.form }
func (a *App) Dialog() *EditDialog { return a.dialog }
func (a *App) List() *ListPanel    { return a.list }

// Selection returns the current selection.
func (a *App) Selection() Selection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selection
}

// ToggleList opens or closes the list panel. Opening it dismisses the
// creation form.
func (a *App) ToggleList() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.listOpen = !a.listOpen
	if a.listOpen && a.selection.Kind == SelectionDraft {
		a.dismissDraftLocked()
	}
}

// SetStyle changes the map style.
func (a *App) SetStyle(style string) {
	a.view.SetStyle(style)
}

// Reanchor recomputes the popover position for the open overlay. Hosts call
// it when the window resizes or a marker moves.
func (a *App) Reanchor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reanchorLocked()
}

// Anchor returns the screen point the open overlay is attached to.
func (a *App) Anchor() (mapview.ScreenPoint, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.anchor, a.anchored
}

func (a *App) onStoreChange(snap store.Snapshot) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return
	}
	a.view.Reconcile(snap.Version, snap.POIs)
}

// openDraft handles a click on empty map area. The view has already placed
// or moved the draft marker.
func (a *App) openDraft(p domain.GeoPoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.selection.Kind != SelectionDraft {
		a.form.reset()
	}
	a.dialog.clear()
	a.selection = DraftSelection(p)
	a.listOpen = false
	a.reanchorLocked()
}

// openEditor handles a click on a POI marker.
func (a *App) openEditor(id string) {
	poi, ok := a.store.Find(id)
	if !ok {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.view.DiscardDraft()
	a.form.reset()
	a.dialog.load(poi)
	a.selection = EditingSelection(poi)
	a.reanchorLocked()
}

func (a *App) dismissDraftLocked() {
	a.view.DiscardDraft()
	a.form.reset()
	if a.selection.Kind == SelectionDraft {
		a.selection = NoSelection()
		a.anchored = false
	}
}

func (a *App) closeEditorLocked() {
	a.dialog.clear()
	if a.selection.Kind == SelectionEditing {
		a.selection = NoSelection()
		a.anchored = false
	}
}

func (a *App) reanchorLocked() {
	switch a.selection.Kind {
	case SelectionDraft:
		a.anchor, a.anchored = a.view.AnchorFor("")
	case SelectionEditing:
		a.anchor, a.anchored = a.view.AnchorFor(a.selection.POI.ID)
	default:
		a.anchor, a.anchored = mapview.ScreenPoint{}, false
	}
}

func (a *App) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// refresh re-fetches after a successful mutation. A failed refresh is
// surfaced by the store's error slot.
func (a *App) refresh(ctx context.Context, component string) {
	if a.isClosed() {
		return
	}
	if err := a.store.Refresh(ctx); err != nil {
		a.reporter.Report(SeverityWarn, component, "failed to refresh POIs", err)
	}
}
