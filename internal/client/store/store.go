// Package store holds the client's copy of the POI list.
//
// The backend is the only source of truth: the list is replaced wholesale by
// Refresh and never edited locally.
package store

import (
	"context"
	"sync"

	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/core/ports"
)

// FallbackMessage is shown when a failure carries no message of its own.
const FallbackMessage = "An error occurred"

// Snapshot is an immutable view of the store at one instant.
type Snapshot struct {
	POIs    []domain.POI
	Loading bool
	Err     string
	// Version increases on every successful refresh, even when the list is
	// unchanged. Consumers rebuild derived state when it moves.
	Version uint64
}

// Store caches the last fetched POI list along with loading and error state.
type Store struct {
	lister ports.POILister

	mu        sync.Mutex
	pois      []domain.POI
	loading   bool
	inFlight  int
	err       string
	version   uint64
	listeners map[int]func(Snapshot)
	nextSub   int
}

// New returns a store in its initial state: loading, empty, no error.
func New(lister ports.POILister) *Store {
	return &Store{
		lister:    lister,
		pois:      []domain.POI{},
		loading:   true,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Start performs the initial fetch.
func (s *Store) Start(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh fetches the full list. Concurrent calls are allowed; whichever
// completes last determines the stored list. A failure keeps the previous
// list and records the error message.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.inFlight++
	s.loading = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	pois, err := s.lister.List(ctx)

	s.mu.Lock()
	s.inFlight--
	s.loading = s.inFlight > 0
	if err != nil {
		s.err = Message(err)
	} else {
		if pois == nil {
			pois = []domain.POI{}
		}
		s.pois = pois
		s.err = ""
		s.version++
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	return err
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// POIs returns a copy of the current list.
func (s *Store) POIs() []domain.POI {
	return s.Snapshot().POIs
}

// Loading reports whether a fetch is outstanding (or none has run yet).
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch error message, or "" after a success.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Version returns the number of successful refreshes so far.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Find looks up a POI in the current list.
func (s *Store) Find(id string) (domain.POI, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pois {
		if p.ID == id {
			return p, true
		}
	}
	return domain.POI{}, false
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that caused the change, outside the store lock.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	pois := make([]domain.POI, len(s.pois))
	copy(pois, s.pois)
	return Snapshot{POIs: pois, Loading: s.loading, Err: s.err, Version: s.version}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Message renders err for display: its text, or FallbackMessage when empty.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}
