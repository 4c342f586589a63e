package http

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/poimap/internal/adapters/nats"
	"github.com/samirrijal/poimap/internal/core/domain"
	"github.com/samirrijal/poimap/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is sent by the client to narrow or widen its event feed.
type wsMessage struct {
	Action string `json:"action"` // "subscribe" | "unsubscribe"
	Type   string `json:"type"`   // "created" | "updated" | "deleted" | "" (all)
}

// eventSubject maps an event type filter to its NATS subject.
func eventSubject(typ string) (string, bool) {
	switch t := domain.POIEventType(typ); t {
	case "":
		return natsadapter.SubjectAll, true
	case domain.POICreated, domain.POIUpdated, domain.POIDeleted:
		return natsadapter.Subject(t), true
	}
	return "", false
}

type unsubscriber interface {
	Unsubscribe() error
}

// wsFeed tracks the NATS subscriptions of one connection. The all-events
// subject and the per-type subjects are mutually exclusive, so no event is
// relayed twice.
type wsFeed struct {
	subscribe func(subject string) (unsubscriber, error)
	subs      map[string]unsubscriber
}

func newWSFeed(subscribe func(subject string) (unsubscriber, error)) *wsFeed {
	return &wsFeed{subscribe: subscribe, subs: make(map[string]unsubscriber)}
}

// add subscribes to subject. Narrowing from all events to one type replaces
// the all-events subscription; widening to all events drops the per-type ones.
// It reports false when the subject was already subscribed.
func (f *wsFeed) add(subject string) (bool, error) {
	if _, exists := f.subs[subject]; exists {
		return false, nil
	}
	s, err := f.subscribe(subject)
	if err != nil {
		return false, err
	}
	for existing, old := range f.subs {
		if subject == natsadapter.SubjectAll || existing == natsadapter.SubjectAll {
			_ = old.Unsubscribe()
			delete(f.subs, existing)
		}
	}
	f.subs[subject] = s
	return true, nil
}

func (f *wsFeed) remove(subject string) bool {
	s, exists := f.subs[subject]
	if !exists {
		return false
	}
	_ = s.Unsubscribe()
	delete(f.subs, subject)
	return true
}

func (f *wsFeed) subjects() []string {
	out := make([]string, 0, len(f.subs))
	for subject := range f.subs {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}

func (f *wsFeed) close() {
	for subject := range f.subs {
		f.remove(subject)
	}
}

// WebSocketHandler relays POI change events from NATS to connected clients.
// Every connection starts subscribed to all events. Clients may narrow the
// feed with {"action":"subscribe","type":"deleted"} and widen it again with
// {"action":"subscribe"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event relay unavailable"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")

		var mu sync.Mutex

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		feed := newWSFeed(func(subject string) (unsubscriber, error) {
			return nc.Subscribe(subject, relay)
		})
		if _, err := feed.add(natsadapter.SubjectAll); err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, ok := eventSubject(m.Type)
			if !ok {
				_ = writeJSON(map[string]string{"error": "unknown event type: " + m.Type})
				continue
			}

			switch m.Action {
			case "subscribe":
				added, err := feed.add(subject)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				status := "subscribed"
				if !added {
					status = "already subscribed"
				}
				_ = writeJSON(map[string]string{"status": status, "subject": subject})

			case "unsubscribe":
				if feed.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		feed.close()
		log.Info("ws client disconnected")
	}
}
