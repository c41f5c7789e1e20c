// Package events implements the event bus and WebSocket sessions. A
// single hub goroutine owns the session set and selects over
// register/unregister/broadcast/ping channels so no lock is needed around
// the session map itself.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/allymonies/tenebra/ulogger"
)

// Category names used for per-session subscription filtering.
const (
	CategoryBlocks          = "blocks"
	CategoryTransactions    = "transactions"
	CategoryNames           = "names"
	CategoryOwnTransactions = "ownTransactions"
	CategoryStake           = "stake"
	CategoryValidator       = "validator"
)

// Event is the server-pushed payload shape: {type:"event", event:...}.
type Event struct {
	Type  string      `json:"type"`
	Event string      `json:"event"`
	Data  interface{} `json:"-"`

	// From/To are populated for transaction-shaped events so
	// ownTransactions filtering doesn't need to inspect Data via
	// reflection.
	From string `json:"-"`
	To   string `json:"-"`
}

// MarshalJSON flattens Data's fields alongside type/event, matching the
// wire shape {type, event, <event-specific fields>}.
func (e Event) MarshalJSON() ([]byte, error) {
	inner, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(inner, &fields); err != nil {
		fields = map[string]interface{}{}
	}
	fields["type"] = e.Type
	fields["event"] = e.Event
	return json.Marshal(fields)
}

const sessionQueueCap = 64

// Bus fans out events to every subscribed session.
type Bus struct {
	logger ulogger.Logger

	register   chan *Session
	unregister chan *Session
	broadcast  chan Event

	sessions map[*Session]struct{}
}

func NewBus(logger ulogger.Logger) *Bus {
	return &Bus{
		logger:     logger,
		register:   make(chan *Session, 16),
		unregister: make(chan *Session, 16),
		broadcast:  make(chan Event, 256),
		sessions:   make(map[*Session]struct{}),
	}
}

// Run owns the session set until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	pingTimer := time.NewTicker(30 * time.Second)
	defer pingTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-b.register:
			b.sessions[s] = struct{}{}

		case s := <-b.unregister:
			if _, ok := b.sessions[s]; ok {
				delete(b.sessions, s)
				close(s.outbound)
			}

		case ev := <-b.broadcast:
			for s := range b.sessions {
				if !s.wants(ev) {
					continue
				}
				s.deliver(ev)
			}

		case <-pingTimer.C:
			for s := range b.sessions {
				s.deliver(Event{Type: "keepalive"})
			}
		}
	}
}

// Broadcast queues an event for fan-out. Never blocks the caller: a full
// hub queue drops the event and logs it.
func (b *Bus) Broadcast(ev Event) {
	select {
	case b.broadcast <- ev:
	default:
		b.logger.Warnf("event bus broadcast queue full, dropping %s/%s", ev.Type, ev.Event)
	}
}

// Register adds a session to the fan-out set.
func (b *Bus) Register(s *Session) { b.register <- s }

// Unregister removes a session and closes its outbound channel.
func (b *Bus) Unregister(s *Session) { b.unregister <- s }
