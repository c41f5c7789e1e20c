package events

import (
	"encoding/json"

	"github.com/allymonies/tenebra/ulogger"
	"github.com/google/uuid"
)

// Session is an authenticated or guest WebSocket connection.
type Session struct {
	ID            string
	Authenticated bool
	Address       string

	subscriptions map[string]struct{}
	outbound      chan []byte
	logger        ulogger.Logger
}

// NewSession starts out as a guest with no subscriptions.
func NewSession(logger ulogger.Logger) *Session {
	return &Session{
		ID:            uuid.NewString(),
		subscriptions: make(map[string]struct{}),
		outbound:      make(chan []byte, sessionQueueCap),
		logger:        logger,
	}
}

// Subscribe adds a category to this session's filter set.
func (s *Session) Subscribe(category string) {
	s.subscriptions[category] = struct{}{}
}

// Unsubscribe removes a category.
func (s *Session) Unsubscribe(category string) {
	delete(s.subscriptions, category)
}

// Login switches the session from guest to authenticated.
func (s *Session) Login(address string) {
	s.Authenticated = true
	s.Address = address
}

// Outbound exposes the delivery channel for the HTTP adapter's write pump.
func (s *Session) Outbound() <-chan []byte { return s.outbound }

func (s *Session) category(ev Event) string {
	switch ev.Event {
	case "block":
		return CategoryBlocks
	case "transaction":
		return CategoryTransactions
	case "name":
		return CategoryNames
	case "stake":
		return CategoryStake
	case "validator":
		return CategoryValidator
	default:
		return ""
	}
}

// wants reports whether ev matches this session's subscription set,
// applying the ownTransactions per-session filter.
func (s *Session) wants(ev Event) bool {
	if ev.Type == "keepalive" {
		return true
	}

	cat := s.category(ev)
	_, subscribed := s.subscriptions[cat]

	if ev.Event == "transaction" {
		if _, own := s.subscriptions[CategoryOwnTransactions]; own && s.Authenticated {
			if ev.From == s.Address || ev.To == s.Address {
				return true
			}
		}
	}

	return subscribed
}

// deliver enqueues the marshalled event. A slow consumer never blocks the
// broadcaster: when the bounded queue is full the oldest pending message
// is dropped and logged.
func (s *Session) deliver(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	select {
	case s.outbound <- data:
		return
	default:
	}

	select {
	case <-s.outbound:
		s.logger.Warnf("session %s outbound queue full, dropping oldest event for %s", s.ID, ev.Event)
	default:
	}
	select {
	case s.outbound <- data:
	default:
	}
}
