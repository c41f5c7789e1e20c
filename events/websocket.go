package events

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/allymonies/tenebra/hashutil"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Authenticator lets the event bus verify an address/private-key pair for
// the "login" message without importing the address ledger package
// directly, which would cycle back through the engines.
type Authenticator interface {
	Authenticate(ctx context.Context, ip, address, privateKey string) (bool, error)
}

type inboundMessage struct {
	ID         int             `json:"id"`
	Type       string          `json:"type"`
	Address    string          `json:"address,omitempty"`
	PrivateKey string          `json:"privatekey,omitempty"`
	Categories []string        `json:"categories,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

type outboundResponse struct {
	ID      int         `json:"id"`
	OK      bool        `json:"ok"`
	Type    string      `json:"type,omitempty"`
	Address string      `json:"address,omitempty"`
	Work    interface{} `json:"work,omitempty"`
	Stake   interface{} `json:"stake,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// WorkReader lets the handler answer "work" requests without depending on
// the faststate package directly.
type WorkReader interface {
	Work() uint64
}

// StakeReader lets the handler answer "stake" requests without depending
// on the staking engine package directly.
type StakeReader interface {
	Stake(ctx context.Context, address string) (uint64, error)
}

// Handler returns an echo handler upgrading to a WebSocket and running
// the session's read/write pumps: one goroutine pumping writes, the
// request goroutine pumping reads.
func (b *Bus) Handler(auth Authenticator, work WorkReader, stake StakeReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		session := NewSession(b.logger)
		b.Register(session)
		defer b.Unregister(session)

		done := make(chan struct{})
		go b.writePump(ws, session, done)
		b.readPump(c.Request().Context(), ws, session, auth, work, stake)
		close(done)

		return nil
	}
}

func (b *Bus) writePump(ws *websocket.Conn, session *Session, done chan struct{}) {
	for {
		select {
		case data, ok := <-session.Outbound():
			if !ok {
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (b *Bus) readPump(ctx context.Context, ws *websocket.Conn, session *Session, auth Authenticator, work WorkReader, stake StakeReader) {
	ip := ws.RemoteAddr().String()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		resp := b.handle(ctx, session, msg, ip, auth, work, stake)
		data, err := json.Marshal(resp)
		if err != nil {
			continue
		}
		select {
		case session.outbound <- data:
		default:
		}
	}
}

// handle dispatches a single inbound message-typed request.
func (b *Bus) handle(ctx context.Context, session *Session, msg inboundMessage, ip string, auth Authenticator, work WorkReader, stake StakeReader) outboundResponse {
	switch msg.Type {
	case "subscribe":
		for _, cat := range msg.Categories {
			session.Subscribe(cat)
		}
		return outboundResponse{ID: msg.ID, OK: true, Type: "subscribe"}

	case "unsubscribe":
		for _, cat := range msg.Categories {
			session.Unsubscribe(cat)
		}
		return outboundResponse{ID: msg.ID, OK: true, Type: "unsubscribe"}

	case "login":
		address := msg.Address
		if address == "" {
			address = hashutil.MakeV2Address(msg.PrivateKey)
		}
		ok, err := auth.Authenticate(ctx, ip, address, msg.PrivateKey)
		if err != nil || !ok {
			return outboundResponse{ID: msg.ID, OK: false, Type: "login", Error: "auth_failed"}
		}
		session.Login(address)
		return outboundResponse{ID: msg.ID, OK: true, Type: "login", Address: address}

	case "address":
		return outboundResponse{ID: msg.ID, OK: true, Type: "address", Address: session.Address}

	case "work":
		return outboundResponse{ID: msg.ID, OK: true, Type: "work", Work: work.Work()}

	case "stake":
		addr := msg.Address
		if addr == "" {
			addr = session.Address
		}
		if addr == "" {
			return outboundResponse{ID: msg.ID, OK: false, Type: "stake", Error: "missing_parameter"}
		}
		amount, err := stake.Stake(ctx, addr)
		if err != nil {
			return outboundResponse{ID: msg.ID, OK: false, Type: "stake", Error: "address_not_found"}
		}
		return outboundResponse{ID: msg.ID, OK: true, Type: "stake", Address: addr, Stake: amount}

	case "me":
		return outboundResponse{ID: msg.ID, OK: true, Type: "me", Address: session.Address}

	default:
		return outboundResponse{ID: msg.ID, OK: false, Error: "invalid_parameter"}
	}
}
