package httpapi

import (
	"net/http"
	"time"

	"github.com/allymonies/tenebra/errors"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/labstack/echo/v4"
)

// wsTokens backs the per-session URL handshake: a token is minted by
// /ws/start and consumed exactly once by the matching /ws/:token upgrade,
// expiring quickly otherwise.
var wsTokens = ttlcache.New[string, bool](ttlcache.WithTTL[string, bool](30 * time.Second))

func init() {
	go wsTokens.Start()
}

// handleWSStart mints a one-time token and returns the URL the client
// should open a WebSocket connection against.
func (s *Server) handleWSStart(c echo.Context) error {
	token := uuid.NewString()
	wsTokens.Set(token, true, ttlcache.DefaultTTL)
	return ok(c, http.StatusOK, echo.Map{"url": "/ws/" + token})
}

// handleWS upgrades the connection after validating and consuming token.
func (s *Server) handleWS(c echo.Context) error {
	token := c.Param("token")
	item := wsTokens.Get(token)
	if item == nil {
		return fail(c, errors.New(errors.ERR_INVALID_TOKEN, "unknown or expired websocket token"))
	}
	wsTokens.Delete(token)

	return s.Bus.Handler(s.Ledger, s.Fast, s.Staking)(c)
}
