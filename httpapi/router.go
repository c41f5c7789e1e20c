package httpapi

import (
	"strconv"

	"github.com/allymonies/tenebra/config"
	"github.com/allymonies/tenebra/core/address"
	"github.com/allymonies/tenebra/core/block"
	"github.com/allymonies/tenebra/core/names"
	"github.com/allymonies/tenebra/core/staking"
	"github.com/allymonies/tenebra/core/tx"
	"github.com/allymonies/tenebra/events"
	"github.com/allymonies/tenebra/faststate"
	"github.com/allymonies/tenebra/ulogger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server holds every engine the adapter routes to.
type Server struct {
	Ledger  *address.Ledger
	Names   *names.Registry
	Tx      *tx.Engine
	Block   *block.Engine
	Staking *staking.Engine
	Fast    *faststate.FastState
	Bus     *events.Bus
	Cfg     *config.Config
	Logger  ulogger.Logger
}

// New builds the echo router: one route per resource file, registered
// from a single entrypoint function.
func New(s *Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/health", func(c echo.Context) error { return ok(c, 200, nil) })
	e.GET("/motd", s.handleMOTD)

	s.registerAddresses(e)
	s.registerBlocks(e)
	s.registerTransactions(e)
	s.registerNames(e)
	s.registerStaking(e)
	s.registerWork(e)
	s.registerLookup(e)
	s.registerSearch(e)

	e.GET("/ws/start", s.handleWSStart)
	e.GET("/ws/:token", s.handleWS)

	return e
}

func pageParams(c echo.Context) (limit, offset int) {
	limit = 50
	offset = 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return
}

func clientIP(c echo.Context) string {
	return c.RealIP()
}
