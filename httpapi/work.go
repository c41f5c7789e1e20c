package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerWork(e *echo.Echo) {
	e.GET("/work", s.handleWork)
	e.GET("/work/day", s.handleWorkDay)
	e.GET("/work/detailed", s.handleWorkDetailed)
}

func (s *Server) handleWork(c echo.Context) error {
	return ok(c, http.StatusOK, echo.Map{"work": s.Fast.Work()})
}

// handleWorkDay returns the ring's samples from roughly the last 24h. At
// a one-minute sample rate and a 1440-entry cap the whole ring is exactly
// one day.
func (s *Server) handleWorkDay(c echo.Context) error {
	return ok(c, http.StatusOK, echo.Map{"work": s.Fast.WorkOverTime()})
}

// handleWorkDetailed pairs the current work with the composition of the
// next block's reward.
func (s *Server) handleWorkDetailed(c echo.Context) error {
	reward, err := s.Block.NextReward(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{
		"work":       s.Fast.Work(),
		"validator":  s.Staking.Validator(),
		"next_block": reward,
	})
}
