package httpapi

import (
	"net/http"

	"github.com/allymonies/tenebra/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerStaking(e *echo.Echo) {
	e.GET("/staking", s.handleListStakers)
	e.POST("/staking", s.handleDeposit)
	e.GET("/staking/validator", s.handleValidator)
	e.GET("/staking/penalties", s.handlePenalties)
	e.POST("/staking/withdraw", s.handleWithdraw)
	e.GET("/staking/:a", s.handleGetStaker)
}

func (s *Server) handleListStakers(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, err := s.Staking.Stakers(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"stakers": rows, "count": len(rows)})
}

func (s *Server) handleGetStaker(c echo.Context) error {
	a, err := s.Staking.Get(c.Request().Context(), c.Param("a"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"address": a})
}

type stakeRequest struct {
	PrivateKey string `json:"privatekey"`
	Amount     uint64 `json:"amount"`
}

func (s *Server) handleDeposit(c echo.Context) error {
	var req stakeRequest
	if err := c.Bind(&req); err != nil || req.PrivateKey == "" {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "privatekey is required"))
	}
	a, err := s.Staking.Deposit(c.Request().Context(), clientIP(c), req.PrivateKey, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"address": a})
}

func (s *Server) handleWithdraw(c echo.Context) error {
	var req stakeRequest
	if err := c.Bind(&req); err != nil || req.PrivateKey == "" {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "privatekey is required"))
	}
	a, err := s.Staking.Withdraw(c.Request().Context(), clientIP(c), req.PrivateKey, req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"address": a})
}

func (s *Server) handleValidator(c echo.Context) error {
	return ok(c, http.StatusOK, echo.Map{"validator": s.Staking.Validator()})
}

func (s *Server) handlePenalties(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, err := s.Staking.Penalties(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"addresses": rows, "count": len(rows)})
}
