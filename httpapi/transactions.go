package httpapi

import (
	"net/http"
	"strconv"

	"github.com/allymonies/tenebra/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerTransactions(e *echo.Echo) {
	e.GET("/transactions", s.handleListTransactions)
	e.GET("/transactions/:id", s.handleGetTransaction)
	e.POST("/transactions", s.handlePushTransaction)
}

func (s *Server) handleListTransactions(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, err := s.Tx.List(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"transactions": rows, "count": len(rows)})
}

func (s *Server) handleGetTransaction(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, errors.New(errors.ERR_INVALID_PARAMETER, "id must be an integer"))
	}
	t, err := s.Tx.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"transaction": t})
}

type pushTransactionRequest struct {
	PrivateKey string `json:"privatekey"`
	To         string `json:"to"`
	Amount     uint64 `json:"amount"`
	Metadata   string `json:"metadata"`
}

func (s *Server) handlePushTransaction(c echo.Context) error {
	var req pushTransactionRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "invalid request body"))
	}
	if req.PrivateKey == "" || req.To == "" {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "privatekey and to are required"))
	}

	t, err := s.Tx.Send(c.Request().Context(), clientIP(c), req.PrivateKey, req.To, req.Amount, req.Metadata)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"transaction": t})
}
