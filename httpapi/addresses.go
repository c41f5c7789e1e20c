package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerAddresses(e *echo.Echo) {
	e.GET("/addresses", s.handleListAddresses)
	e.GET("/addresses/rich", s.handleListAddressesRich)
	e.GET("/addresses/:a", s.handleGetAddress)
	e.GET("/addresses/:a/transactions", s.handleAddressTransactions)
}

func (s *Server) handleListAddresses(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, total, err := s.Ledger.List(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"addresses": rows, "total": total, "count": len(rows)})
}

func (s *Server) handleListAddressesRich(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, err := s.Ledger.ListRich(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"addresses": rows, "count": len(rows)})
}

func (s *Server) handleGetAddress(c echo.Context) error {
	ctx := c.Request().Context()
	a, err := s.Ledger.Get(ctx, c.Param("a"))
	if err != nil {
		return fail(c, err)
	}

	if fetchNames, _ := strconv.ParseBool(c.QueryParam("fetchNames")); fetchNames {
		names, err := s.Names.CountOwned(ctx, a.Address)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, echo.Map{"address": a, "names": names})
	}

	return ok(c, http.StatusOK, echo.Map{"address": a})
}

func (s *Server) handleAddressTransactions(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, err := s.Tx.ListForAddress(c.Request().Context(), c.Param("a"), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"transactions": rows, "count": len(rows)})
}
