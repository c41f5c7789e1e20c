package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

func (s *Server) registerLookup(e *echo.Echo) {
	e.GET("/lookup/addresses/:addresses", s.handleLookupAddresses)
	e.GET("/lookup/blocks/:heights", s.handleLookupBlocks)
	e.GET("/lookup/transactions/:ids", s.handleLookupTransactions)
	e.GET("/lookup/names/:names", s.handleLookupNames)
}

func (s *Server) handleLookupAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	out := echo.Map{}
	for _, a := range splitCSV(c.Param("addresses")) {
		row, err := s.Ledger.Get(ctx, a)
		if err != nil {
			out[a] = nil
			continue
		}
		out[a] = row
	}
	return ok(c, http.StatusOK, echo.Map{"addresses": out})
}

func (s *Server) handleLookupBlocks(c echo.Context) error {
	ctx := c.Request().Context()
	out := echo.Map{}
	for _, h := range splitCSV(c.Param("heights")) {
		n, err := strconv.ParseUint(h, 10, 64)
		if err != nil {
			continue
		}
		b, err := s.Block.Get(ctx, n)
		if err != nil {
			out[h] = nil
			continue
		}
		out[h] = b
	}
	return ok(c, http.StatusOK, echo.Map{"blocks": out})
}

func (s *Server) handleLookupTransactions(c echo.Context) error {
	ctx := c.Request().Context()
	out := echo.Map{}
	for _, idStr := range splitCSV(c.Param("ids")) {
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			continue
		}
		t, err := s.Tx.Get(ctx, id)
		if err != nil {
			out[idStr] = nil
			continue
		}
		out[idStr] = t
	}
	return ok(c, http.StatusOK, echo.Map{"transactions": out})
}

func (s *Server) handleLookupNames(c echo.Context) error {
	ctx := c.Request().Context()
	out := echo.Map{}
	for _, n := range splitCSV(c.Param("names")) {
		row, err := s.Names.Get(ctx, n)
		if err != nil {
			out[n] = nil
			continue
		}
		out[n] = row
	}
	return ok(c, http.StatusOK, echo.Map{"names": out})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
