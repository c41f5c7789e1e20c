package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/hashutil"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerSearch(e *echo.Echo) {
	e.GET("/search", s.handleSearch)
	e.GET("/search/extended", s.handleSearchExtended)
	e.GET("/search/extended/results/transactions/:type", s.handleSearchExtendedResults)
}

// handleSearch implements a typed exact match: an address (v2 or legacy
// hex) goes to the address table, a numeric query to blocks/transactions by id, anything
// name-shaped to the registry.
func (s *Server) handleSearch(c echo.Context) error {
	q, err := searchQuery(c)
	if err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	result := echo.Map{}

	if hashutil.IsAnyAddress(q) {
		if a, err := s.Ledger.Get(ctx, q); err == nil {
			result["address"] = a
		}
	}
	if id, perr := strconv.ParseUint(q, 10, 64); perr == nil {
		if b, err := s.Block.Get(ctx, id); err == nil {
			result["block"] = b
		}
		if t, err := s.Tx.Get(ctx, id); err == nil {
			result["transaction"] = t
		}
	}
	if hashutil.IsValidNameForFetch(s.Names.StripSuffix(strings.ToLower(q))) {
		if n, err := s.Names.Get(ctx, q); err == nil {
			result["name"] = n
		}
	}

	return ok(c, http.StatusOK, echo.Map{"query": q, "results": result})
}

// handleSearchExtended reports how many transactions the query would
// match per dimension, without fetching them; the client follows up with
// /search/extended/results/transactions/:type for the rows themselves.
func (s *Server) handleSearchExtended(c echo.Context) error {
	q, err := searchQuery(c)
	if err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	matches := echo.Map{}

	if hashutil.IsAnyAddress(q) {
		n, err := s.Tx.CountForAddress(ctx, q)
		if err != nil {
			return fail(c, err)
		}
		matches["addressInvolved"] = n
	}

	name := s.Names.StripSuffix(strings.ToLower(q))
	if hashutil.IsValidName(name) {
		n, err := s.Tx.CountByName(ctx, name)
		if err != nil {
			return fail(c, err)
		}
		matches["nameInvolved"] = n
	}

	n, err2 := s.Tx.CountByMetadata(ctx, q)
	if err2 != nil {
		return fail(c, err2)
	}
	matches["metadata"] = n

	return ok(c, http.StatusOK, echo.Map{"query": q, "matches": echo.Map{"transactions": matches}})
}

// handleSearchExtendedResults pages through the transactions behind one
// of the extended-search match dimensions.
func (s *Server) handleSearchExtendedResults(c echo.Context) error {
	q, err := searchQuery(c)
	if err != nil {
		return fail(c, err)
	}
	ctx := c.Request().Context()
	limit, offset := pageParams(c)

	switch c.Param("type") {
	case "address":
		if !hashutil.IsAnyAddress(q) {
			return fail(c, errors.New(errors.ERR_INVALID_PARAMETER, "q is not an address"))
		}
		rows, err := s.Tx.ListForAddress(ctx, q, limit, offset)
		if err != nil {
			return fail(c, err)
		}
		total, err := s.Tx.CountForAddress(ctx, q)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, echo.Map{"query": q, "transactions": rows, "count": len(rows), "total": total})

	case "name":
		name := s.Names.StripSuffix(strings.ToLower(q))
		if !hashutil.IsValidName(name) {
			return fail(c, errors.New(errors.ERR_INVALID_PARAMETER, "q is not a name"))
		}
		rows, err := s.Tx.ListByName(ctx, name, limit, offset)
		if err != nil {
			return fail(c, err)
		}
		total, err := s.Tx.CountByName(ctx, name)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, echo.Map{"query": q, "transactions": rows, "count": len(rows), "total": total})

	case "metadata":
		rows, err := s.Tx.ListByMetadata(ctx, q, limit, offset)
		if err != nil {
			return fail(c, err)
		}
		total, err := s.Tx.CountByMetadata(ctx, q)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, http.StatusOK, echo.Map{"query": q, "transactions": rows, "count": len(rows), "total": total})

	default:
		return fail(c, errors.New(errors.ERR_INVALID_PARAMETER, "unknown result type"))
	}
}

func searchQuery(c echo.Context) (string, error) {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return "", errors.New(errors.ERR_MISSING_PARAMETER, "q is required")
	}
	return q, nil
}
