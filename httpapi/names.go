package httpapi

import (
	"net/http"

	"github.com/allymonies/tenebra/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerNames(e *echo.Echo) {
	e.GET("/names", s.handleListNames)
	e.GET("/names/cost", s.handleNameCost)
	e.GET("/names/bonus", s.handleNameBonus)
	e.GET("/names/:n", s.handleGetName)
	e.POST("/names/:n", s.handlePurchaseName)
	e.POST("/names/:n/transfer", s.handleTransferName)
	e.POST("/names/:n/update", s.handleUpdateNameA)
	e.PUT("/names/:n/update", s.handleUpdateNameA)
}

func (s *Server) handleListNames(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, total, err := s.Names.List(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"names": rows, "total": total, "count": len(rows)})
}

func (s *Server) handleNameCost(c echo.Context) error {
	return ok(c, http.StatusOK, echo.Map{"name_cost": s.Names.Cost()})
}

func (s *Server) handleNameBonus(c echo.Context) error {
	n, err := s.Names.Bonus(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"name_bonus": n})
}

func (s *Server) handleGetName(c echo.Context) error {
	n, err := s.Names.Get(c.Request().Context(), c.Param("n"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"name": n})
}

type namePurchaseRequest struct {
	PrivateKey string `json:"privatekey"`
}

func (s *Server) handlePurchaseName(c echo.Context) error {
	var req namePurchaseRequest
	if err := c.Bind(&req); err != nil || req.PrivateKey == "" {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "privatekey is required"))
	}
	n, err := s.Names.Purchase(c.Request().Context(), clientIP(c), req.PrivateKey, c.Param("n"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"name": n})
}

type nameTransferRequest struct {
	PrivateKey string `json:"privatekey"`
	Address    string `json:"address"`
}

func (s *Server) handleTransferName(c echo.Context) error {
	var req nameTransferRequest
	if err := c.Bind(&req); err != nil || req.PrivateKey == "" || req.Address == "" {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "privatekey and address are required"))
	}
	n, err := s.Names.Transfer(c.Request().Context(), clientIP(c), req.PrivateKey, c.Param("n"), req.Address)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"name": n})
}

type nameUpdateRequest struct {
	PrivateKey string `json:"privatekey"`
	A          string `json:"a"`
}

func (s *Server) handleUpdateNameA(c echo.Context) error {
	var req nameUpdateRequest
	if err := c.Bind(&req); err != nil || req.PrivateKey == "" {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "privatekey is required"))
	}
	n, err := s.Names.UpdateA(c.Request().Context(), clientIP(c), req.PrivateKey, c.Param("n"), req.A)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"name": n})
}
