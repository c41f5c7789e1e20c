package httpapi

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/allymonies/tenebra/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) registerBlocks(e *echo.Echo) {
	e.GET("/blocks", s.handleListBlocks)
	e.GET("/blocks/last", s.handleLastBlock)
	e.GET("/blocks/:h", s.handleGetBlock)
	e.POST("/submit_block", s.handleSubmitBlock)
}

func (s *Server) handleListBlocks(c echo.Context) error {
	limit, offset := pageParams(c)
	rows, err := s.Block.List(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"blocks": rows, "count": len(rows)})
}

func (s *Server) handleLastBlock(c echo.Context) error {
	b, err := s.Block.Last(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"block": b})
}

func (s *Server) handleGetBlock(c echo.Context) error {
	h, err := strconv.ParseUint(c.Param("h"), 10, 64)
	if err != nil {
		return fail(c, errors.New(errors.ERR_INVALID_PARAMETER, "height must be an integer"))
	}
	b, err := s.Block.Get(c.Request().Context(), h)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"block": b})
}

type submitBlockRequest struct {
	Address string `json:"address"`
	Nonce   string `json:"nonce"`
}

// handleSubmitBlock implements POST /submit_block. The nonce is accepted
// either as a hex string or a raw UTF-8 string; hex decoding is attempted
// first and falls back to the raw bytes on failure.
func (s *Server) handleSubmitBlock(c echo.Context) error {
	var req submitBlockRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "invalid request body"))
	}
	if req.Address == "" || req.Nonce == "" {
		return fail(c, errors.New(errors.ERR_MISSING_PARAMETER, "address and nonce are required"))
	}

	nonce, err := hex.DecodeString(req.Nonce)
	if err != nil {
		nonce = []byte(req.Nonce)
	}

	b, newWork, err := s.Block.Submit(c.Request().Context(), clientIP(c), req.Address, nonce, c.Request().UserAgent(), c.Request().Header.Get("Origin"))
	if err != nil {
		return fail(c, err)
	}

	return ok(c, http.StatusOK, echo.Map{"block": b, "new_work": newWork})
}
