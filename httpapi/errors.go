// Package httpapi is the HTTP adapter: one echo handler per endpoint,
// translating core-engine errors into the {ok:false,error:...} JSON shape
// and its status code. It holds no business logic.
package httpapi

import (
	"net/http"

	"github.com/allymonies/tenebra/errors"
	"github.com/labstack/echo/v4"
)

var statusByCode = map[errors.ERR]int{
	errors.ERR_MISSING_PARAMETER:    http.StatusBadRequest,
	errors.ERR_INVALID_PARAMETER:    http.StatusBadRequest,
	errors.ERR_LARGE_PARAMETER:      http.StatusBadRequest,
	errors.ERR_AUTH_FAILED:         http.StatusUnauthorized,
	errors.ERR_ADDRESS_NOT_FOUND:    http.StatusNotFound,
	errors.ERR_NAME_NOT_FOUND:       http.StatusNotFound,
	errors.ERR_BLOCK_NOT_FOUND:      http.StatusNotFound,
	errors.ERR_TRANSACTION_NOT_FOUND: http.StatusNotFound,
	errors.ERR_INSUFFICIENT_FUNDS:   http.StatusForbidden,
	errors.ERR_NOT_NAME_OWNER:       http.StatusForbidden,
	errors.ERR_SOLUTION_INCORRECT:   http.StatusForbidden,
	errors.ERR_UNSELECTED_VALIDATOR: http.StatusForbidden,
	errors.ERR_INVALID_TOKEN:        http.StatusForbidden,
	errors.ERR_NAME_TAKEN:           http.StatusConflict,
	errors.ERR_SOLUTION_DUPLICATE:   http.StatusConflict,
	errors.ERR_MINING_DISABLED:      423,
	errors.ERR_RATE_LIMIT_HIT:       http.StatusTooManyRequests,
}

// fail writes the {ok:false,error:<kind>} body for err, logging unexpected
// (server_error) failures. The body carries no parameter field.
func fail(c echo.Context, err error) error {
	ee, ok := err.(*errors.Error)
	if !ok {
		ee = errors.New(errors.ERR_SERVER_ERROR, "%v", err)
	}

	status, ok := statusByCode[ee.Code]
	if !ok {
		status = http.StatusInternalServerError
		c.Logger().Errorf("server error: %v", ee)
	}

	return c.JSON(status, echo.Map{"ok": false, "error": ee.Code.Name()})
}

func ok(c echo.Context, status int, fields echo.Map) error {
	if fields == nil {
		fields = echo.Map{}
	}
	fields["ok"] = true
	return c.JSON(status, fields)
}
