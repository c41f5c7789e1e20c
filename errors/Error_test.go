package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWrapsTrailingError(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	e := New(ERR_SERVER_ERROR, "query failed", inner)

	assert.Equal(t, ERR_SERVER_ERROR, e.Code)
	assert.Equal(t, inner, e.Unwrap())
}

func TestNewFormatsRemainingParams(t *testing.T) {
	e := New(ERR_INVALID_PARAMETER, "bad value %s", "xyz")
	assert.Equal(t, "bad value xyz", e.Message)
	assert.Nil(t, e.WrappedErr)
}

func TestErrorNameFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, "unknown_error", ERR(999).Name())
	assert.Equal(t, "name_taken", ERR_NAME_TAKEN.Name())
}

func TestAsUnwrapsToConcreteError(t *testing.T) {
	e := New(ERR_ADDRESS_NOT_FOUND, "address not found")

	var target *Error
	require.True(t, As(e, &target))
	assert.Equal(t, ERR_ADDRESS_NOT_FOUND, target.Code)
}

func TestIsMatchesOnCode(t *testing.T) {
	a := New(ERR_NAME_TAKEN, "taken")
	b := New(ERR_NAME_TAKEN, "taken again")
	assert.True(t, a.Is(b))

	c := New(ERR_NAME_NOT_FOUND, "not found")
	assert.False(t, a.Is(c))
}
