package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(InvalidSymbol, "invalid symbol")
	assert.Equal(t, InvalidSymbol, err.Code)
	assert.Contains(t, err.Error(), "INVALID_SYMBOL")
	assert.Contains(t, err.Error(), "invalid symbol")
	assert.False(t, err.Timestamp.IsZero())
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(UpstreamUnavailable, "fetch failed", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsByCode(t *testing.T) {
	err := New(StoreError, "query failed")
	assert.True(t, errors.Is(err, New(StoreError, "anything")))
	assert.False(t, errors.Is(err, New(NoData, "anything")))
}

func TestIsCode(t *testing.T) {
	err := New(InvalidDateRange, "end before start")
	assert.True(t, IsCode(err, InvalidDateRange))
	assert.False(t, IsCode(err, InvalidSymbol))
	assert.False(t, IsCode(nil, InvalidSymbol))
	assert.False(t, IsCode(errors.New("plain"), StoreError))

	// 经过 fmt.Errorf 包装后仍能按链路识别
	wrapped := fmt.Errorf("handler: %w", New(NoData, "empty"))
	assert.True(t, IsCode(wrapped, NoData))
}

func TestWithContext(t *testing.T) {
	err := New(InvalidSymbol, "invalid symbol").
		WithContext("symbol", "xx123").
		WithContext("caller", "test")
	assert.Equal(t, "xx123", err.Context["symbol"])
	assert.Equal(t, "test", err.Context["caller"])
}
