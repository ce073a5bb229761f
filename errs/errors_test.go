package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanErrorFormatting(t *testing.T) {
	cause := errors.New("net: timeout")
	err := NewNavigation("airbnb", "Sea Point", "navigation failed", 3, cause)

	assert.Equal(t, "[navigation] airbnb/Sea Point: navigation failed (after 3 attempts): net: timeout", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := NewRateBudget("daily request budget of 5000 exhausted")
	assert.Equal(t, "[rate_budget]: daily request budget of 5000 exhausted", bare.Error())
}

func TestRetryable(t *testing.T) {
	assert.True(t, NewNavigation("airbnb", "Sea Point", "x", 1, nil).Retryable())
	assert.True(t, NewPersistence("airbnb", "x", nil).Retryable())
	assert.False(t, NewInitialization("Sea Point", "x", nil).Retryable())
	assert.False(t, NewRateBudget("x").Retryable())
	assert.False(t, NewExtraction("airbnb", "x", nil).Retryable())
}

func TestTypeOf(t *testing.T) {
	err := NewInitialization("Sea Point", "chrome missing", nil)
	assert.Equal(t, TypeInitialization, TypeOf(err))

	wrapped := NewNavigation("booking.com", "Sea Point", "wrap", 2,
		NewRateBudget("exhausted"))
	assert.Equal(t, TypeNavigation, TypeOf(wrapped), "outermost type wins")

	assert.Equal(t, Type(""), TypeOf(errors.New("plain")))
	assert.Equal(t, Type(""), TypeOf(nil))
}
