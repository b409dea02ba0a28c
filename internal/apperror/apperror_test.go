package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Capacity("only %d seats left", 1)

	assert.True(t, errors.Is(err, ErrCapacity))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "only 1 seats left", err.Error())
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("approve reservation: %w", NotFound("reservation %s not found", "abc"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: KindInvariant, Message: "seat counter", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "seat counter: connection reset", err.Error())
	assert.Equal(t, "invariant", err.Kind.String())
}

func TestInvalidKeepsFields(t *testing.T) {
	err := Invalid(map[string]string{"email": "Invalid email format"}, "email: Invalid email format")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Invalid email format", err.Fields["email"])
	assert.Equal(t, "validation failed: email: Invalid email format", err.Error())
}
