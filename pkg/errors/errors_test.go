package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsDefinitionAndCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(StoreError, cause)

	assert.True(t, stderrors.Is(err, StoreError))
	assert.True(t, stderrors.Is(err, cause))

	def, ok := As(fmt.Errorf("check in: %w", err))
	assert.True(t, ok)
	assert.Equal(t, "STORE_ERROR", def.Code)
}

func TestWrap_NilCause(t *testing.T) {
	assert.Equal(t, error(NotEligible), Wrap(NotEligible, nil))
}

func TestIs_ComparesCodeOnly(t *testing.T) {
	custom := NotEligible.WithMessage("outside every zone")
	assert.True(t, stderrors.Is(custom, NotEligible))
	assert.False(t, stderrors.Is(custom, NoCheckInYet))
}

func TestGet(t *testing.T) {
	assert.Equal(t, GrantNotPending, Get("GRANT_NOT_PENDING"))
	assert.Equal(t, "Unexpected error", Get("NOPE").Message)
}
