package response

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"GeoAttend/pkg/errors"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errors.NotEligible, http.StatusForbidden},
		{errors.OutsideZoneNoGrant, http.StatusForbidden},
		{errors.NoCheckInYet, http.StatusConflict},
		{errors.GrantNotPending, http.StatusConflict},
		{errors.ZoneNotFound, http.StatusNotFound},
		{errors.InvalidDateRange, http.StatusBadRequest},
		{errors.TooManyRequests, http.StatusTooManyRequests},
		{errors.LocationTimeout, http.StatusUnprocessableEntity},
		{errors.Wrap(errors.StoreError, stderrors.New("db down")), http.StatusInternalServerError},
		{fmt.Errorf("check out: %w", errors.NoCheckInYet), http.StatusConflict},
		{stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), tc.err.Error())
	}
}

func TestToDetail_HidesStoreCause(t *testing.T) {
	_, detail := toDetail(context.Background(), errors.Wrap(errors.StoreError, stderrors.New("password=hunter2")), nil)
	assert.Equal(t, "STORE_ERROR", detail.Code)
	assert.NotContains(t, detail.Message, "hunter2")

	_, detail = toDetail(context.Background(), stderrors.New("raw"), nil)
	assert.Equal(t, "INTERNAL_ERROR", detail.Code)
}
