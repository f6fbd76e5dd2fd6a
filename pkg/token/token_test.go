package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	signed, err := Sign("s3cret", "emp-1", RoleAdmin, time.Minute)
	require.NoError(t, err)

	claims, err := Parse("s3cret", signed)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.EmployeeID)
	assert.True(t, claims.IsAdmin())
}

func TestParse_WrongSecret(t *testing.T) {
	signed, err := Sign("s3cret", "emp-1", RoleEmployee, time.Minute)
	require.NoError(t, err)

	_, err = Parse("other", signed)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	signed, err := Sign("s3cret", "emp-1", RoleEmployee, -time.Minute)
	require.NoError(t, err)

	_, err = Parse("s3cret", signed)
	assert.Error(t, err)
}

func TestFromMap(t *testing.T) {
	claims, err := FromMap(map[string]interface{}{IdentityKey: float64(42)})
	require.NoError(t, err)
	assert.Equal(t, "42", claims.EmployeeID)
	assert.Equal(t, RoleEmployee, claims.Role)

	_, err = FromMap(map[string]interface{}{})
	assert.ErrorIs(t, err, ErrEmployeeIDNotFound)
}
