package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeDiscovery, "fetch discovery document")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "fetch discovery document")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
	}{
		{Discovery("no endpoints"), IsDiscovery},
		{Refresh("invalid_grant"), IsRefresh},
		{MissingRefreshToken("no credential"), IsMissingRefreshToken},
		{Unauthorized("sign in again"), IsUnauthorized},
		{TenantMismatch("wrong tenant"), IsTenantMismatch},
		{Timeout("idp timeout"), IsTimeout},
		{NotFound("missing"), IsNotFound},
	}

	for _, tt := range tests {
		t.Run(string(GetCode(tt.err)), func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.False(t, tt.pred(errors.New("plain")))
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := Refresh("invalid_grant")
	outer := fmt.Errorf("ensure fresh: %w", Wrap(inner, ErrCodeUnauthorized, "refresh rejected"))

	// The outermost AppError code wins for GetCode...
	assert.Equal(t, ErrCodeUnauthorized, GetCode(outer))
	// ...but both layers remain discoverable.
	assert.True(t, IsUnauthorized(outer))
}

func TestMapDBError(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	assert.Equal(t, ErrCodeNotFound, GetCode(MapDBError(pgx.ErrNoRows)))
	assert.Equal(t, ErrCodeTimeout, GetCode(MapDBError(context.DeadlineExceeded)))
	assert.Equal(t, ErrCodeCanceled, GetCode(MapDBError(context.Canceled)))

	uniq := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "name"}
	mapped := MapDBError(uniq)
	assert.Equal(t, ErrCodeValidation, GetCode(mapped))
	assert.Equal(t, "name", GetField(mapped))

	other := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	assert.Equal(t, ErrCodeInternal, GetCode(MapDBError(other)))

	plain := errors.New("not a db error")
	assert.Equal(t, plain, MapDBError(plain))
}
