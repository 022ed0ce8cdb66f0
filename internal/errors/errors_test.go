package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Connectivity("no response from identity API").Wrap(cause)

	assert.Equal(t, "no response from identity API: connection reset", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrCodeCredentialRejected, CodeOf(CredentialRejected("expired")))
	assert.Equal(t, ErrCodeRefreshFailed, CodeOf(fmt.Errorf("refresh: %w", RefreshFailed("gone"))))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("plain")))
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(CredentialRejected("expired"), ErrCodeCredentialRejected))
	assert.False(t, IsCode(nil, ErrCodeCredentialRejected))
	assert.False(t, IsCode(Server("boom"), ErrCodeCredentialRejected))
}

func TestFromUpstreamStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeCredentialRejected},
		{http.StatusForbidden, ErrCodeCredentialRejected},
		{http.StatusBadRequest, ErrCodeValidation},
		{http.StatusInternalServerError, ErrCodeServer},
		{http.StatusBadGateway, ErrCodeServer},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusTeapot, ErrCodeInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FromUpstreamStatus(tc.status).Code, "status %d", tc.status)
	}
}

func TestMapDBError_Nil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(fmt.Errorf("query: %w", pgx.ErrNoRows))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeNotFound, appErr.Code)
}

func TestMapDBError_ContextErrors(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, CodeOf(MapDBError(context.DeadlineExceeded)))
	assert.Equal(t, ErrCodeCanceled, CodeOf(MapDBError(context.Canceled)))
}

func TestMapDBError_UniqueViolationParsesField(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (email)=(j.martin@example.com) already exists.",
	}

	err := MapDBError(pgErr)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeConflict, appErr.Code)
	assert.Equal(t, "email", appErr.Field)
}

func TestMapDBError_NotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "email"}

	err := MapDBError(pgErr)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeValidation, appErr.Code)
	assert.Equal(t, "email", appErr.Field)
}

func TestMapDBError_UnknownErrorWrappedAsInternal(t *testing.T) {
	err := MapDBError(errors.New("driver hiccup"))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeInternal, appErr.Code)
}
