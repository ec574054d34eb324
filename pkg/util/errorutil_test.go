package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := NewInvalidTransition("PENDING", "CLOSED", nil)
	assert.True(t, HasCode(err, CodeInvalidTransition))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	domainErr := ToDomainError(pgx.ErrNoRows)
	require.NotNil(t, domainErr)
	assert.Equal(t, CodeNotFound, domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	domainErr := ToDomainError(errors.New("boom"))
	require.NotNil(t, domainErr)
	assert.Equal(t, CodeInternal, domainErr.Code)
}

func TestMapErrorNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
}

func TestCollaboratorTimeoutUnwraps(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := NewCollaboratorTimeout("geocoder", cause)
	assert.True(t, HasCode(err, CodeCollaboratorTimeout))
	assert.ErrorIs(t, err, cause)
}
