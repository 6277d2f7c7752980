package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"no rows", fmt.Errorf("lookup: %w", pgx.ErrNoRows), CodeNotFound, http.StatusNotFound},
		{"malformed uuid", &pgconn.PgError{Code: "22P02"}, CodeValidation, http.StatusBadRequest},
		{"other pg error", &pgconn.PgError{Code: "23503"}, CodeInternal, http.StatusInternalServerError},
		{"plain", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
		{"domain", NewConflict("closed", nil), CodeConflict, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.status, got.HTTPStatus)
		})
	}
}

func TestMapErrorKeepsNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.True(t, HasCode(MapError(&pgconn.PgError{Code: "22P02"}), CodeValidation))
}
