package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", NewUnauthenticated("no token"), http.StatusUnauthorized},
		{"profile missing", Missing(), http.StatusNotFound},
		{"forbidden", NewForbidden("nope"), http.StatusForbidden},
		{"not found", NewNotFound("Job not found"), http.StatusNotFound},
		{"validation", NewValidation("bad"), http.StatusBadRequest},
		{"conflict", NewConflict("dup"), http.StatusBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped classified", fmt.Errorf("ctx: %w", NewForbidden("nope")), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessageHidesInternalCause(t *testing.T) {
	err := Internal(errors.New("pq: connection refused"))
	assert.Equal(t, "Internal server error", Message(err))
	assert.Equal(t, Unclassified, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, "Internal server error", Message(errors.New("raw")))
	assert.Equal(t, "dup", Message(NewConflict("dup")))
}

func TestKindOfDistinguishesProfileMissing(t *testing.T) {
	assert.Equal(t, ProfileMissing, KindOf(Missing()))
	assert.NotEqual(t, Forbidden, KindOf(Missing()))
}
