package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/aggregates"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ErrValidation{Field: "year", Message: "must be 4 digits"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("parse: %w", &ErrValidation{Field: "order"}), http.StatusBadRequest},
		{"no snapshot", fmt.Errorf("lookup: %w", aggregates.ErrNoSnapshot), http.StatusNotFound},
		{"upstream", &aggregates.FetchError{URL: "http://x", Message: "HTTP status 500", StatusCode: 500}, http.StatusBadGateway},
		{"upstream timeout", &aggregates.FetchError{URL: "http://x", Message: "HTTP request failed", Cause: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrValidation_Error(t *testing.T) {
	err := &ErrValidation{Field: "years", Message: "must be between 1 and 30"}
	assert.Equal(t, "validation error: years - must be between 1 and 30", err.Error())
}
