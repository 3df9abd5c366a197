package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestAsFindsWrappedSentinel(t *testing.T) {
	sentinel := NotFound("thing_not_found", "Thing not found")
	wrapped := fmt.Errorf("load thing: %w", sentinel)

	got, ok := As(wrapped)
	require.True(t, ok)
	require.Same(t, sentinel, got)
	require.True(t, errors.Is(wrapped, sentinel))

	_, ok = As(errors.New("boom"))
	require.False(t, ok)
}
