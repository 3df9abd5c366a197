package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIfNoneMatchMatches(t *testing.T) {
	etag := `"abc"`

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"zzz", "abc"`, true},
		{`"zzz"`, false},
		{"*", true},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ifNoneMatchMatches(tt.header, etag), tt.header)
	}
}

func TestBuildETagIsStable(t *testing.T) {
	a, err := buildETag(map[string]string{"k": "v"})
	require.NoError(t, err)
	b, err := buildETag(map[string]string{"k": "v"})
	require.NoError(t, err)
	c, err := buildETag(map[string]string{"k": "w"})
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 34)
}
