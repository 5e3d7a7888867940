package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStatusCodeMatcher(t *testing.T) {
	tests := []struct {
		name     string
		codes    []string
		expected []string
		wantErr  bool
	}{
		{"nil defaults to any", nil, []string{"xxx"}, false},
		{"single code", []string{"200"}, []string{"200"}, false},
		{"multiple codes", []string{"200", "4xx", "x0x"}, []string{"200", "4xx", "x0x"}, false},
		{"invalid character", []string{"200", "4y4"}, nil, true},
		{"too long", []string{"2000", "404"}, nil, true},
		{"too short", []string{"20"}, nil, true},
		{"upper-case wildcard", []string{"2XX"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewStatusCodeMatcher(tt.codes)
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrInvalidStatusCode))
				var argErr *StatusCodeMatcherArgumentError
				require.ErrorAs(t, err, &argErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, m.Codes())
		})
	}
}

func TestStatusCodeMatcherMatches(t *testing.T) {
	tests := []struct {
		name     string
		codes    []string
		code     string
		expected bool
	}{
		{"default matches anything", nil, "200", true},
		{"default matches 503", nil, "503", true},
		{"exact match", []string{"200", "4xx", "x5x"}, "200", true},
		{"partial match 4xx", []string{"200", "4xx", "x5x"}, "401", true},
		{"partial match x5x", []string{"200", "4xx", "x5x"}, "454", true},
		{"no match", []string{"200", "4xx", "x5x"}, "202", false},
		{"2xx matches 200", []string{"2xx"}, "200", true},
		{"2xx matches 299", []string{"2xx"}, "299", true},
		{"2xx rejects 300", []string{"2xx"}, "300", false},
		{"non-digit code", []string{"xxx"}, "2a0", false},
		{"wrong length", []string{"xxx"}, "2000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewStatusCodeMatcher(tt.codes)
			require.NoError(t, err)
			require.Equal(t, tt.expected, m.Matches(tt.code))
		})
	}
}

func TestStatusCodeMatcherExampleStatusCode(t *testing.T) {
	tests := []struct {
		codes    []string
		expected string
	}{
		{[]string{"404"}, "404"},
		{nil, "200"},
		{[]string{"4xx"}, "400"},
		{[]string{"x0x"}, "200"},
		{[]string{"4xx", "x0x"}, "400"},
		{[]string{"x1x"}, "210"},
	}

	for _, tt := range tests {
		m, err := NewStatusCodeMatcher(tt.codes)
		require.NoError(t, err)
		require.Equal(t, tt.expected, m.ExampleStatusCode(), "codes %v", tt.codes)
	}
}
