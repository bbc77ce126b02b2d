package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatServerAddress(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		addr     string
		expected string
	}{
		{addr: ":8080", expected: "http://localhost:8080"},
		{addr: "0.0.0.0:8080", expected: "http://localhost:8080"},
		{addr: "[::]:8080", expected: "http://localhost:8080"},
		{addr: "127.0.0.1:9000", expected: "http://127.0.0.1:9000"},
		{addr: "example.test:80", expected: "http://example.test:80"},
	}
	for _, tc := range testCases {
		t.Run(tc.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, FormatServerAddress(tc.addr))
		})
	}
}

func TestIsWebURL(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		raw      string
		expected bool
	}{
		{raw: "https://www.youtube.com/watch?v=abc", expected: true},
		{raw: " http://example.test/video ", expected: true},
		{raw: "ftp://example.test/video", expected: false},
		{raw: "youtube.com/watch?v=abc", expected: false},
		{raw: "abc", expected: false},
		{raw: "", expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, IsWebURL(tc.raw))
		})
	}
}
