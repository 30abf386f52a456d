package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateRegexText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "domain anchor with separator",
			input:    "||example.org^",
			expected: RegexStartURL + `example\.org` + RegexSeparator,
		},
		{
			name:     "start and end anchors",
			input:    "|https://example.org/ad|",
			expected: `^https:\/\/example\.org\/ad$`,
		},
		{
			name:     "wildcard",
			input:    "/ads/*.js",
			expected: `\/ads\/.*\.js`,
		},
		{
			name:     "special characters are escaped",
			input:    "example.org/a+b?c=(1)",
			expected: `example\.org\/a\+b\?c=\(1\)`,
		},
		{
			name:     "start url mask alone",
			input:    "||",
			expected: ".*",
		},
		{
			name:     "pipe alone",
			input:    "|",
			expected: ".*",
		},
		{
			name:     "any symbol alone",
			input:    "*",
			expected: ".*",
		},
		{
			name:     "path with separator in the middle",
			input:    "||example.org^ads^",
			expected: RegexStartURL + `example\.org` + RegexSeparator + "ads" + RegexSeparator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CreateRegexText(tt.input))
		})
	}
}

func TestIsRegexPattern(t *testing.T) {
	assert.True(t, isRegexPattern(`/banner\d+/`))
	assert.False(t, isRegexPattern("/"))
	assert.False(t, isRegexPattern("/ads/banner"))
	assert.False(t, isRegexPattern("||example.org^"))
}
