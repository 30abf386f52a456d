package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRuleDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected DomainInfo
		valid    bool
	}{
		{
			name:     "domain anchor",
			input:    "||example.org^",
			expected: DomainInfo{Domain: "example.org", Path: "^"},
			valid:    true,
		},
		{
			name:     "domain with path",
			input:    "||hulu.com/page",
			expected: DomainInfo{Domain: "hulu.com", Path: "/page"},
			valid:    true,
		},
		{
			name:     "scheme with www",
			input:    "https://www.example.org/",
			expected: DomainInfo{Domain: "example.org", Path: "/"},
			valid:    true,
		},
		{
			name:     "protocol relative",
			input:    "//example.org",
			expected: DomainInfo{Domain: "example.org"},
			valid:    true,
		},
		{
			name:     "upper case is lowered",
			input:    "||Example.ORG^",
			expected: DomainInfo{Domain: "example.org", Path: "^"},
			valid:    true,
		},
		{
			name:     "domain option overrides the pattern",
			input:    "$image,domain=moonwalk.cc",
			expected: DomainInfo{Domain: "moonwalk.cc"},
			valid:    true,
		},
		{
			name:     "internationalized domain",
			input:    "||пример.com^",
			expected: DomainInfo{Domain: "xn--e1afmkfd.com", Path: "^"},
			valid:    true,
		},
		{
			name:  "punycode top level domain",
			input: "||почта.рф^",
		},
		{
			name:  "not a domain",
			input: "/banner/ads",
		},
		{
			name:  "single label",
			input: "||localhost^",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := ParseRuleDomain(tt.input)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.expected, info)
			}
		})
	}
}

func TestToPunycode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "example.org", expected: "example.org"},
		{input: " Example.Org ", expected: "example.org"},
		{input: "пример.рф", expected: "xn--e1afmkfd.xn--p1ai"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToPunycode(tt.input))
		})
	}
}

func TestParseDomainList(t *testing.T) {
	permitted, restricted := parseDomainList("a.com,~b.com|c.com, ~d.com")
	assert.Equal(t, []string{"a.com", "c.com"}, permitted)
	assert.Equal(t, []string{"b.com", "d.com"}, restricted)

	permitted, restricted = parseDomainList("")
	assert.Empty(t, permitted)
	assert.Empty(t, restricted)
}

func TestSplitEscaped(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitEscaped("a,b,,c", ','))
	assert.Equal(t, []string{"a,b", "c"}, splitEscaped(`a\,b,c`, ','))
	assert.Nil(t, splitEscaped("", ','))
}
