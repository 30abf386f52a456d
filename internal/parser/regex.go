package parser

import (
	"regexp"
	"strings"
)

// Filter pattern masks
const (
	MaskStartURL  = "||"
	MaskPipe      = "|"
	MaskAnySymbol = "*"
	MaskSeparator = "^"
	MaskRegexRule = "/"
)

// Regex fragments generated from the masks. RegexStartURL and
// RegexSeparator are the generic forms; platform converters rewrite them.
const (
	RegexAnySymbol   = ".*"
	RegexStartURL    = `^(http|https|ws|wss)://([a-z0-9-_.]+\.)?`
	RegexSeparator   = `([^ a-zA-Z0-9.%_-]|$)`
	RegexStartString = "^"
	RegexEndString   = "$"
)

// Characters escaped in plain patterns
var reSpecialChars = regexp.MustCompile(`[.*+?^${}()|[\]\\/]`)

// Escaped forms of the masks, as they appear after escaping
var (
	escapedStartURL  = reSpecialChars.ReplaceAllString(MaskStartURL, `\$0`)
	escapedPipe      = reSpecialChars.ReplaceAllString(MaskPipe, `\$0`)
	escapedAnySymbol = reSpecialChars.ReplaceAllString(MaskAnySymbol, `\$0`)
	escapedSeparator = reSpecialChars.ReplaceAllString(MaskSeparator, `\$0`)
)

// CreateRegexText converts a basic filter pattern to a regex source
func CreateRegexText(pattern string) string {
	if pattern == MaskStartURL || pattern == MaskPipe || pattern == MaskAnySymbol {
		return RegexAnySymbol
	}

	regex := reSpecialChars.ReplaceAllString(pattern, `\$0`)

	regex = strings.ReplaceAll(regex, escapedAnySymbol, RegexAnySymbol)
	regex = strings.ReplaceAll(regex, escapedSeparator, RegexSeparator)

	// Anchors
	if strings.HasPrefix(regex, escapedStartURL) {
		regex = RegexStartURL + regex[len(escapedStartURL):]
	} else if strings.HasPrefix(regex, escapedPipe) {
		regex = RegexStartString + regex[len(escapedPipe):]
	}

	if strings.HasSuffix(regex, escapedPipe) {
		regex = regex[:len(regex)-len(escapedPipe)] + RegexEndString
	}

	return regex
}

// isRegexPattern checks for a /regex/ pattern
func isRegexPattern(pattern string) bool {
	return len(pattern) > 1 &&
		strings.HasPrefix(pattern, MaskRegexRule) &&
		strings.HasSuffix(pattern, MaskRegexRule)
}
