package converter

// Safari Content Blocker Regex Constraints
//
// WebKit compiles url-filter values with a strict subset of JavaScript
// regular expressions. A rule using anything outside of it makes the whole
// content blocker fail to load, so such rules are rejected up front.
//
// SUPPORTED FEATURES:
// - . (dot)           - Match any single character
// - [a-z] [^a-z]      - Character ranges and negated classes
// - ()                - Grouping
// - * + ?             - Greedy quantifiers
// - ^ $               - Anchors at the beginning and the end of the pattern
// - \. \/ \\ etc      - Escaped literal characters
//
// REJECTED:
// - {n} {n,} {n,m}    - Numeric quantifiers
// - |                 - Alternation
// - (?!...)           - Negative lookahead
// - \b \d \s \w ...   - Metacharacters
// - Non-ASCII chars   - Must be punycode or percent-encoded

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/bnema/safari-cb-converter/internal/models"
)

// regexRestriction is a url-filter construct Safari refuses to compile
type regexRestriction struct {
	re      *regexp.Regexp
	message string
}

// Checked in order, the first match wins
var regexRestrictions = []regexRestriction{
	{re: regexp.MustCompile(`\{[0-9,]+\}`), message: "'{digit}' in regular expressions"},
	{re: regexp.MustCompile(`[^\\]+\|+\S*`), message: "'|' in regular expressions"},
	{re: regexp.MustCompile(`[^\x00-\x7F]`), message: "non-ASCII characters in regular expressions"},
	{re: regexp.MustCompile(`\(\?!.*\)`), message: "negative lookahead in regular expressions"},
	{re: regexp.MustCompile(`[^\\]\\[bBdDfnrsStvwW]`), message: "metacharacters in regular expressions"},
}

// ValidateURLFilter checks a url-filter against the Safari regex dialect
func ValidateURLFilter(urlFilter string) error {
	for _, r := range regexRestrictions {
		if r.re.MatchString(urlFilter) {
			return fmt.Errorf("%w %s", ErrUnsupportedRegex, r.message)
		}
	}

	if _, err := regexp.Compile(urlFilter); err != nil {
		return fmt.Errorf("%w the regular expression: %v", ErrUnsupportedRegex, err)
	}

	return nil
}

// validateBlocking rejects document blocking rules that are not scoped by
// if-domain or third-party
func validateBlocking(rule *models.WebKitRule) error {
	t := rule.Trigger
	if rule.Action.Type == models.ActionBlock &&
		slices.Contains(t.ResourceType, models.ResourceDocument) &&
		len(t.IfDomain) == 0 &&
		!slices.Contains(t.LoadType, models.LoadThirdParty) {
		return ErrDocumentBlocking
	}
	return nil
}

// WebKitRegexIssue describes a problem found in a regex pattern
type WebKitRegexIssue struct {
	Pattern     string
	Issue       string
	Fixable     bool
	Replacement string
}

// Metacharacters and their bracket expression equivalents
var metacharacters = []struct {
	match       string
	replacement string
}{
	{`\w`, `[a-zA-Z0-9_]`},
	{`\W`, `[^a-zA-Z0-9_]`},
	{`\d`, `[0-9]`},
	{`\D`, `[^0-9]`},
	{`\s`, `[ \t\n\r\f\v]`},
	{`\S`, `[^ \t\n\r\f\v]`},
	{`\b`, ""},
	{`\B`, ""},
	{`\f`, ""},
	{`\n`, ""},
	{`\r`, ""},
	{`\t`, ""},
	{`\v`, ""},
}

// CheckWebKitCompatibility lists every construct of pattern Safari rejects
func CheckWebKitCompatibility(pattern string) []WebKitRegexIssue {
	var issues []WebKitRegexIssue

	for _, mc := range metacharacters {
		if containsUnescaped(pattern, mc.match) {
			issues = append(issues, WebKitRegexIssue{
				Pattern:     pattern,
				Issue:       "metacharacter: " + mc.match,
				Fixable:     mc.replacement != "",
				Replacement: mc.replacement,
			})
		}
	}

	for _, r := range regexRestrictions[:4] {
		if m := r.re.FindString(pattern); m != "" {
			issues = append(issues, WebKitRegexIssue{
				Pattern: pattern,
				Issue:   r.message,
			})
		}
	}

	unsupportedGroups := []struct {
		prefix string
		name   string
	}{
		{`(?<!`, "negative lookbehind"},
		{`(?<=`, "positive lookbehind"},
		{`(?=`, "positive lookahead"},
		{`(?P<`, "named group"},
		{`\p{`, "unicode property"},
		{`\P{`, "unicode property"},
	}

	for _, g := range unsupportedGroups {
		if strings.Contains(pattern, g.prefix) {
			issues = append(issues, WebKitRegexIssue{
				Pattern: pattern,
				Issue:   g.name,
			})
		}
	}

	return issues
}

// HasUnfixableIssues returns true if the pattern has issues that cannot be fixed
func HasUnfixableIssues(pattern string) bool {
	for _, issue := range CheckWebKitCompatibility(pattern) {
		if !issue.Fixable {
			return true
		}
	}
	return false
}

// SuggestFix applies the replacements of all fixable issues
func SuggestFix(pattern string, issues []WebKitRegexIssue) string {
	for _, issue := range issues {
		if issue.Fixable {
			pattern = replaceUnescaped(pattern, strings.TrimPrefix(issue.Issue, "metacharacter: "), issue.Replacement)
		}
	}
	return pattern
}

// DescribeIssues returns a human-readable description of all issues
func DescribeIssues(issues []WebKitRegexIssue) string {
	if len(issues) == 0 {
		return ""
	}
	var parts []string
	for _, issue := range issues {
		parts = append(parts, issue.Issue)
	}
	return strings.Join(parts, ", ")
}

// containsUnescaped reports whether the two-char escape seq appears in
// pattern with an unescaped backslash
func containsUnescaped(pattern, seq string) bool {
	return indexUnescaped(pattern, seq, 0) >= 0
}

func replaceUnescaped(pattern, seq, replacement string) string {
	var sb strings.Builder
	from := 0
	for {
		i := indexUnescaped(pattern, seq, from)
		if i < 0 {
			break
		}
		sb.WriteString(pattern[from:i])
		sb.WriteString(replacement)
		from = i + len(seq)
	}
	sb.WriteString(pattern[from:])
	return sb.String()
}

func indexUnescaped(pattern, seq string, from int) int {
	for from < len(pattern) {
		i := strings.Index(pattern[from:], seq)
		if i < 0 {
			return -1
		}
		i += from
		// Count the backslashes before the match
		n := 0
		for j := i - 1; j >= 0 && pattern[j] == '\\'; j-- {
			n++
		}
		if n%2 == 0 {
			return i
		}
		from = i + 1
	}
	return -1
}
