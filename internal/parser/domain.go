package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Prefixes stripped before the domain part of a URL rule, in priority order
var domainPrefixes = []string{"http://www.", "https://www.", "http://", "https://", "||", "//"}

// Characters ending the domain part, in priority order
var domainTerminators = []string{"/", "^"}

var reValidDomain = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-.]*[a-zA-Z0-9]\.[a-zA-Z-]{2,}$`)

// DomainInfo is the domain and remaining path extracted from a URL rule
type DomainInfo struct {
	Domain string // punycode, lower-case
	Path   string // starts with "/" or "^", empty when the rule has no path
}

// ParseRuleDomain extracts the domain a URL rule text targets.
// It returns false when the text does not start with a valid domain name.
func ParseRuleDomain(ruleText string) (DomainInfo, bool) {
	start := domainStart(ruleText)

	// An explicit domain= option wins
	if idx := strings.Index(ruleText, "domain="); idx > -1 && strings.Contains(ruleText, "$") {
		start = idx + len("domain=")
	}

	domain, path := splitDomainPath(ruleText, start)
	domain = ToPunycode(domain)
	if !reValidDomain.MatchString(domain) {
		return DomainInfo{}, false
	}

	return DomainInfo{Domain: domain, Path: path}, true
}

func domainStart(ruleText string) int {
	for _, prefix := range domainPrefixes {
		if strings.HasPrefix(ruleText, prefix) {
			return len(prefix)
		}
	}
	return 0
}

func splitDomainPath(ruleText string, start int) (string, string) {
	for _, t := range domainTerminators {
		if idx := strings.Index(ruleText[start:], t); idx >= 0 {
			return ruleText[start : start+idx], ruleText[start+idx:]
		}
	}
	return ruleText[start:], ""
}

// ToPunycode converts an internationalized domain name to its ASCII form.
// The input is returned lower-cased if it cannot be converted.
func ToPunycode(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if isASCII(domain) {
		return domain
	}
	ascii, err := idna.Punycode.ToASCII(domain)
	if err != nil {
		return domain
	}
	return ascii
}

// asciiDomainRule replaces a non-ASCII domain in a URL rule text with
// its punycode form
func asciiDomainRule(urlRuleText string) string {
	if isASCII(urlRuleText) {
		return urlRuleText
	}

	domain, _ := splitDomainPath(urlRuleText, domainStart(urlRuleText))
	if domain == "" {
		return urlRuleText
	}
	return strings.ReplaceAll(urlRuleText, domain, ToPunycode(domain))
}

// parseDomainList splits a "a.com,~b.com" or "a.com|~b.com" list into
// permitted and restricted domains
func parseDomainList(s string) (permitted, restricted []string) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' })
	for _, d := range parts {
		d = strings.TrimSpace(d)
		if strings.HasPrefix(d, "~") {
			if name := ToPunycode(d[1:]); name != "" {
				restricted = append(restricted, name)
			}
			continue
		}
		if name := ToPunycode(d); name != "" {
			permitted = append(permitted, name)
		}
	}
	return
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
