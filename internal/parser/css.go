package parser

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/bnema/safari-cb-converter/internal/models"
)

// Cosmetic rule markers, longest first so that the first match wins
const (
	markerExceptionInjectExtCSS = "#@$?#"
	markerInjectExtCSS          = "#$?#"
	markerExceptionInject       = "#@$#"
	markerInject                = "#$#"
	markerExceptionExtCSS       = "#@?#"
	markerExtCSS                = "#?#"
	markerException             = "#@#"
	markerHide                  = "##"
)

var cssMarkers = []string{
	markerExceptionInjectExtCSS,
	markerInjectExtCSS,
	markerExceptionInject,
	markerInject,
	markerExceptionExtCSS,
	markerExtCSS,
	markerException,
	markerHide,
}

var (
	whitelistMarkers = []string{markerException, markerExceptionInject, markerExceptionExtCSS, markerExceptionInjectExtCSS}
	extCSSMarkers    = []string{markerExceptionInjectExtCSS, markerInjectExtCSS, markerExceptionExtCSS, markerExtCSS}
	injectMarkers    = []string{markerExceptionInjectExtCSS, markerInjectExtCSS, markerExceptionInject, markerInject}
)

// Pseudo classes browsers (or ExtendedCss) understand. An unknown one
// makes the browser drop the whole stylesheet.
var supportedPseudoClasses = []string{
	":active", ":checked", ":contains", ":disabled", ":empty", ":enabled", ":first-child",
	":first-of-type", ":focus", ":has", ":has-text", ":hover", ":if", ":if-not", ":in-range",
	":invalid", ":lang", ":last-child", ":last-of-type", ":link", ":matches-css",
	":matches-css-before", ":matches-css-after", ":not", ":nth-child", ":nth-last-child",
	":nth-last-of-type", ":nth-of-type", ":only-child", ":only-of-type", ":optional",
	":out-of-range", ":properties", ":read-only", ":read-write", ":required", ":root",
	":target", ":valid", ":visited", ":-abp-has", ":-abp-contains", ":-abp-properties",
}

// Selector fragments that require the ExtendedCss engine
var extendedCSSMarkers = []string{
	"[-ext-has=", "[-ext-contains=", "[-ext-has-text=", "[-ext-matches-css=",
	"[-ext-matches-css-before=", "[-ext-matches-css-after=", ":has(", ":has-text(",
	":contains(", ":matches-css(", ":matches-css-before(", ":matches-css-after(",
	":-abp-has(", ":-abp-contains(", ":if(", ":if-not(", ":properties(", ":-abp-properties(",
}

// Characters ending a pseudo class name
const pseudoNameTerminators = " \t>([.#:+~\"'"

var reStyleBlock = regexp.MustCompile(`{.+}`)

// findCSSMarker returns the cosmetic marker starting at the first '#'
func findCSSMarker(line string) (string, int) {
	idx := strings.IndexByte(line, '#')
	if idx == -1 {
		return "", -1
	}
	for _, m := range cssMarkers {
		if strings.HasPrefix(line[idx:], m) {
			return m, idx
		}
	}
	return "", -1
}

// parseCSS parses an element hiding or CSS injection rule
func parseCSS(line, marker string, idx int) (*models.CSSRule, error) {
	rule := &models.CSSRule{
		RuleBase: models.RuleBase{
			Text:      line,
			Whitelist: slices.Contains(whitelistMarkers, marker),
		},
		Inject:      slices.Contains(injectMarkers, marker),
		ExtendedCSS: slices.Contains(extCSSMarkers, marker),
	}

	if idx > 0 {
		rule.PermittedDomains, rule.RestrictedDomains = parseDomainList(line[:idx])
	}

	content := line[idx+len(marker):]
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptySelector
	}

	if !rule.Inject {
		// uBlock-style :style() injections and pseudo class validation
		if pc, ok := parsePseudoClass(content); ok {
			if pc.name == ":style" {
				converted, err := convertStyleInjection(pc, content)
				if err != nil {
					return nil, err
				}
				rule.Inject = true
				content = converted
			} else if !slices.Contains(supportedPseudoClasses, pc.name) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPseudoClass, content)
			}
		}
	}

	if rule.Inject && !reStyleBlock.MatchString(content) {
		return nil, fmt.Errorf("%w: no style presented: %s", ErrInvalidCSSInject, line)
	}

	for _, m := range extendedCSSMarkers {
		if strings.Contains(content, m) {
			rule.ExtendedCSS = true
			break
		}
	}

	rule.Selector = content
	return rule, nil
}

type pseudoClass struct {
	name  string
	start int
}

// parsePseudoClass finds the first pseudo class outside of attribute selectors
func parsePseudoClass(selector string) (pseudoClass, bool) {
	begin := 0
	nameStart := -1
	bracket := 0

	for bracket >= 0 {
		nameStart = indexFrom(selector, ":", begin)
		if nameStart < 0 {
			return pseudoClass{}, false
		}
		if nameStart > 0 && selector[nameStart-1] == '\\' {
			// Escaped colon
			return pseudoClass{}, false
		}

		bracket = indexFrom(selector, "[", begin)
		for bracket >= 0 {
			if nameStart <= bracket {
				bracket = -1
				break
			}
			bracketEnd := indexFrom(selector, "]", bracket+1)
			begin = bracketEnd + 1
			if nameStart < bracketEnd {
				// Colon is inside an attribute selector like a[href^="http://"]
				break
			}
			if bracketEnd < 0 {
				return pseudoClass{}, false
			}
			bracket = indexFrom(selector, "[", begin)
		}
	}

	nameEnd := -1
	if i := strings.IndexAny(selector[nameStart+1:], pseudoNameTerminators); i >= 0 {
		nameEnd = nameStart + 1 + i
	} else {
		nameEnd = len(selector)
	}

	name := selector[nameStart:nameEnd]
	if len(name) <= 1 {
		// Empty name or a pseudo element like ::after
		return pseudoClass{}, false
	}

	return pseudoClass{name: name, start: nameStart}, true
}

// convertStyleInjection turns "sel:style(prop: val)" into "sel { prop: val }"
func convertStyleInjection(pc pseudoClass, content string) (string, error) {
	selector := content[:pc.start]
	styleStart := pc.start + len(pc.name) + 1
	styleEnd := len(content) - 1

	if styleEnd <= styleStart {
		return "", fmt.Errorf("%w: empty :style pseudo class: %s", ErrInvalidCSSInject, content)
	}

	style := content[styleStart:styleEnd]
	if strings.TrimSpace(selector) == "" || strings.TrimSpace(style) == "" {
		return "", fmt.Errorf("%w: wrong :style syntax: %s", ErrInvalidCSSInject, content)
	}

	return selector + " { " + style + " }", nil
}

func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	if from < 0 {
		from = 0
	}
	i := strings.Index(s[from:], substr)
	if i < 0 {
		return -1
	}
	return from + i
}
