package parser

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/bnema/safari-cb-converter/internal/models"
)

// Parser parses AdGuard filter rules
type Parser struct {
	stats Stats
}

// Stats tracks parsing statistics
type Stats struct {
	Total       int
	Comments    int
	URL         int
	CSS         int
	Script      int
	Errors      int
	SkipReasons map[string]int // Detailed breakdown of rejected rules
}

// SkipReason constants
const (
	SkipUnknownOption    = "unknown-option"
	SkipOptionNotAllowed = "option-not-allowed"
	SkipUnknownPseudo    = "unknown-pseudo-class"
	SkipInvalidCSSInject = "invalid-css-inject"
	SkipEmptySelector    = "empty-selector"
	SkipInvalidCSP       = "invalid-csp"
	SkipOther            = "other"
)

var skipReasons = []struct {
	err    error
	reason string
}{
	{ErrUnknownOption, SkipUnknownOption},
	{ErrOptionNotAllowed, SkipOptionNotAllowed},
	{ErrUnknownPseudoClass, SkipUnknownPseudo},
	{ErrInvalidCSSInject, SkipInvalidCSSInject},
	{ErrEmptySelector, SkipEmptySelector},
	{ErrInvalidCSP, SkipInvalidCSP},
}

// Script injection markers, checked before the CSS ones
var scriptMarkers = []string{"##script:inject(", "#@#+js(", "##+js(", "#@%#", "#%#"}

// New creates a new parser
func New() *Parser {
	return &Parser{
		stats: Stats{
			SkipReasons: make(map[string]int),
		},
	}
}

// Stats returns parsing statistics
func (p *Parser) Stats() Stats {
	return p.stats
}

// skip records a rejected rule with its reason
func (p *Parser) skip(err error) {
	p.stats.Errors++
	for _, sr := range skipReasons {
		if errors.Is(err, sr.err) {
			p.stats.SkipReasons[sr.reason]++
			return
		}
	}
	p.stats.SkipReasons[SkipOther]++
}

// ParseLine parses a single filter line. Comments, blank lines and
// other non-rule lines return a nil rule and a nil error.
func (p *Parser) ParseLine(line string) (models.Rule, error) {
	p.stats.Total++

	if isSkippable(line) {
		p.stats.Comments++
		return nil, nil
	}

	line = strings.TrimRight(line, " \t\r")

	rule, err := parseRule(line)
	if err != nil {
		p.skip(err)
		return nil, err
	}

	switch rule.(type) {
	case *models.ScriptRule:
		p.stats.Script++
	case *models.CSSRule:
		p.stats.CSS++
	case *models.URLRule:
		p.stats.URL++
	}

	return rule, nil
}

// Parse parses a single rule without collecting statistics
func Parse(line string) (models.Rule, error) {
	if isSkippable(line) {
		return nil, nil
	}
	return parseRule(strings.TrimRight(line, " \t\r"))
}

// ReadLines reads all lines of a filter list
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	return lines, scanner.Err()
}

// isSkippable reports lines that are not rules at all
func isSkippable(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	// Comments and list headers like [Adblock Plus 2.0]
	if strings.HasPrefix(line, "!") || strings.HasPrefix(line, "[") && strings.HasSuffix(strings.TrimSpace(line), "]") {
		return true
	}
	// Looks like a sentence, not a rule
	return strings.HasPrefix(line, " ") || strings.Index(line, " - ") > 0
}

func parseRule(line string) (models.Rule, error) {
	for _, m := range scriptMarkers {
		if idx := strings.Index(line, m); idx >= 0 {
			return parseScript(line, m, idx), nil
		}
	}

	if marker, idx := findCSSMarker(line); marker != "" {
		return parseCSS(line, marker, idx)
	}

	return parseURL(line)
}

func parseScript(line, marker string, idx int) *models.ScriptRule {
	rule := &models.ScriptRule{
		RuleBase: models.RuleBase{
			Text:      line,
			Whitelist: strings.Contains(marker, "@"),
		},
	}
	if idx > 0 {
		rule.PermittedDomains, rule.RestrictedDomains = parseDomainList(line[:idx])
	}

	// Scriptlet markers carry the call as part of the script
	if strings.HasSuffix(marker, "(") {
		rule.Script = line[idx+strings.LastIndex(marker, "#")+1:]
	} else {
		rule.Script = line[idx+len(marker):]
	}
	return rule
}
