package parser

import (
	"fmt"
	"strings"

	"github.com/bnema/safari-cb-converter/internal/models"
)

const (
	maskWhitelist    = "@@"
	optionsDelimiter = '$'
	escapeCharacter  = '\\'
	notMark          = "~"
)

// Options accepted but without effect on conversion
var ignoredOptions = map[string]bool{
	"background":  true,
	"~background": true,
	"extension":   true,
	"~extension":  true,
	"collapse":    true,
	"~collapse":   true,
	"~document":   true,
}

// parseURL parses a basic URL blocking or exception rule
func parseURL(line string) (*models.URLRule, error) {
	rule := &models.URLRule{
		RuleBase:              models.RuleBase{Text: line},
		PermittedContentTypes: models.ContentTypeAll,
	}

	pattern, options, whitelist := splitRuleText(line)
	rule.Whitelist = whitelist

	if options != "" {
		if err := loadOptions(rule, options); err != nil {
			return nil, err
		}
	}

	rule.Pattern = pattern
	rule.IsRegex = isRegexPattern(pattern) || pattern == "" || pattern == MaskAnySymbol
	if isRegexPattern(pattern) {
		rule.RegexSource = pattern[len(MaskRegexRule) : len(pattern)-len(MaskRegexRule)]
	}

	if rule.IsCSP() {
		if err := validateCSP(rule); err != nil {
			return nil, err
		}
	}

	return rule, nil
}

// splitRuleText separates the @@ prefix, the URL pattern and the options
func splitRuleText(line string) (pattern, options string, whitelist bool) {
	start := 0
	pattern = line
	if strings.HasPrefix(line, maskWhitelist) {
		start = len(maskWhitelist)
		pattern = line[start:]
		whitelist = true
	}

	// A regex rule may contain a dollar sign of its own
	parseOptions := !(isRegexPattern(pattern) && !strings.Contains(pattern, "replace="))

	if parseOptions {
		foundEscaped := false
		// A trailing $ is part of the pattern
		for i := len(line) - 2; i >= start; i-- {
			if line[i] != optionsDelimiter {
				continue
			}
			if i > 0 && line[i-1] == escapeCharacter {
				foundEscaped = true
				continue
			}
			pattern = line[start:i]
			options = line[i+1:]
			if foundEscaped {
				options = strings.ReplaceAll(options, `\$`, "$")
			}
			break
		}
	}

	return asciiDomainRule(pattern), options, whitelist
}

func loadOptions(rule *models.URLRule, options string) error {
	for _, option := range splitEscaped(options, ',') {
		name, value, _ := strings.Cut(option, "=")

		switch name {
		case "domain":
			if value != "" {
				permitted, restricted := parseDomainList(value)
				rule.PermittedDomains = append(rule.PermittedDomains, permitted...)
				rule.RestrictedDomains = append(rule.RestrictedDomains, restricted...)
			}
		case "third-party", "3p":
			if err := setOption(rule, models.OptionThirdParty, true); err != nil {
				return err
			}
		case "~third-party", "~3p", "first-party", "1p":
			if err := setOption(rule, models.OptionThirdParty, false); err != nil {
				return err
			}
		case "match-case":
			if err := setOption(rule, models.OptionMatchCase, true); err != nil {
				return err
			}
		case "important":
			rule.Important = true
		case "~important":
			rule.Important = false
		case "elemhide":
			if err := setOption(rule, models.OptionElemhide, true); err != nil {
				return err
			}
		case "generichide":
			if err := setOption(rule, models.OptionGenericHide, true); err != nil {
				return err
			}
		case "genericblock":
			if err := setOption(rule, models.OptionGenericBlock, true); err != nil {
				return err
			}
		case "jsinject":
			if err := setOption(rule, models.OptionJSInject, true); err != nil {
				return err
			}
		case "content":
			if err := setOption(rule, models.OptionContent, true); err != nil {
				return err
			}
		case "urlblock":
			if err := setOption(rule, models.OptionURLBlock, true); err != nil {
				return err
			}
		case "document":
			if rule.Whitelist {
				if err := setOption(rule, models.OptionsDocumentWhitelist, true); err != nil {
					return err
				}
			} else {
				appendPermitted(rule, models.ContentTypeDocument)
			}
		case "popup":
			if err := setOption(rule, models.OptionPopup, true); err != nil {
				return err
			}
		case "empty":
			if err := setOption(rule, models.OptionEmpty, true); err != nil {
				return err
			}
		case "csp":
			if err := setOption(rule, models.OptionCSP, true); err != nil {
				return err
			}
			rule.CSPDirective = value
		case "replace":
			if rule.Whitelist {
				return fmt.Errorf("%w: replace on a whitelist rule %s", ErrOptionNotAllowed, rule.Text)
			}
			rule.Replace = value
		case "badfilter":
			rule.BadFilter = badFilterTarget(rule.Text)
		default:
			if err := loadContentTypeOption(rule, option); err != nil {
				return err
			}
		}
	}

	// These options only make sense for the page itself
	if rule.EnabledOptions&models.OptionsDocumentLevel != 0 {
		rule.PermittedContentTypes = models.ContentTypeDocument
	}

	return nil
}

func loadContentTypeOption(rule *models.URLRule, option string) error {
	name := strings.ToLower(option)

	if ct, ok := models.ContentTypeByName(name); ok {
		appendPermitted(rule, ct)
		return nil
	}
	if strings.HasPrefix(name, notMark) {
		if ct, ok := models.ContentTypeByName(name[len(notMark):]); ok {
			rule.RestrictedContentTypes |= ct
			return nil
		}
	}
	if ignoredOptions[name] {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnknownOption, strings.ToUpper(option))
}

func appendPermitted(rule *models.URLRule, ct models.ContentType) {
	if rule.PermittedContentTypes == models.ContentTypeAll {
		rule.PermittedContentTypes = ct
		return
	}
	rule.PermittedContentTypes |= ct
}

// setOption enables or disables an option, rejecting options that do not
// fit the rule kind
func setOption(rule *models.URLRule, opt models.Option, enabled bool) error {
	if !enabled {
		rule.DisabledOptions |= opt
		return nil
	}

	if rule.Whitelist && models.OptionsBlacklistOnly&opt == opt ||
		!rule.Whitelist && models.OptionsWhitelistOnly&opt == opt {
		return fmt.Errorf("%w: %s", ErrOptionNotAllowed, rule.Text)
	}

	rule.EnabledOptions |= opt
	return nil
}

func validateCSP(rule *models.URLRule) error {
	// An empty directive on an exception disables all matching $csp rules
	if !rule.Whitelist && rule.CSPDirective == "" {
		return fmt.Errorf("%w: directive must not be empty", ErrInvalidCSP)
	}

	directive := strings.ToLower(rule.CSPDirective)
	if strings.Contains(directive, "report-uri") || strings.Contains(directive, "report-to") {
		return fmt.Errorf("%w: forbidden directive %s", ErrInvalidCSP, rule.CSPDirective)
	}

	return nil
}

// badFilterTarget returns the text of the rule a $badfilter rule cancels
func badFilterTarget(text string) string {
	text = strings.Replace(text, "$badfilter,", "$", 1)
	text = strings.Replace(text, ",badfilter", "", 1)
	return strings.Replace(text, "$badfilter", "", 1)
}

// splitEscaped splits s by sep, keeping separators preceded by a backslash.
// Empty parts are dropped.
func splitEscaped(s string, sep byte) []string {
	var parts []string
	var sb strings.Builder

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == sep {
			if i > 0 && s[i-1] == escapeCharacter {
				// Replace the escape character with the separator
				str := sb.String()
				sb.Reset()
				sb.WriteString(str[:len(str)-1])
				sb.WriteByte(c)
				continue
			}
			if sb.Len() > 0 {
				parts = append(parts, sb.String())
			}
			sb.Reset()
			continue
		}
		sb.WriteByte(c)
	}

	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}
