package converter

import (
	"strings"

	"github.com/bnema/safari-cb-converter/internal/models"
)

// MaxSelectorsPerWideRule caps the selectors merged into one wide rule
const MaxSelectorsPerWideRule = 250

// ContentBlocker holds the converted rules of one conversion, by bucket
type ContentBlocker struct {
	CSSBlockingWide                   []models.WebKitRule // ## rules without domains, merged
	CSSBlockingGenericDomainSensitive []models.WebKitRule // ## rules with unless-domain
	CSSBlockingGenericHideExceptions  []models.WebKitRule // $generichide exceptions
	CSSBlockingDomainSensitive        []models.WebKitRule // ## rules with if-domain
	CSSElemhide                       []models.WebKitRule // $elemhide exceptions
	URLBlocking                       []models.WebKitRule
	Other                             []models.WebKitRule // Other exceptions
	Important                         []models.WebKitRule // $important blocking rules
	ImportantExceptions               []models.WebKitRule
	DocumentExceptions                []models.WebKitRule // $document exceptions
	Errors                            []string
}

// Rules concatenates the buckets in output order
func (cb *ContentBlocker) Rules() []models.WebKitRule {
	buckets := [][]models.WebKitRule{
		cb.CSSBlockingWide,
		cb.CSSBlockingGenericDomainSensitive,
		cb.CSSBlockingGenericHideExceptions,
		cb.CSSBlockingDomainSensitive,
		cb.CSSElemhide,
		cb.URLBlocking,
		cb.Other,
		cb.Important,
		cb.ImportantExceptions,
		cb.DocumentExceptions,
	}

	var n int
	for _, b := range buckets {
		n += len(b)
	}

	rules := make([]models.WebKitRule, 0, n)
	for _, b := range buckets {
		rules = append(rules, b...)
	}
	return rules
}

// compactedCSS is the element hiding rules split by domain restriction
type compactedCSS struct {
	wide                   []models.WebKitRule
	domainSensitive        []models.WebKitRule
	genericDomainSensitive []models.WebKitRule
}

// compactCSSRules merges the selectors of rules without domain restrictions
// into as few rules as possible
func compactCSSRules(blocking []models.WebKitRule) compactedCSS {
	var result compactedCSS
	var selectors []string

	flush := func() {
		if len(selectors) == 0 {
			return
		}
		result.wide = append(result.wide, models.WebKitRule{
			Trigger: models.WebKitTrigger{URLFilter: URLFilterCSSRules},
			Action: models.WebKitAction{
				Type:     models.ActionCSSDisplayNone,
				Selector: strings.Join(selectors, ", "),
			},
		})
		selectors = nil
	}

	for _, r := range blocking {
		switch {
		case len(r.Trigger.IfDomain) > 0:
			result.domainSensitive = append(result.domainSensitive, r)
		case len(r.Trigger.UnlessDomain) > 0:
			result.genericDomainSensitive = append(result.genericDomainSensitive, r)
		default:
			selectors = append(selectors, r.Action.Selector)
			if len(selectors) >= MaxSelectorsPerWideRule {
				flush()
			}
		}
	}
	flush()

	return result
}

// applyDomainWildcards prefixes every domain with "*" so that it also
// matches subdomains
func applyDomainWildcards(rules []models.WebKitRule) {
	for i := range rules {
		rules[i].Trigger.IfDomain = addWildcard(rules[i].Trigger.IfDomain)
		rules[i].Trigger.UnlessDomain = addWildcard(rules[i].Trigger.UnlessDomain)
	}
}

func addWildcard(domains []string) []string {
	if len(domains) == 0 {
		return domains
	}
	out := make([]string, len(domains))
	for i, d := range domains {
		out[i] = "*" + d
	}
	return out
}
