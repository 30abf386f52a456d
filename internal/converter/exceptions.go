package converter

import (
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bnema/safari-cb-converter/internal/models"
	"github.com/bnema/safari-cb-converter/internal/parser"
)

// isWhitelistSpecial reports exceptions that disable filtering on whole
// pages: $document, single $urlblock or $genericblock, single $generichide
// or $elemhide
func isWhitelistSpecial(r *models.URLRule) bool {
	return r.IsDocumentWhitelist() ||
		r.IsSingleOption(models.OptionURLBlock) ||
		r.IsSingleOption(models.OptionGenericBlock) ||
		r.IsSingleOption(models.OptionGenericHide) ||
		r.IsSingleOption(models.OptionElemhide)
}

// applyWhitelistSpecialCase turns a page level exception into a domain
// scoped exception matching every URL. Rules targeting a sub-path are left
// as they are.
func applyWhitelistSpecialCase(r *models.URLRule, result *models.WebKitRule, logger zerolog.Logger) error {
	if !r.Whitelist || !isWhitelistSpecial(r) {
		return nil
	}

	if r.IsDocumentWhitelist() {
		result.Trigger.ResourceType = nil
	}

	info, ok := parser.ParseRuleDomain(r.Pattern)
	if !ok {
		logger.Debug().Str("rule", r.Text).Msg("cannot parse domain from whitelist rule")
		return nil
	}
	if info.Path != "" && info.Path != "^" && info.Path != "/" {
		logger.Debug().Str("rule", r.Text).Msg("whitelist rule targets a path, keeping its url-filter")
		return nil
	}

	if err := writeDomainOptions(&result.Trigger, []string{info.Domain}, result.Trigger.UnlessDomain); err != nil {
		return err
	}

	result.Trigger.URLFilter = URLFilterAnyURL
	if r.IsSingleOption(models.OptionGenericHide) {
		result.Trigger.ResourceType = []string{models.ResourceDocument}
	} else {
		result.Trigger.ResourceType = nil
	}

	return nil
}

// ExceptionStats reports the outcome of applying element hiding exceptions
type ExceptionStats struct {
	Applied   int
	Conflicts int
}

// applyCSSExceptions adds the domains of #@# exceptions to the unless-domain
// of the hiding rules with the same selector. Hiding rules left with both
// if-domain and unless-domain are dropped.
func applyCSSExceptions(blocking, exceptions []models.WebKitRule, logger zerolog.Logger) ([]models.WebKitRule, ExceptionStats) {
	var stats ExceptionStats

	logger.Debug().Int("exceptions", len(exceptions)).Msg("applying css exceptions")

	rulesBySelector := make(map[string][]int)
	for i, r := range blocking {
		rulesBySelector[r.Action.Selector] = append(rulesBySelector[r.Action.Selector], i)
	}

	for _, exc := range exceptions {
		indexes, ok := rulesBySelector[exc.Action.Selector]
		if !ok {
			continue
		}
		for _, i := range indexes {
			for _, domain := range exc.Trigger.IfDomain {
				pushExceptionDomain(domain, &blocking[i])
			}
		}
		stats.Applied++
	}

	result := make([]models.WebKitRule, 0, len(blocking))
	for _, r := range blocking {
		if len(r.Trigger.IfDomain) > 0 && len(r.Trigger.UnlessDomain) > 0 {
			logger.Debug().
				Str("selector", r.Action.Selector).
				Strs("if-domain", r.Trigger.IfDomain).
				Strs("unless-domain", r.Trigger.UnlessDomain).
				Msg("dropping rule with permitted and restricted domains")
			stats.Conflicts++
			continue
		}
		result = append(result, r)
	}

	logger.Debug().
		Int("applied", stats.Applied).
		Int("conflicts", stats.Conflicts).
		Msg("css exceptions applied")

	return result, stats
}

// pushExceptionDomain excludes domain from rule unless the rule is limited
// to unrelated domains
func pushExceptionDomain(domain string, rule *models.WebKitRule) {
	if permitted := rule.Trigger.IfDomain; len(permitted) > 0 {
		applicable := slices.ContainsFunc(permitted, func(p string) bool {
			return strings.Contains(domain, p)
		})
		if !applicable {
			return
		}
	}
	rule.Trigger.UnlessDomain = append(rule.Trigger.UnlessDomain, domain)
}
