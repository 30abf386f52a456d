package converter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bnema/safari-cb-converter/internal/models"
	"github.com/bnema/safari-cb-converter/internal/parser"
)

// Translate converts a single parsed rule to a Safari rule. It never
// modifies rule.
func Translate(rule models.Rule) (models.WebKitRule, error) {
	return translate(rule, zerolog.Nop())
}

func translate(rule models.Rule, logger zerolog.Logger) (models.WebKitRule, error) {
	switch r := rule.(type) {
	case *models.CSSRule:
		return translateCSS(r)
	case *models.ScriptRule:
		return models.WebKitRule{}, fmt.Errorf("Script-injection rule %s %w", r.Text, ErrCannotConvert)
	case *models.URLRule:
		return translateURL(r, logger)
	default:
		return models.WebKitRule{}, fmt.Errorf("rule %T is %w", rule, ErrNotSupported)
	}
}

func translateCSS(r *models.CSSRule) (models.WebKitRule, error) {
	if r.Inject {
		return models.WebKitRule{}, fmt.Errorf("CSS-injection rule %s %w", r.Text, ErrCannotConvert)
	}
	if r.ExtendedCSS {
		return models.WebKitRule{}, fmt.Errorf("Extended CSS rule %s %w", r.Text, ErrCannotConvert)
	}

	result := models.WebKitRule{
		Trigger: models.WebKitTrigger{
			URLFilter: URLFilterCSSRules,
		},
		Action: models.WebKitAction{
			Type:     models.ActionCSSDisplayNone,
			Selector: r.Selector,
		},
	}

	setWhitelist(&result, r.Whitelist)
	if err := addDomainOptions(&result.Trigger, &r.RuleBase); err != nil {
		return models.WebKitRule{}, err
	}

	return result, nil
}

func translateURL(r *models.URLRule, logger zerolog.Logger) (models.WebKitRule, error) {
	if r.IsCSP() {
		return models.WebKitRule{}, fmt.Errorf("CSP rules are %w", ErrNotSupported)
	}

	urlFilter := createURLFilterString(r)
	if err := ValidateURLFilter(urlFilter); err != nil {
		return models.WebKitRule{}, err
	}

	result := models.WebKitRule{
		Trigger: models.WebKitTrigger{
			URLFilter: urlFilter,
		},
		Action: models.WebKitAction{
			Type: models.ActionBlock,
		},
	}

	setWhitelist(&result, r.Whitelist)

	types, err := resourceTypes(r)
	if err != nil {
		return models.WebKitRule{}, err
	}
	result.Trigger.ResourceType = types

	if r.CheckThirdParty() {
		if r.ThirdParty() {
			result.Trigger.LoadType = []string{models.LoadThirdParty}
		} else {
			result.Trigger.LoadType = []string{models.LoadFirstParty}
		}
	}

	if r.MatchCase() {
		t := true
		result.Trigger.URLFilterIsCaseSensitive = &t
	}

	if err := addDomainOptions(&result.Trigger, &r.RuleBase); err != nil {
		return models.WebKitRule{}, err
	}

	if err := applyWhitelistSpecialCase(r, &result, logger); err != nil {
		return models.WebKitRule{}, err
	}

	if err := validateBlocking(&result); err != nil {
		return models.WebKitRule{}, err
	}

	return result, nil
}

// createURLFilterString builds the trigger url-filter of a URL rule
func createURLFilterString(r *models.URLRule) string {
	isWebSocket := r.IsContentType(models.ContentTypeWebSocket)

	if slices.Contains(anyURLTemplates, r.Pattern) {
		if isWebSocket {
			return URLFilterWSAnyURL
		}
		return URLFilterAnyURL
	}

	if r.IsRegex && r.RegexSource != "" {
		return r.RegexSource
	}

	source := RewriteDialect(parser.CreateRegexText(r.Pattern))
	if source == "" {
		return URLFilterAnyURL
	}

	if isWebSocket && !strings.HasPrefix(source, "^") && !strings.HasPrefix(source, "ws") {
		return URLFilterWSAnyURL + ".*" + source
	}

	return source
}

// resourceTypes maps the rule content types to Safari resource types
func resourceTypes(r *models.URLRule) ([]string, error) {
	switch {
	case r.IsContentType(models.ContentTypeObject):
		return nil, fmt.Errorf("$object content type is %w", ErrNotSupported)
	case r.IsContentType(models.ContentTypeObjectSubrequest):
		return nil, fmt.Errorf("$object-subrequest content type is %w", ErrNotSupported)
	case r.IsContentType(models.ContentTypeWebRTC):
		return nil, fmt.Errorf("$webrtc content type is %w", ErrNotSupported)
	case r.IsSingleOption(models.OptionJSInject):
		return nil, fmt.Errorf("$jsinject rules are %w", ErrNotSupported)
	case r.Replace != "":
		return nil, fmt.Errorf("$replace rules are %w", ErrNotSupported)
	}

	// Safari defaults cover everything else
	if r.PermittedContentTypes == models.ContentTypeAll && r.RestrictedContentTypes == 0 {
		return nil, nil
	}

	var types []string
	if r.HasContentType(models.ContentTypeImage) {
		types = append(types, models.ResourceImage)
	}
	if r.HasContentType(models.ContentTypeStylesheet) {
		types = append(types, models.ResourceStyleSheet)
	}
	if r.HasContentType(models.ContentTypeScript) {
		types = append(types, models.ResourceScript)
	}
	if r.HasContentType(models.ContentTypeMedia) {
		types = append(types, models.ResourceMedia)
	}
	if r.HasContentType(models.ContentTypeXMLHTTPRequest) ||
		r.HasContentType(models.ContentTypeOther) ||
		r.HasContentType(models.ContentTypeWebSocket) {
		types = append(types, models.ResourceRaw)
	}
	if r.HasContentType(models.ContentTypeFont) {
		types = append(types, models.ResourceFont)
	}
	if r.HasContentType(models.ContentTypeSubdocument) {
		types = append(types, models.ResourceDocument)
	}
	// Exceptions on the page itself are rewritten by the whitelist special case
	if !r.Whitelist && r.HasContentType(models.ContentTypeDocument) &&
		!slices.Contains(types, models.ResourceDocument) {
		types = append(types, models.ResourceDocument)
	}
	if r.BlockPopups() {
		types = []string{models.ResourcePopup}
	}

	return types, nil
}

func setWhitelist(result *models.WebKitRule, whitelist bool) {
	if whitelist {
		result.Action.Type = models.ActionIgnorePreviousRule
	}
}

func addDomainOptions(t *models.WebKitTrigger, base *models.RuleBase) error {
	return writeDomainOptions(t, slices.Clone(base.PermittedDomains), slices.Clone(base.RestrictedDomains))
}

func writeDomainOptions(t *models.WebKitTrigger, included, excluded []string) error {
	if len(included) > 0 && len(excluded) > 0 {
		return ErrDomainConflict
	}
	if len(included) > 0 {
		t.IfDomain = included
	}
	if len(excluded) > 0 {
		t.UnlessDomain = excluded
	}
	return nil
}
