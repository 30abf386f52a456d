package models

// Rule is a parsed filter rule. It is implemented by *CSSRule, *ScriptRule
// and *URLRule only.
type Rule interface {
	// RuleText returns the original filter line
	RuleText() string
	// Base returns the fields shared by all rule kinds
	Base() *RuleBase
	isRule()
}

// RuleBase holds the fields common to every rule kind
type RuleBase struct {
	Text              string   // Original filter line
	Whitelist         bool     // @@ or #@# exception
	PermittedDomains  []string // Lower-case punycode domains the rule applies to
	RestrictedDomains []string // Lower-case punycode domains excluded from the rule
}

// RuleText returns the original filter line
func (b *RuleBase) RuleText() string { return b.Text }

// Base returns the shared rule fields
func (b *RuleBase) Base() *RuleBase { return b }

// HasPermittedDomains returns true if the rule is restricted to some domains
func (b *RuleBase) HasPermittedDomains() bool { return len(b.PermittedDomains) > 0 }

// HasRestrictedDomains returns true if the rule excludes some domains
func (b *RuleBase) HasRestrictedDomains() bool { return len(b.RestrictedDomains) > 0 }

// CSSRule is an element hiding (##) or CSS injection (#$#) rule
type CSSRule struct {
	RuleBase
	Selector    string // CSS selector, or selector + style block for inject rules
	ExtendedCSS bool   // Uses extended CSS pseudo classes (:has, :contains, ...)
	Inject      bool   // Injects a style instead of hiding
}

// ScriptRule is a script or scriptlet injection rule
type ScriptRule struct {
	RuleBase
	Script string
}

// URLRule is a basic URL blocking or exception rule
type URLRule struct {
	RuleBase
	Pattern                string      // URL rule text without @@ and options
	RegexSource            string      // Regex body for /regex/ rules
	IsRegex                bool        // Pattern is a /regex/, empty or "*"
	PermittedContentTypes  ContentType // ContentTypeAll when unrestricted
	RestrictedContentTypes ContentType // 0 when unrestricted
	EnabledOptions         Option
	DisabledOptions        Option
	Important              bool
	BadFilter              string // Text of the rule cancelled by $badfilter
	CSPDirective           string
	Replace                string
}

func (*CSSRule) isRule()    {}
func (*ScriptRule) isRule() {}
func (*URLRule) isRule()    {}

// IsOptionEnabled reports whether all bits of opt are enabled
func (r *URLRule) IsOptionEnabled(opt Option) bool {
	return r.EnabledOptions&opt == opt
}

// IsOptionDisabled reports whether all bits of opt are explicitly disabled
func (r *URLRule) IsOptionDisabled(opt Option) bool {
	return r.DisabledOptions&opt == opt
}

// IsSingleOption reports whether opt is the only enabled option
func (r *URLRule) IsSingleOption(opt Option) bool {
	return r.EnabledOptions == opt
}

// CheckThirdParty returns true if the rule has $third-party or $~third-party
func (r *URLRule) CheckThirdParty() bool {
	return r.IsOptionEnabled(OptionThirdParty) || r.IsOptionDisabled(OptionThirdParty)
}

// ThirdParty returns true for $third-party rules
func (r *URLRule) ThirdParty() bool {
	return r.IsOptionEnabled(OptionThirdParty)
}

// MatchCase returns true for $match-case rules
func (r *URLRule) MatchCase() bool {
	return r.IsOptionEnabled(OptionMatchCase)
}

// BlockPopups returns true for $popup rules
func (r *URLRule) BlockPopups() bool {
	return r.IsOptionEnabled(OptionPopup)
}

// IsCSP returns true for $csp rules
func (r *URLRule) IsCSP() bool {
	return r.IsOptionEnabled(OptionCSP)
}

// IsDocumentWhitelist returns true for @@...$document rules
func (r *URLRule) IsDocumentWhitelist() bool {
	return r.IsOptionEnabled(OptionsDocumentWhitelist)
}

// IsBadFilter returns true for $badfilter rules
func (r *URLRule) IsBadFilter() bool {
	return r.BadFilter != ""
}

// IsContentType reports whether the permitted mask is exactly ct
func (r *URLRule) IsContentType(ct ContentType) bool {
	return r.PermittedContentTypes == ct
}

// HasContentType reports whether a request of type ct passes the rule's
// permitted and restricted masks
func (r *URLRule) HasContentType(ct ContentType) bool {
	if r.PermittedContentTypes == ContentTypeAll && r.RestrictedContentTypes == 0 {
		return true
	}

	matchesPermitted := r.PermittedContentTypes == ContentTypeAll ||
		r.PermittedContentTypes&ct != 0
	notRestricted := r.RestrictedContentTypes == 0 ||
		r.RestrictedContentTypes&ct == 0

	return matchesPermitted && notRestricted
}
