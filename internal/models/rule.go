package models

import "strings"

// WebKitRule represents a Safari/WebKit content blocker rule
type WebKitRule struct {
	Trigger WebKitTrigger `json:"trigger"`
	Action  WebKitAction  `json:"action"`
}

// WebKitTrigger defines when a rule should activate
type WebKitTrigger struct {
	URLFilter                string   `json:"url-filter"`
	IfDomain                 []string `json:"if-domain,omitempty"`
	UnlessDomain             []string `json:"unless-domain,omitempty"`
	ResourceType             []string `json:"resource-type,omitempty"`
	LoadType                 []string `json:"load-type,omitempty"`
	URLFilterIsCaseSensitive *bool    `json:"url-filter-is-case-sensitive,omitempty"`
}

// WebKitAction defines what to do when a rule triggers
type WebKitAction struct {
	Type     string `json:"type"`               // block, css-display-none, ignore-previous-rules
	Selector string `json:"selector,omitempty"` // only for css-display-none
}

// Action type constants
const (
	ActionBlock              = "block"
	ActionCSSDisplayNone     = "css-display-none"
	ActionIgnorePreviousRule = "ignore-previous-rules"
)

// Resource type constants (WebKit names)
const (
	ResourceDocument   = "document"
	ResourceImage      = "image"
	ResourceStyleSheet = "style-sheet"
	ResourceScript     = "script"
	ResourceFont       = "font"
	ResourceRaw        = "raw"
	ResourceMedia      = "media"
	ResourcePopup      = "popup"
)

// Load type constants
const (
	LoadFirstParty = "first-party"
	LoadThirdParty = "third-party"
)

// Clone returns a deep copy of the rule
func (r WebKitRule) Clone() WebKitRule {
	c := r
	c.Trigger.IfDomain = cloneStrings(r.Trigger.IfDomain)
	c.Trigger.UnlessDomain = cloneStrings(r.Trigger.UnlessDomain)
	c.Trigger.ResourceType = cloneStrings(r.Trigger.ResourceType)
	c.Trigger.LoadType = cloneStrings(r.Trigger.LoadType)
	if r.Trigger.URLFilterIsCaseSensitive != nil {
		v := *r.Trigger.URLFilterIsCaseSensitive
		c.Trigger.URLFilterIsCaseSensitive = &v
	}
	return c
}

// AppliesToDomain reports whether the trigger's domain lists allow host.
// Entries are matched the way WebKit does: "*example.org" matches the
// domain and its subdomains, a bare entry matches the exact host only.
func (t WebKitTrigger) AppliesToDomain(host string) bool {
	host = strings.ToLower(host)
	if len(t.IfDomain) > 0 {
		return matchesAnyDomain(host, t.IfDomain)
	}
	if len(t.UnlessDomain) > 0 {
		return !matchesAnyDomain(host, t.UnlessDomain)
	}
	return true
}

func matchesAnyDomain(host string, domains []string) bool {
	for _, d := range domains {
		if strings.HasPrefix(d, "*") {
			base := d[1:]
			if host == base || strings.HasSuffix(host, "."+base) {
				return true
			}
		} else if host == d {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
