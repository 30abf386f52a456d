package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/safari-cb-converter/internal/models"
	"github.com/bnema/safari-cb-converter/internal/parser"
)

func mustParse(t *testing.T, line string) models.Rule {
	t.Helper()
	rule, err := parser.Parse(line)
	require.NoError(t, err, line)
	require.NotNil(t, rule, line)
	return rule
}

func TestTranslateCSS(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		actionType   string
		ifDomain     []string
		unlessDomain []string
	}{
		{
			name:       "wide",
			line:       "##.banner",
			actionType: models.ActionCSSDisplayNone,
		},
		{
			name:       "domain restricted",
			line:       "example.org,example.com##.banner",
			actionType: models.ActionCSSDisplayNone,
			ifDomain:   []string{"example.org", "example.com"},
		},
		{
			name:         "domain excluded",
			line:         "~example.org##.banner",
			actionType:   models.ActionCSSDisplayNone,
			unlessDomain: []string{"example.org"},
		},
		{
			name:       "exception",
			line:       "example.org#@#.banner",
			actionType: models.ActionIgnorePreviousRule,
			ifDomain:   []string{"example.org"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(mustParse(t, tt.line))
			require.NoError(t, err)

			assert.Equal(t, URLFilterCSSRules, got.Trigger.URLFilter)
			assert.Equal(t, tt.actionType, got.Action.Type)
			assert.Equal(t, ".banner", got.Action.Selector)
			assert.Equal(t, tt.ifDomain, got.Trigger.IfDomain)
			assert.Equal(t, tt.unlessDomain, got.Trigger.UnlessDomain)
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
		message string
	}{
		{
			name:    "css injection",
			line:    "example.org#$#body { overflow: auto }",
			wantErr: ErrCannotConvert,
			message: "CSS-injection rule",
		},
		{
			name:    "extended css",
			line:    "example.org#?#div:has(> .ad)",
			wantErr: ErrCannotConvert,
			message: "Extended CSS rule",
		},
		{
			name:    "script",
			line:    "example.org#%#window.ads = false;",
			wantErr: ErrCannotConvert,
			message: "Script-injection rule",
		},
		{
			name:    "mixed domains",
			line:    "example.org,~sub.example.org##.banner",
			wantErr: ErrDomainConflict,
		},
		{
			name:    "mixed option domains",
			line:    "||ads.example^$domain=a.com|~b.com",
			wantErr: ErrDomainConflict,
		},
		{
			name:    "csp",
			line:    "||example.org^$csp=script-src 'none'",
			wantErr: ErrNotSupported,
			message: "CSP rules",
		},
		{
			name:    "object",
			line:    "||example.org^$object",
			wantErr: ErrNotSupported,
			message: "$object",
		},
		{
			name:    "webrtc",
			line:    "||example.org^$webrtc",
			wantErr: ErrNotSupported,
		},
		{
			name:    "replace",
			line:    "||example.org^$replace=/a/b/",
			wantErr: ErrNotSupported,
		},
		{
			name:    "jsinject",
			line:    "@@||example.org^$jsinject",
			wantErr: ErrNotSupported,
		},
		{
			name:    "unscoped document",
			line:    "||example.org^$document",
			wantErr: ErrDocumentBlocking,
		},
		{
			name:    "alternation",
			line:    `/(ads|banners)\.js/`,
			wantErr: ErrUnsupportedRegex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(mustParse(t, tt.line))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestTranslateURL(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		urlFilter    string
		actionType   string
		resourceType []string
		loadType     []string
		ifDomain     []string
		caseSens     bool
	}{
		{
			name:       "domain anchor",
			line:       "||ads.example.org^",
			urlFilter:  URLFilterStartURL + `ads\.example\.org[/:&?]?`,
			actionType: models.ActionBlock,
		},
		{
			name:       "start anchor",
			line:       "|https://ads.example.org/banner",
			urlFilter:  `^https:\/\/ads\.example\.org\/banner`,
			actionType: models.ActionBlock,
		},
		{
			name:       "wildcard",
			line:       "/ads/*/banner.gif",
			urlFilter:  `\/ads\/.*\/banner\.gif`,
			actionType: models.ActionBlock,
		},
		{
			name:       "regex",
			line:       `/banner[0-9]+\.gif/`,
			urlFilter:  `banner[0-9]+\.gif`,
			actionType: models.ActionBlock,
		},
		{
			name:         "content types",
			line:         "||cdn.example^$script,image,domain=example.org",
			urlFilter:    URLFilterStartURL + `cdn\.example[/:&?]?`,
			actionType:   models.ActionBlock,
			resourceType: []string{models.ResourceImage, models.ResourceScript},
			ifDomain:     []string{"example.org"},
		},
		{
			name:         "xmlhttprequest and other share raw",
			line:         "||api.example^$xmlhttprequest,other",
			urlFilter:    URLFilterStartURL + `api\.example[/:&?]?`,
			actionType:   models.ActionBlock,
			resourceType: []string{models.ResourceRaw},
		},
		{
			name:         "popup",
			line:         "||popunder.example^$popup",
			urlFilter:    URLFilterStartURL + `popunder\.example[/:&?]?`,
			actionType:   models.ActionBlock,
			resourceType: []string{models.ResourcePopup},
		},
		{
			name:       "first party exception",
			line:       "@@||cdn.example^$~third-party",
			urlFilter:  URLFilterStartURL + `cdn\.example[/:&?]?`,
			actionType: models.ActionIgnorePreviousRule,
			loadType:   []string{models.LoadFirstParty},
		},
		{
			name:       "match case",
			line:       "/Banner.gif$match-case",
			urlFilter:  `\/Banner\.gif`,
			actionType: models.ActionBlock,
			caseSens:   true,
		},
		{
			name:         "document exception",
			line:         "@@||example.org^$document",
			urlFilter:    URLFilterAnyURL,
			actionType:   models.ActionIgnorePreviousRule,
			ifDomain:     []string{"example.org"},
			resourceType: nil,
		},
		{
			name:         "generichide exception",
			line:         "@@||example.org^$generichide",
			urlFilter:    URLFilterAnyURL,
			actionType:   models.ActionIgnorePreviousRule,
			ifDomain:     []string{"example.org"},
			resourceType: []string{models.ResourceDocument},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(mustParse(t, tt.line))
			require.NoError(t, err)

			assert.Equal(t, tt.urlFilter, got.Trigger.URLFilter)
			assert.Equal(t, tt.actionType, got.Action.Type)
			assert.Equal(t, tt.resourceType, got.Trigger.ResourceType)
			assert.Equal(t, tt.loadType, got.Trigger.LoadType)
			assert.Equal(t, tt.ifDomain, got.Trigger.IfDomain)
			if tt.caseSens {
				require.NotNil(t, got.Trigger.URLFilterIsCaseSensitive)
				assert.True(t, *got.Trigger.URLFilterIsCaseSensitive)
			} else {
				assert.Nil(t, got.Trigger.URLFilterIsCaseSensitive)
			}
		})
	}
}

func TestTranslateDoesNotModifyRule(t *testing.T) {
	rule := mustParse(t, "||ads.example^$domain=a.com|b.com")
	before := append([]string(nil), rule.Base().PermittedDomains...)

	got, err := Translate(rule)
	require.NoError(t, err)

	got.Trigger.IfDomain[0] = "changed"

	assert.Equal(t, before, rule.Base().PermittedDomains)
}

func TestCreateURLFilterString(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{name: "block all", line: "||*", want: URLFilterAnyURL},
		{name: "star", line: "*$image", want: URLFilterAnyURL},
		{name: "empty", line: "$image,domain=example.org", want: URLFilterAnyURL},
		{name: "pipe star", line: "|*$script", want: URLFilterAnyURL},
		{name: "websocket any", line: "$websocket,domain=example.org", want: URLFilterWSAnyURL},
		{name: "websocket anchored", line: "||ws.example^$websocket", want: URLFilterStartURL + `ws\.example[/:&?]?`},
		{name: "websocket scheme", line: "ws://ws.example/$websocket", want: `ws:\/\/ws\.example\/`},
		{name: "websocket relative", line: "/socket$websocket", want: URLFilterWSAnyURL + `.*\/socket`},
		{name: "end anchor", line: "ads.js|", want: `ads\.js$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := mustParse(t, tt.line).(*models.URLRule)
			require.True(t, ok)
			assert.Equal(t, tt.want, createURLFilterString(rule))
		})
	}
}

func TestWriteDomainOptions(t *testing.T) {
	var trigger models.WebKitTrigger

	require.NoError(t, writeDomainOptions(&trigger, []string{"a.com"}, nil))
	assert.Equal(t, []string{"a.com"}, trigger.IfDomain)
	assert.Nil(t, trigger.UnlessDomain)

	err := writeDomainOptions(&trigger, []string{"a.com"}, []string{"b.com"})
	assert.ErrorIs(t, err, ErrDomainConflict)
}
