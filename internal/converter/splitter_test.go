package converter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/safari-cb-converter/internal/models"
)

func makeRules(n int) []models.WebKitRule {
	rules := make([]models.WebKitRule, n)
	for i := range rules {
		rules[i] = models.WebKitRule{
			Trigger: models.WebKitTrigger{URLFilter: fmt.Sprintf("rule%d", i)},
			Action:  models.WebKitAction{Type: models.ActionBlock},
		}
	}
	return rules
}

func TestSplitter(t *testing.T) {
	tests := []struct {
		name      string
		maxRules  int
		rules     int
		wantNames []string
		wantSizes []int
	}{
		{name: "empty", maxRules: 10, rules: 0, wantNames: []string{"ads"}, wantSizes: []int{0}},
		{name: "under limit", maxRules: 10, rules: 5, wantNames: []string{"ads"}, wantSizes: []int{5}},
		{name: "at limit", maxRules: 10, rules: 10, wantNames: []string{"ads"}, wantSizes: []int{10}},
		{name: "over limit", maxRules: 10, rules: 25, wantNames: []string{"ads-part1", "ads-part2", "ads-part3"}, wantSizes: []int{10, 10, 5}},
		{name: "default limit", maxRules: 0, rules: 3, wantNames: []string{"ads"}, wantSizes: []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := NewSplitter(tt.maxRules).Split(makeRules(tt.rules), "ads")

			require.Len(t, parts, len(tt.wantNames))
			next := 0
			for i, p := range parts {
				assert.Equal(t, tt.wantNames[i], p.Name)
				require.Len(t, p.Rules, tt.wantSizes[i])
				for _, r := range p.Rules {
					assert.Equal(t, fmt.Sprintf("rule%d", next), r.Trigger.URLFilter)
					next++
				}
			}
		})
	}
}

func TestDeduplicate(t *testing.T) {
	a := models.WebKitRule{
		Trigger: models.WebKitTrigger{URLFilter: ".*", IfDomain: []string{"*a.com"}},
		Action:  models.WebKitAction{Type: models.ActionBlock},
	}
	b := a.Clone()
	b.Trigger.IfDomain = []string{"*b.com"}
	c := a.Clone()
	c.Action.Type = models.ActionIgnorePreviousRule

	got := Deduplicate([]models.WebKitRule{a, b, a.Clone(), c, b})

	require.Len(t, got, 3)
	assert.Equal(t, a, got[0])
	assert.Equal(t, b, got[1])
	assert.Equal(t, c, got[2])
}

func TestDeduplicateJoinedListsKeepExceptionsLast(t *testing.T) {
	allow := parseRules(t, "@@//example.org$document")

	var joined []models.WebKitRule
	for _, line := range []string{"||ads-a.net^", "||ads-b.net^"} {
		result := New().Convert(Request{Lines: []string{line}, Rules: allow})
		require.NotNil(t, result)
		require.Len(t, result.Rules, 2)
		joined = append(joined, result.Rules...)
	}

	got := Deduplicate(joined)

	require.Len(t, got, 3)
	assert.Equal(t, models.ActionBlock, got[0].Action.Type)
	assert.Contains(t, got[0].Trigger.URLFilter, `ads-a\.net`)
	assert.Equal(t, models.ActionBlock, got[1].Action.Type)
	assert.Contains(t, got[1].Trigger.URLFilter, `ads-b\.net`)
	assert.Equal(t, models.ActionIgnorePreviousRule, got[2].Action.Type)
	assert.Equal(t, []string{"*example.org"}, got[2].Trigger.IfDomain)
}

func TestDeduplicateBlockingKeepsFirst(t *testing.T) {
	block := models.WebKitRule{
		Trigger: models.WebKitTrigger{URLFilter: "ads"},
		Action:  models.WebKitAction{Type: models.ActionBlock},
	}
	exception := models.WebKitRule{
		Trigger: models.WebKitTrigger{URLFilter: "ads", IfDomain: []string{"*a.com"}},
		Action:  models.WebKitAction{Type: models.ActionIgnorePreviousRule},
	}
	other := models.WebKitRule{
		Trigger: models.WebKitTrigger{URLFilter: "track"},
		Action:  models.WebKitAction{Type: models.ActionBlock},
	}

	got := Deduplicate([]models.WebKitRule{block, exception, other, block.Clone(), exception.Clone()})

	assert.Equal(t, []models.WebKitRule{block, other, exception}, got)
}
