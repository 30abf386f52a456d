package converter

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/safari-cb-converter/internal/models"
)

// MaxRulesPerFile is Safari's limit per content blocker
const MaxRulesPerFile = 50000

// Splitter splits rules into chunks respecting the per-file limit
type Splitter struct {
	maxRules int
}

// NewSplitter creates a splitter with the given max rules per file
func NewSplitter(maxRules int) *Splitter {
	if maxRules <= 0 {
		maxRules = MaxRulesPerFile
	}
	return &Splitter{maxRules: maxRules}
}

// Part is one output file of a split content blocker
type Part struct {
	Name  string
	Rules []models.WebKitRule
}

// Split divides rules into parts named "<base>-partN" when they exceed the
// limit. The parts keep the rule order, which Safari relies on for
// ignore-previous-rules.
func (s *Splitter) Split(rules []models.WebKitRule, baseName string) []Part {
	if len(rules) <= s.maxRules {
		return []Part{{Name: baseName, Rules: rules}}
	}

	numParts := (len(rules) + s.maxRules - 1) / s.maxRules
	parts := make([]Part, 0, numParts)

	for i := 0; i < numParts; i++ {
		start := i * s.maxRules
		end := min(start+s.maxRules, len(rules))

		parts = append(parts, Part{
			Name:  fmt.Sprintf("%s-part%d", baseName, i+1),
			Rules: rules[start:end],
		})
	}

	return parts
}

// Deduplicate removes duplicate rules based on their JSON representation.
// Blocking and hiding rules keep their first occurrence. An
// ignore-previous-rules rule keeps its last occurrence so it still follows
// every rule it cancelled when several converted lists are joined.
func Deduplicate(rules []models.WebKitRule) []models.WebKitRule {
	keys := make([]string, len(rules))
	lastException := make(map[string]int)
	for i, r := range rules {
		key, err := json.Marshal(r)
		if err != nil {
			continue
		}
		keys[i] = string(key)
		if r.Action.Type == models.ActionIgnorePreviousRule {
			lastException[keys[i]] = i
		}
	}

	seen := make(map[string]bool)
	result := make([]models.WebKitRule, 0, len(rules))

	for i, r := range rules {
		key := keys[i]
		switch {
		case key == "":
			result = append(result, r)
		case r.Action.Type == models.ActionIgnorePreviousRule:
			if lastException[key] == i {
				result = append(result, r)
			}
		case !seen[key]:
			seen[key] = true
			result = append(result, r)
		}
	}

	return result
}
