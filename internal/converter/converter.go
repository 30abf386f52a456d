package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bnema/safari-cb-converter/internal/models"
	"github.com/bnema/safari-cb-converter/internal/parser"
)

// Converter converts AdGuard filter rules to Safari content blocker rules.
// A Converter is not safe for concurrent use.
type Converter struct {
	logger zerolog.Logger
	stats  Stats
}

// Stats tracks statistics of the last conversion
type Stats struct {
	Converted   int
	Skipped     int
	SkipReasons map[string]int
}

// Skip reason constants
const (
	SkipParseError        = "parse-error"
	SkipUnsupportedRule   = "unsupported-rule"
	SkipUnsupportedOption = "unsupported-option"
	SkipDomainConflict    = "domain-conflict"
	SkipUnsupportedRegex  = "unsupported-regex"
	SkipDocumentBlocking  = "document-blocking"
	SkipBadFilter         = "badfilter"
	SkipExceptionConflict = "exception-conflict"
	SkipOverLimit         = "over-limit"
	SkipOther             = "other"
)

var skipReasons = []struct {
	err    error
	reason string
}{
	{ErrCannotConvert, SkipUnsupportedRule},
	{ErrNotSupported, SkipUnsupportedOption},
	{ErrDomainConflict, SkipDomainConflict},
	{ErrUnsupportedRegex, SkipUnsupportedRegex},
	{ErrDocumentBlocking, SkipDocumentBlocking},
}

// Option configures a Converter
type Option func(*Converter)

// WithLogger sets the logger used for conversion diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// New creates a new converter
func New(opts ...Option) *Converter {
	c := &Converter{
		logger: zerolog.Nop(),
		stats: Stats{
			SkipReasons: make(map[string]int),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats returns conversion statistics
func (c *Converter) Stats() Stats {
	return c.stats
}

// Request is the input of a conversion. Lines are parsed first, then the
// pre-parsed Rules follow.
type Request struct {
	Lines    []string
	Rules    []models.Rule
	Limit    int  // Maximum number of output rules, 0 = unbounded
	Optimize bool // Drop wide element hiding rules
}

// ConversionResult is the outcome of a conversion
type ConversionResult struct {
	TotalConvertedCount int    `json:"totalConvertedCount"` // Before the limit is applied
	ConvertedCount      int    `json:"convertedCount"`
	ErrorsCount         int    `json:"errorsCount"`
	OverLimit           bool   `json:"overLimit"`
	Converted           string `json:"converted"` // JSON array, tab indented

	Errors []string            `json:"-"`
	Rules  []models.WebKitRule `json:"-"`
}

// Convert converts the requested rules. It returns nil when there is
// nothing to convert.
func (c *Converter) Convert(req Request) *ConversionResult {
	if len(req.Lines) == 0 && len(req.Rules) == 0 {
		c.logger.Info().Msg("no rules presented for conversion")
		return nil
	}

	c.stats = Stats{SkipReasons: make(map[string]int)}

	c.logger.Info().
		Int("lines", len(req.Lines)).
		Int("rules", len(req.Rules)).
		Bool("optimize", req.Optimize).
		Msg("converting rules")

	cb := c.convertRules(req)
	return c.createResult(cb, req.Limit)
}

// skip records a rejected rule with its reason
func (c *Converter) skip(reason string) {
	c.stats.Skipped++
	c.stats.SkipReasons[reason]++
}

func (c *Converter) skipError(err error) {
	for _, sr := range skipReasons {
		if errors.Is(err, sr.err) {
			c.skip(sr.reason)
			return
		}
	}
	c.skip(SkipOther)
}

func (c *Converter) parseRules(req Request, cb *ContentBlocker) []models.Rule {
	rules := make([]models.Rule, 0, len(req.Lines)+len(req.Rules))

	p := parser.New()
	for _, line := range req.Lines {
		rule, err := p.ParseLine(line)
		if err != nil {
			msg := fmt.Sprintf("Error creating rule from: %s cause: %v", line, err)
			c.logger.Debug().Err(err).Str("rule", line).Msg("cannot parse rule")
			cb.Errors = append(cb.Errors, msg)
			c.skip(SkipParseError)
			continue
		}
		if rule != nil {
			rules = append(rules, rule)
		}
	}

	for _, rule := range req.Rules {
		if rule != nil {
			rules = append(rules, rule)
		}
	}

	return rules
}

func (c *Converter) convertRules(req Request) *ContentBlocker {
	cb := &ContentBlocker{}

	var cssBlocking, cssExceptions []models.WebKitRule

	// Rules cancelled by $badfilter, by text
	badFilters := make(map[string]bool)
	var rules []models.Rule
	for _, rule := range c.parseRules(req, cb) {
		if u, ok := rule.(*models.URLRule); ok && u.IsBadFilter() {
			badFilters[u.BadFilter] = true
			continue
		}
		rules = append(rules, rule)
	}

	for _, rule := range rules {
		if badFilters[rule.RuleText()] {
			c.logger.Debug().Str("rule", rule.RuleText()).Msg("rule removed with a $badfilter modifier")
			c.skip(SkipBadFilter)
			continue
		}

		item, err := translate(rule, c.logger)
		if err != nil {
			msg := fmt.Sprintf("Error converting rule from: %s cause: %v", rule.RuleText(), err)
			c.logger.Debug().Err(err).Str("rule", rule.RuleText()).Msg("cannot convert rule")
			cb.Errors = append(cb.Errors, msg)
			c.skipError(err)
			continue
		}

		u, _ := rule.(*models.URLRule)

		switch {
		case item.Action.Type == models.ActionBlock:
			if u != nil && u.Important {
				cb.Important = append(cb.Important, item)
			} else {
				cb.URLBlocking = append(cb.URLBlocking, item)
			}
		case item.Action.Type == models.ActionCSSDisplayNone:
			cssBlocking = append(cssBlocking, item)
		case item.Action.Selector != "":
			// #@# rules
			cssExceptions = append(cssExceptions, item)
		case u != nil && u.IsSingleOption(models.OptionGenericHide):
			cb.CSSBlockingGenericHideExceptions = append(cb.CSSBlockingGenericHideExceptions, item)
		case u != nil && u.IsSingleOption(models.OptionElemhide):
			cb.CSSElemhide = append(cb.CSSElemhide, item)
		case u != nil && u.Important:
			cb.ImportantExceptions = append(cb.ImportantExceptions, item)
		case u != nil && u.IsDocumentWhitelist():
			cb.DocumentExceptions = append(cb.DocumentExceptions, item)
		default:
			cb.Other = append(cb.Other, item)
		}
	}

	cssBlocking, exStats := applyCSSExceptions(cssBlocking, cssExceptions, c.logger)
	c.stats.Skipped += exStats.Conflicts
	c.stats.SkipReasons[SkipExceptionConflict] += exStats.Conflicts

	compacted := compactCSSRules(cssBlocking)
	if !req.Optimize {
		cb.CSSBlockingWide = compacted.wide
	}
	cb.CSSBlockingGenericDomainSensitive = compacted.genericDomainSensitive
	cb.CSSBlockingDomainSensitive = compacted.domainSensitive

	c.logger.Info().
		Int("errors", len(cb.Errors)).
		Int("url_blocking", len(cb.URLBlocking)).
		Int("important", len(cb.Important)).
		Int("css_wide", len(cb.CSSBlockingWide)).
		Int("css_generic_domain_sensitive", len(cb.CSSBlockingGenericDomainSensitive)).
		Int("generichide_exceptions", len(cb.CSSBlockingGenericHideExceptions)).
		Int("css_domain_sensitive", len(cb.CSSBlockingDomainSensitive)).
		Int("elemhide_exceptions", len(cb.CSSElemhide)).
		Int("important_exceptions", len(cb.ImportantExceptions)).
		Int("document_exceptions", len(cb.DocumentExceptions)).
		Int("other_exceptions", len(cb.Other)).
		Msg("rules converted")

	return cb
}

func (c *Converter) createResult(cb *ContentBlocker, limit int) *ConversionResult {
	converted := cb.Rules()
	total := len(converted)
	overLimit := false

	if limit > 0 && total > limit {
		msg := fmt.Sprintf("%d limit is achieved. Next rules will be ignored.", limit)
		cb.Errors = append(cb.Errors, msg)
		c.logger.Error().Int("limit", limit).Int("total", total).Msg(msg)
		c.stats.Skipped += total - limit
		c.stats.SkipReasons[SkipOverLimit] += total - limit
		overLimit = true
		converted = converted[:limit]
	}

	applyDomainWildcards(converted)
	c.stats.Converted = len(converted)

	data, err := marshalRules(converted)
	if err != nil {
		c.logger.Error().Err(err).Msg("cannot serialize content blocker")
		cb.Errors = append(cb.Errors, err.Error())
	}

	c.logger.Info().Int("length", len(converted)).Msg("content blocker ready")

	return &ConversionResult{
		TotalConvertedCount: total,
		ConvertedCount:      len(converted),
		ErrorsCount:         len(cb.Errors),
		OverLimit:           overLimit,
		Converted:           data,
		Errors:              cb.Errors,
		Rules:               converted,
	}
}

// marshalRules serializes rules as a tab indented JSON array
func marshalRules(rules []models.WebKitRule) (string, error) {
	if rules == nil {
		rules = []models.WebKitRule{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(rules); err != nil {
		return "", fmt.Errorf("encode rules: %w", err)
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
