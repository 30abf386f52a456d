package parser

import "errors"

var (
	// ErrUnknownOption indicates a $modifier the parser does not know
	ErrUnknownOption = errors.New("unknown option")

	// ErrOptionNotAllowed indicates an option used on the wrong kind of rule
	ErrOptionNotAllowed = errors.New("option cannot be applied to this type of rule")

	// ErrUnknownPseudoClass indicates a CSS pseudo class that would break the whole stylesheet
	ErrUnknownPseudoClass = errors.New("unknown pseudo class")

	// ErrInvalidCSSInject indicates a CSS injection rule without a style block
	ErrInvalidCSSInject = errors.New("invalid css injection rule")

	// ErrEmptySelector indicates a cosmetic rule with nothing after the marker
	ErrEmptySelector = errors.New("empty selector")

	// ErrInvalidCSP indicates an empty or forbidden $csp directive
	ErrInvalidCSP = errors.New("invalid csp rule")
)
