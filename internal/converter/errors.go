package converter

import "errors"

var (
	// ErrCannotConvert indicates a rule kind Safari has no equivalent for
	ErrCannotConvert = errors.New("cannot be converted")

	// ErrNotSupported indicates a modifier or content type Safari cannot express
	ErrNotSupported = errors.New("not supported")

	// ErrDomainConflict indicates a trigger that would carry both if-domain and unless-domain
	ErrDomainConflict = errors.New("safari does not support both permitted and restricted domains")

	// ErrUnsupportedRegex indicates a url-filter using a construct WebKit rejects
	ErrUnsupportedRegex = errors.New("safari doesn't support")

	// ErrDocumentBlocking indicates an unscoped document blocking rule
	ErrDocumentBlocking = errors.New("document blocking rules are allowed only along with third-party or if-domain modifiers")
)
