package converter

import (
	"strings"

	"github.com/bnema/safari-cb-converter/internal/parser"
)

// Safari url-filter building blocks. Safari compiles every url-filter into
// a state machine, so the generic fragments are replaced with simpler ones.
const (
	// URLFilterAnyURL matches every URL
	URLFilterAnyURL = ".*"
	// URLFilterWSAnyURL matches every WebSocket URL
	URLFilterWSAnyURL = `^wss?:\/\/`
	// URLFilterCSSRules is the url-filter of element hiding rules
	URLFilterCSSRules = ".*"
	// URLFilterStartURL matches the scheme and one optional subdomain level
	URLFilterStartURL = `^[htpsw]+:\/\/([a-z0-9-]+\.)?`
	// URLFilterSeparator replaces the separator class, $ is only allowed at the end
	URLFilterSeparator = `[/:&?]?`
)

// Patterns matching every URL
var anyURLTemplates = []string{"||*", "", "*", "|*"}

// dialectRewrite replaces a generic regex fragment with its Safari form
type dialectRewrite struct {
	from string
	to   string
}

var dialectRewrites = []dialectRewrite{
	{from: parser.RegexStartURL, to: URLFilterStartURL},
	{from: parser.RegexSeparator, to: URLFilterSeparator},
}

// RewriteDialect converts a generated regex source to the Safari dialect
func RewriteDialect(source string) string {
	for _, rw := range dialectRewrites {
		source = strings.ReplaceAll(source, rw.from, rw.to)
	}
	return source
}
