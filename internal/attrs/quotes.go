package attrs

import (
	"strings"

	"github.com/livefir/htmlminifier/internal/dom"
)

// ResolveQuotes fixes the quote character of every valued attribute and
// escapes that character inside the value. Valueless attributes and values
// whose quotes were removed are left alone.
func ResolveQuotes(list []dom.Attribute, cfg Config) {
	for i := range list {
		a := &list[i]
		if cfg.PreventAttributesEscaping {
			if a.Quote == dom.QuoteUnquoted {
				a.Quote = dom.QuoteEmpty
			}
			continue
		}
		if a.Quote == dom.QuoteNone || a.Quote == dom.QuoteEmpty {
			continue
		}

		switch cfg.QuoteCharacter {
		case "":
			if strings.Count(a.Value, "'") < strings.Count(a.Value, `"`) {
				a.Quote = dom.QuoteSingle
			} else {
				a.Quote = dom.QuoteDouble
			}
		case "'":
			a.Quote = dom.QuoteSingle
		default:
			a.Quote = dom.QuoteDouble
		}

		if a.Quote == dom.QuoteSingle {
			a.Value = strings.ReplaceAll(a.Value, "'", "&#39;")
		} else {
			a.Value = strings.ReplaceAll(a.Value, `"`, "&#34;")
		}
	}
}
