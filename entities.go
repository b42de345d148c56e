package htmlminifier

import "strings"

// legacyEntities are the character references browsers decode without a
// trailing semicolon. A decoded & followed by one of them would be read
// back as that character.
var legacyEntities = []string{
	"Iacute", "aacute", "uacute", "plusmn", "Otilde", "otilde", "agrave", "Agrave",
	"Yacute", "yacute", "Oslash", "oslash", "atilde", "Atilde", "brvbar", "ccedil",
	"Ccedil", "Ograve", "curren", "divide", "eacute", "Eacute", "ograve", "Oacute",
	"egrave", "Egrave", "Ugrave", "frac12", "frac14", "frac34", "ugrave", "oacute",
	"iacute", "Ntilde", "ntilde", "Uacute", "middot", "igrave", "Igrave", "iquest",
	"Aacute", "cedil", "laquo", "micro", "iexcl", "Icirc", "icirc", "acirc",
	"Ucirc", "Ecirc", "ocirc", "Ocirc", "ecirc", "ucirc", "Aring", "aring",
	"AElig", "aelig", "acute", "pound", "raquo", "Acirc", "times", "THORN",
	"szlig", "thorn", "COPY", "auml", "ordf", "ordm", "Uuml", "macr",
	"uuml", "Auml", "ouml", "Ouml", "para", "nbsp", "euml", "quot",
	"QUOT", "Euml", "yuml", "cent", "sect", "copy", "sup1", "sup2",
	"sup3", "iuml", "Iuml", "ETH", "shy", "reg", "not", "yen",
	"amp", "AMP", "REG", "uml", "eth", "deg", "gt", "GT", "LT", "lt",
}

// escapeText re-escapes decoded text so it parses back to the same
// characters: an & that would start a character reference becomes &amp
// and every < becomes &lt;.
func escapeText(s string) string {
	if !strings.ContainsAny(s, "&<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			b.WriteByte('&')
			if startsReference(s[i+1:]) {
				b.WriteString("amp")
			}
		case '<':
			b.WriteString("&lt;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// startsReference reports whether rest, the text after an &, would be
// decoded as a character reference.
func startsReference(rest string) bool {
	for _, name := range legacyEntities {
		if strings.HasPrefix(rest, name) && !strings.HasPrefix(rest[len(name):], ";") {
			return true
		}
	}
	i := 0
	if strings.HasPrefix(rest, "#") {
		i++
	}
	start := i
	for i < len(rest) && isAlnum(rest[i]) {
		i++
	}
	return i > start && i < len(rest) && rest[i] == ';'
}

func isAlnum(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
