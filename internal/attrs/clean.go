package attrs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/livefir/htmlminifier/internal/delegate"
	"github.com/livefir/htmlminifier/internal/dom"
	"github.com/livefir/htmlminifier/internal/sets"
	"github.com/livefir/htmlminifier/internal/tags"
	"github.com/livefir/htmlminifier/internal/whitespace"
)

var (
	defaultEventAttribute = regexp.MustCompile(`^on[a-z]{3,}$`)
	javascriptScheme      = regexp.MustCompile(`(?i)^javascript:\s*`)
	trailingEntity        = regexp.MustCompile(`&#?[0-9a-zA-Z]+;$`)
	trailingSemicolon     = regexp.MustCompile(`\s*;$`)
	srcsetSeparator       = regexp.MustCompile(`\s+,\s*|\s*,\s+`)
	srcsetDescriptor      = regexp.MustCompile(`\s+([1-9][0-9]*w|[0-9]+(?:\.[0-9]+)?x)$`)
	anyWhitespace         = regexp.MustCompile(`\s+`)
	decimalNumber         = regexp.MustCompile(`[0-9]+\.[0-9]+`)
	lineBreakRun          = regexp.MustCompile(` ?[\n\r]+ ?`)
	wideWhitespace        = regexp.MustCompile(`\s{2,}`)
	spacedSemicolon       = regexp.MustCompile(`\s*;\s*`)
)

func isEventAttribute(name string, custom []*regexp.Regexp) bool {
	if custom == nil {
		return defaultEventAttribute.MatchString(name)
	}
	for _, re := range custom {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

var (
	hrefTags     = sets.New("a", "area", "link", "base")
	imgURIs      = sets.New("src", "longdesc", "usemap")
	objectURIs   = sets.New("classid", "codebase", "data", "usemap")
	citeTags     = sets.New("q", "blockquote", "ins", "del")
	tabindexTags = sets.New("a", "area", "object", "button")
	textareaNums = sets.New("rows", "cols", "tabindex")
)

func isURIAttribute(name, tag string) bool {
	switch {
	case hrefTags.Has(tag) && name == "href",
		tag == "img" && imgURIs.Has(name),
		tag == "object" && objectURIs.Has(name),
		citeTags.Has(tag) && name == "cite",
		tag == "form" && name == "action",
		tag == "input" && (name == "src" || name == "usemap"),
		tag == "head" && name == "profile",
		tag == "script" && (name == "src" || name == "for"):
		return true
	}
	return false
}

func isNumberAttribute(name, tag string) bool {
	switch {
	case tabindexTags.Has(tag) && name == "tabindex",
		tag == "input" && (name == "maxlength" || name == "tabindex"),
		tag == "select" && (name == "size" || name == "tabindex"),
		tag == "textarea" && textareaNums.Has(name),
		(tag == "colgroup" || tag == "col") && name == "span",
		(tag == "th" || tag == "td") && (name == "rowspan" || name == "colspan"):
		return true
	}
	return false
}

func isLinkType(tag string, list []dom.Attribute, rel string) bool {
	return tag == "link" && hasValue(list, "rel", rel)
}

func isMetaViewport(tag string, list []dom.Attribute) bool {
	return tag == "meta" && hasValue(list, "name", "viewport")
}

func isContentSecurityPolicy(tag string, list []dom.Attribute) bool {
	if tag != "meta" {
		return false
	}
	for _, a := range list {
		if strings.ToLower(a.Name) == "http-equiv" && strings.ToLower(a.Value) == "content-security-policy" {
			return true
		}
	}
	return false
}

func isStyleSheet(tag string, list []dom.Attribute) bool {
	if tag != "style" {
		return false
	}
	for _, a := range list {
		if strings.ToLower(a.Name) == "type" {
			return isStyleLinkType(a.Value)
		}
	}
	return true
}

func isMediaQuery(tag string, list []dom.Attribute, name string) bool {
	return name == "media" && (isLinkType(tag, list, "stylesheet") || isStyleSheet(tag, list))
}

// cleanValues rewrites each value according to the first category its
// attribute falls in. The category checks see the list as it was before
// any value changed.
func cleanValues(tag string, list []dom.Attribute, cfg Config) []dom.Attribute {
	run := cfg.Delegates
	out := make([]dom.Attribute, len(list))
	for i, a := range list {
		v := a.Value
		switch {
		case isEventAttribute(a.Name, cfg.CustomEventAttributes):
			v = javascriptScheme.ReplaceAllString(whitespace.Trim(v), "")
			v = run.MinifyJS(v, true)

		case a.Name == "class":
			v = whitespace.CollapseAll(whitespace.Trim(v))

		case isURIAttribute(a.Name, tag):
			v = whitespace.Trim(v)
			if !isLinkType(tag, list, "canonical") {
				v = run.MinifyURL(v)
			}

		case isNumberAttribute(a.Name, tag):
			v = whitespace.Trim(v)

		case a.Name == "style":
			v = whitespace.Trim(v)
			if v != "" {
				if strings.HasSuffix(v, ";") && !trailingEntity.MatchString(v) {
					v = trailingSemicolon.ReplaceAllString(v, ";")
				}
				v = run.MinifyCSS(v, delegate.CSSInline)
			}

		case a.Name == "srcset" && tags.Srcset.Has(tag):
			v = cleanSrcset(v, run)

		case isMetaViewport(tag, list) && a.Name == "content":
			v = decimalNumber.ReplaceAllStringFunc(anyWhitespace.ReplaceAllString(v, ""), canonicalNumber)

		case isContentSecurityPolicy(tag, list) && strings.ToLower(a.Name) == "content":
			v = whitespace.CollapseAll(v)

		case cfg.CustomAttrCollapse != nil && cfg.CustomAttrCollapse.MatchString(a.Name):
			repl := ""
			if cfg.ConservativeCollapse {
				repl = " "
			}
			v = whitespace.Trim(wideWhitespace.ReplaceAllLiteralString(lineBreakRun.ReplaceAllString(v, ""), repl))

		case tag == "script" && a.Name == "type":
			v = whitespace.Trim(spacedSemicolon.ReplaceAllString(v, ";"))

		case isMediaQuery(tag, list, a.Name):
			v = run.MinifyCSS(whitespace.Trim(v), delegate.CSSMedia)
		}
		a.Value = v
		out[i] = a
	}
	return out
}

// cleanSrcset minifies each candidate URL and drops the default 1x
// descriptor.
func cleanSrcset(value string, run *delegate.Runner) string {
	candidates := srcsetSeparator.Split(whitespace.Trim(value), -1)
	for i, c := range candidates {
		url, descriptor := c, ""
		if m := srcsetDescriptor.FindStringSubmatchIndex(c); m != nil {
			url = c[:m[0]]
			d := c[m[2]:m[3]]
			num, suffix := canonicalNumber(d[:len(d)-1]), d[len(d)-1:]
			if num != "1" || suffix != "x" {
				descriptor = " " + num + suffix
			}
		}
		candidates[i] = run.MinifyURL(url) + descriptor
	}
	return strings.Join(candidates, ", ")
}

// canonicalNumber prints a decimal the shortest way: 1.0 becomes 1 and
// 0.90000 becomes 0.9.
func canonicalNumber(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
