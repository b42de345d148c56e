package main

import (
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/livefir/htmlminifier"
)

// Settings holds the minifier options as they appear on the command line
// and in the YAML config file.
type Settings struct {
	CaseSensitive                 bool `yaml:"case_sensitive" help:"Keep tag and attribute names as written."`
	CollapseBooleanAttributes     bool `yaml:"collapse_boolean_attributes" help:"Drop the value of boolean attributes."`
	CollapseWhitespace            bool `yaml:"collapse_whitespace" help:"Collapse whitespace in text."`
	ConservativeCollapse          bool `yaml:"conservative_collapse" help:"Always collapse to one space instead of removing it."`
	ContinueOnParseError          bool `yaml:"continue_on_parse_error" help:"Keep malformed markup as text."`
	DecodeEntities                bool `yaml:"decode_entities" help:"Use direct Unicode characters whenever possible."`
	HTML5                         bool `yaml:"html5" name:"html5" help:"Parse according to the HTML5 content model." default:"true" negatable:""`
	KeepClosingSlash              bool `yaml:"keep_closing_slash" help:"Keep the slash of self-closing elements."`
	MinifyCSS                     bool `yaml:"minify_css" name:"minify-css" help:"Minify style elements and attributes."`
	MinifyJS                      bool `yaml:"minify_js" name:"minify-js" help:"Minify scripts and event handlers."`
	MinifyURLs                    bool `yaml:"minify_urls" name:"minify-urls" help:"Rewrite URLs relative to --url-site."`
	PreserveLineBreaks            bool `yaml:"preserve_line_breaks" help:"Keep one line break where whitespace had one."`
	PreventAttributesEscaping     bool `yaml:"prevent_attributes_escaping" help:"Keep attribute quotes as written."`
	RemoveAttributeQuotes         bool `yaml:"remove_attribute_quotes" help:"Drop quotes where possible."`
	RemoveComments                bool `yaml:"remove_comments" help:"Strip comments."`
	RemoveEmptyAttributes         bool `yaml:"remove_empty_attributes" help:"Drop attributes with empty values."`
	RemoveEmptyElements           bool `yaml:"remove_empty_elements" help:"Drop elements without content."`
	RemoveRedundantAttributes     bool `yaml:"remove_redundant_attributes" help:"Drop attributes set to their default."`
	RemoveScriptTypeAttributes    bool `yaml:"remove_script_type_attributes" help:"Drop type=\"text/javascript\" from scripts."`
	RemoveStyleLinkTypeAttributes bool `yaml:"remove_style_link_type_attributes" help:"Drop type=\"text/css\" from style and link."`
	RemoveTagWhitespace           bool `yaml:"remove_tag_whitespace" help:"Drop space between attributes where possible."`
	SortAttributes                bool `yaml:"sort_attributes" help:"Sort attributes by frequency."`
	SortClassName                 bool `yaml:"sort_class_name" help:"Sort class names by frequency."`
	TrimCustomFragments           bool `yaml:"trim_custom_fragments" help:"Trim whitespace around ignored fragments."`
	UseShortDoctype               bool `yaml:"use_short_doctype" help:"Replace the doctype with the HTML5 one."`

	MaxLineLength         int      `yaml:"max_line_length" help:"Wrap output lines at this length." validate:"gte=0"`
	QuoteCharacter        string   `yaml:"quote_character" help:"Quote used for attribute values (' or \")." validate:"omitempty,quotechar"`
	URLSite               string   `yaml:"url_site" name:"url-site" help:"Absolute URL of the page, for --minify-urls." validate:"omitempty,url"`
	ProcessScripts        []string `yaml:"process_scripts" sep:"none" help:"Script types whose content is minified as markup." validate:"dive,mimelike"`
	IgnoreCustomComments  []string `yaml:"ignore_custom_comments" sep:"none" help:"Patterns of comments to keep." validate:"dive,pattern"`
	IgnoreCustomFragments []string `yaml:"ignore_custom_fragments" sep:"none" help:"Patterns of markup to leave untouched." validate:"dive,pattern"`
	CustomAttrAssign      []string `yaml:"custom_attr_assign" sep:"none" help:"Patterns of extra attribute assignment operators." validate:"dive,pattern"`
	CustomEventAttributes []string `yaml:"custom_event_attributes" sep:"none" help:"Patterns of event handler attribute names." validate:"dive,pattern"`
	CustomAttrCollapse    string   `yaml:"custom_attr_collapse" help:"Pattern of attributes whose line breaks are removed." validate:"omitempty,pattern"`
}

var mimeLike = regexp.MustCompile(`^[a-z]+/[a-z0-9.+-]+$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("quotechar", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == `"` || s == "'"
	})
	_ = v.RegisterValidation("mimelike", func(fl validator.FieldLevel) bool {
		return mimeLike.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pattern", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return v
}

// Check validates the settings and reports every problem at once.
func (s *Settings) Check() error {
	if err := newValidator().Struct(s); err != nil {
		if errs := ValidationToMultiError(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// LoadSettings reads a YAML config file. Keys left out of the file keep
// their zero value, except html5 which defaults to true.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	s := &Settings{HTML5: true}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return s, nil
}

// Merge lays flags over s. Switches turned on and values set on the
// command line win over the file.
func (s *Settings) Merge(flags *Settings, html5Set bool) {
	dst := reflect.ValueOf(s).Elem()
	src := reflect.ValueOf(flags).Elem()
	for i := 0; i < dst.NumField(); i++ {
		f := src.Field(i)
		if dst.Type().Field(i).Name == "HTML5" {
			if html5Set {
				dst.Field(i).Set(f)
			}
			continue
		}
		if !f.IsZero() {
			dst.Field(i).Set(f)
		}
	}
}

func compile(patterns []string) []*regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Options converts validated settings into minifier options.
func (s *Settings) Options() *htmlminifier.Options {
	opts := htmlminifier.DefaultOptions()
	opts.CaseSensitive = s.CaseSensitive
	opts.CollapseBooleanAttributes = s.CollapseBooleanAttributes
	opts.CollapseWhitespace = s.CollapseWhitespace
	opts.ConservativeCollapse = s.ConservativeCollapse
	opts.ContinueOnParseError = s.ContinueOnParseError
	opts.DecodeEntities = s.DecodeEntities
	opts.HTML4 = !s.HTML5
	opts.KeepClosingSlash = s.KeepClosingSlash
	opts.MinifyCSS = s.MinifyCSS
	opts.MinifyJS = s.MinifyJS
	opts.MinifyURLs = s.MinifyURLs
	opts.PreserveLineBreaks = s.PreserveLineBreaks
	opts.PreventAttributesEscaping = s.PreventAttributesEscaping
	opts.RemoveAttributeQuotes = s.RemoveAttributeQuotes
	opts.RemoveComments = s.RemoveComments
	opts.RemoveEmptyAttributes = s.RemoveEmptyAttributes
	opts.RemoveEmptyElements = s.RemoveEmptyElements
	opts.RemoveRedundantAttributes = s.RemoveRedundantAttributes
	opts.RemoveScriptTypeAttributes = s.RemoveScriptTypeAttributes
	opts.RemoveStyleLinkTypeAttributes = s.RemoveStyleLinkTypeAttributes
	opts.RemoveTagWhitespace = s.RemoveTagWhitespace
	opts.SortAttributes = s.SortAttributes
	opts.SortClassName = s.SortClassName
	opts.TrimCustomFragments = s.TrimCustomFragments
	opts.UseShortDoctype = s.UseShortDoctype

	opts.MaxLineLength = s.MaxLineLength
	opts.QuoteCharacter = s.QuoteCharacter
	opts.URLSite = s.URLSite
	opts.ProcessScripts = s.ProcessScripts
	if s.IgnoreCustomComments != nil {
		opts.IgnoreCustomComments = compile(s.IgnoreCustomComments)
	}
	if s.IgnoreCustomFragments != nil {
		opts.IgnoreCustomFragments = compile(s.IgnoreCustomFragments)
	}
	opts.CustomAttrAssign = compile(s.CustomAttrAssign)
	opts.CustomEventAttributes = compile(s.CustomEventAttributes)
	if s.CustomAttrCollapse != "" {
		opts.CustomAttrCollapse = regexp.MustCompile(s.CustomAttrCollapse)
	}
	return opts
}
