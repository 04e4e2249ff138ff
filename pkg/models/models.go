package models

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the W3C date format used for <lastmod>
const DateLayout = "2006-01-02"

// Structured pass-through fields, rendered with the sitemap extension namespaces
const (
	FieldLinks  = "links" // hreflang alternates: [{lang, url}]
	FieldImages = "img"   // image URL, {url, caption, title, geoLocation, license}, or a list of those
	FieldVideo  = "video" // mapping or list of mappings of video:* elements
	FieldNews   = "news"  // mapping of news:* elements
)

// LastMod is a configured <lastmod> value: either a literal date string or
// "today", which is resolved at render time
type LastMod struct {
	Value string // Literal value, used verbatim
	Today bool   // true when configured as `lastmod: true`
}

// IsSet reports whether a lastmod was configured
func (l LastMod) IsSet() bool {
	return l.Today || l.Value != ""
}

// Resolve returns the rendered value, substituting the UTC date of now for
// Today
func (l LastMod) Resolve(now time.Time) string {
	if l.Today {
		return now.UTC().Format(DateLayout)
	}
	return l.Value
}

// UnmarshalYAML accepts a bool or a string
func (l *LastMod) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("lastmod must be a date string or a boolean (line %d)", value.Line)
	}
	if value.Tag == "!!bool" {
		var b bool
		if err := value.Decode(&b); err != nil {
			return err
		}
		*l = LastMod{Today: b}
		return nil
	}
	*l = LastMod{Value: value.Value}
	return nil
}

// MarshalYAML mirrors UnmarshalYAML
func (l LastMod) MarshalYAML() (interface{}, error) {
	if l.Today {
		return true, nil
	}
	return l.Value, nil
}

// PathOptions holds the per-URL sitemap fields that can be set globally or per path
type PathOptions struct {
	LastMod    LastMod
	ChangeFreq ChangeFreq
	Priority   *float64
	Extra      map[string]Value // Pass-through elements, see the Field* names for structured ones
}

var (
	extraNamePattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)
	reservedExtraNames = map[string]bool{"loc": true, "url": true, "path": true}
)

// Validate checks the invariants on changefreq, priority and extra field names
func (o PathOptions) Validate() error {
	if o.ChangeFreq != ChangeFreqUnset && !o.ChangeFreq.IsValid() {
		return fmt.Errorf("invalid changefreq %q (expected one of: %s)", string(o.ChangeFreq), ChangeFreqList())
	}
	if o.Priority != nil && (*o.Priority < 0 || *o.Priority > 1) {
		return fmt.Errorf("priority %v out of range [0.0, 1.0]", *o.Priority)
	}
	for _, name := range o.ExtraNames() {
		if reservedExtraNames[strings.ToLower(name)] {
			return fmt.Errorf("field %q cannot be overridden", name)
		}
		if err := validateExtra(name, o.Extra[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateExtra(name string, v Value) error {
	switch name {
	case FieldLinks:
		for i, item := range v.Items() {
			if item.Kind != MapValue {
				return fmt.Errorf("links[%d] must be a mapping with lang and url", i)
			}
			if item.GetString("url") == "" {
				return fmt.Errorf("links[%d] has no url", i)
			}
			if item.GetString("lang") == "" && item.GetString("hreflang") == "" {
				return fmt.Errorf("links[%d] has no lang", i)
			}
		}
		return nil
	case FieldImages:
		for i, item := range v.Items() {
			switch {
			case item.Kind == ScalarValue && item.Scalar != "":
			case item.Kind == MapValue && item.GetString("url") != "":
			default:
				return fmt.Errorf("img[%d] must be a URL or a mapping with url", i)
			}
		}
		return nil
	case FieldVideo, FieldNews:
		for i, item := range v.Items() {
			if item.Kind != MapValue {
				return fmt.Errorf("%s[%d] must be a mapping", name, i)
			}
			if err := validateNames(item); err != nil {
				return fmt.Errorf("%s[%d]: %w", name, i, err)
			}
		}
		return nil
	}
	if !extraNamePattern.MatchString(name) {
		return fmt.Errorf("field name %q is not a valid XML element name", name)
	}
	return validateNames(v)
}

// validateNames checks every nested mapping key is usable as an element name
func validateNames(v Value) error {
	switch v.Kind {
	case ListValue:
		for _, item := range v.List {
			if err := validateNames(item); err != nil {
				return err
			}
		}
	case MapValue:
		for _, f := range v.Fields {
			if !extraNamePattern.MatchString(f.Name) {
				return fmt.Errorf("field name %q is not a valid XML element name", f.Name)
			}
			if err := validateNames(f.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Merge returns o with every field set in over taking precedence
func (o PathOptions) Merge(over PathOptions) PathOptions {
	merged := o
	if over.LastMod.IsSet() {
		merged.LastMod = over.LastMod
	}
	if over.ChangeFreq != ChangeFreqUnset {
		merged.ChangeFreq = over.ChangeFreq
	}
	if over.Priority != nil {
		merged.Priority = over.Priority
	}
	if len(o.Extra) > 0 || len(over.Extra) > 0 {
		merged.Extra = make(map[string]Value, len(o.Extra)+len(over.Extra))
		for k, v := range o.Extra {
			merged.Extra[k] = v
		}
		for k, v := range over.Extra {
			merged.Extra[k] = v
		}
	}
	return merged
}

// ExtraNames returns the pass-through field names in sorted order
func (o PathOptions) ExtraNames() []string {
	names := make([]string, 0, len(o.Extra))
	for k := range o.Extra {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// PageRef is a page declared by configuration or produced by discovery.
// A bare path carries no overrides.
type PageRef struct {
	Path string
	PathOptions

	// URL, when set, is the final location produced by discovery and is
	// used as-is instead of resolving Path again.
	URL string

	// DefaultPriority is a discovery-computed priority. Unlike
	// PathOptions.Priority it yields to the global priority option.
	DefaultPriority *float64
}

// pageRefFields is the YAML shape of a detailed page record
type pageRefFields struct {
	Path       string           `yaml:"path"`
	LastMod    LastMod          `yaml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq       `yaml:"changefreq,omitempty"`
	Priority   *float64         `yaml:"priority,omitempty"`
	Extra      map[string]Value `yaml:",inline"`
}

// UnmarshalYAML accepts either a scalar path or a mapping with a path key
func (p *PageRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*p = PageRef{Path: value.Value}
		return nil
	case yaml.MappingNode:
		var f pageRefFields
		if err := value.Decode(&f); err != nil {
			return err
		}
		if f.Path == "" {
			return fmt.Errorf("page record at line %d has no path", value.Line)
		}
		*p = PageRef{
			Path: f.Path,
			PathOptions: PathOptions{
				LastMod:    f.LastMod,
				ChangeFreq: f.ChangeFreq,
				Priority:   f.Priority,
				Extra:      f.Extra,
			},
		}
		return nil
	}
	return fmt.Errorf("page reference at line %d must be a string or a mapping", value.Line)
}

// HasOverrides reports whether the reference is a detailed record
func (p PageRef) HasOverrides() bool {
	return p.LastMod.IsSet() || p.ChangeFreq != ChangeFreqUnset || p.Priority != nil || len(p.Extra) > 0
}

// FileRef is a file found by a directory scan. Dir is slash-separated and
// relative to the scan root ("." for the root itself).
type FileRef struct {
	Dir  string
	Name string
}

// Entry is a fully merged sitemap <url> element
type Entry struct {
	URL        string
	Priority   float64
	LastMod    string
	ChangeFreq ChangeFreq
	Extra      map[string]Value
}

// Document is one rendered sitemap file
type Document struct {
	Filename string
	Entries  []Entry
	XML      string
	IsIndex  bool // true for the <sitemapindex> document
}
