// Package sitemap merges page references with global options, batches them
// into documents and renders sitemap XML.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/resolve"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// MaxURLsPerDocument is the protocol limit for a single sitemap file
const MaxURLsPerDocument = 50000

// Formatter post-processes rendered XML. Its output is used verbatim.
type Formatter func(doc string) (string, error)

// IndexPolicy controls whether a <sitemapindex> document is produced
type IndexPolicy string

const (
	IndexFlat   IndexPolicy = "flat"   // Never produce an index
	IndexMulti  IndexPolicy = "index"  // Produce an index when there is more than one document
	IndexAlways IndexPolicy = "always" // Always produce an index
)

// IsValid returns true for a known policy; empty means flat
func (p IndexPolicy) IsValid() bool {
	switch p {
	case "", IndexFlat, IndexMulti, IndexAlways:
		return true
	}
	return false
}

// BuildOptions carries everything a build needs besides the page list
type BuildOptions struct {
	Base       string
	PublicPath string
	Filename   string             // Base filename, ".xml" suffix optional
	Globals    models.PathOptions // Defaults for every entry
	Formatter  Formatter
	Limit      int // Entries per document; <= 0 means MaxURLsPerDocument
	Index      IndexPolicy
	Exclude    []*regexp.Regexp // Entries whose URL matches are dropped
	Now        time.Time        // Used for `lastmod: true`; zero means now, in UTC
}

// Build resolves and merges refs, then renders one document per batch of
// Limit entries. Invalid options fail with utils.ErrConfigValidation before
// anything is rendered.
func Build(refs []models.PageRef, opts BuildOptions) ([]models.Document, error) {
	entries, err := MergeEntries(refs, opts)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 || limit > MaxURLsPerDocument {
		limit = MaxURLsPerDocument
	}
	filename := StripXMLExtension(opts.Filename)

	batches := Partition(entries, limit)
	docs := make([]models.Document, 0, len(batches)+1)
	for idx, batch := range batches {
		rendered, err := RenderURLSet(batch)
		if err != nil {
			return nil, fmt.Errorf("%w: rendering document %d: %w", utils.ErrGeneration, idx, err)
		}
		rendered, err = applyFormatter(opts.Formatter, rendered)
		if err != nil {
			return nil, fmt.Errorf("%w: formatting document %d: %w", utils.ErrGeneration, idx, err)
		}
		docs = append(docs, models.Document{
			Filename: DocumentFilename(filename, "xml", idx),
			Entries:  batch,
			XML:      rendered,
		})
	}

	if wantIndex(opts.Index, len(docs)) {
		index, err := buildIndex(docs, filename, opts)
		if err != nil {
			return nil, err
		}
		docs = append(docs, index)
	}
	return docs, nil
}

// MergeEntries resolves every ref and applies the precedence
// entry override > global option > computed default.
func MergeEntries(refs []models.PageRef, opts BuildOptions) ([]models.Entry, error) {
	if err := opts.Globals.Validate(); err != nil {
		return nil, fmt.Errorf("%w: global options: %w", utils.ErrConfigValidation, err)
	}
	for _, ref := range refs {
		if err := ref.PathOptions.Validate(); err != nil {
			return nil, fmt.Errorf("%w: path '%s': %w", utils.ErrConfigValidation, ref.Path, err)
		}
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	resolver := resolve.New(opts.Base, opts.PublicPath)

	entries := make([]models.Entry, 0, len(refs))
	for _, ref := range refs {
		var resolved resolve.Resolved
		if ref.URL != "" {
			resolved = resolve.Resolved{URL: ref.URL}
		} else {
			resolved = resolver.FromPath(ref.Path)
		}
		if utils.MatchesAny(opts.Exclude, resolved.URL) {
			continue
		}
		merged := opts.Globals.Merge(ref.PathOptions)

		priority := resolved.Priority
		switch {
		case ref.Priority != nil:
			priority = *ref.Priority
		case opts.Globals.Priority != nil:
			priority = *opts.Globals.Priority
		case ref.DefaultPriority != nil:
			priority = *ref.DefaultPriority
		}

		entries = append(entries, models.Entry{
			URL:        resolved.URL,
			Priority:   priority,
			LastMod:    merged.LastMod.Resolve(now),
			ChangeFreq: merged.ChangeFreq,
			Extra:      merged.Extra,
		})
	}
	return entries, nil
}

// Partition splits entries into consecutive batches of at most limit
func Partition(entries []models.Entry, limit int) [][]models.Entry {
	if limit <= 0 {
		limit = MaxURLsPerDocument
	}
	batches := make([][]models.Entry, 0, (len(entries)+limit-1)/limit)
	for start := 0; start < len(entries); start += limit {
		end := min(start+limit, len(entries))
		batches = append(batches, entries[start:end])
	}
	return batches
}

// RenderURLSet renders a <urlset> document with the XML declaration
func RenderURLSet(entries []models.Entry) (string, error) {
	set := XMLURLSet{
		XMLNS: Namespace,
		URLs:  make([]XMLURL, 0, len(entries)),
	}
	used := make(map[string]bool)
	for _, e := range entries {
		u := XMLURL{
			Loc:        e.URL,
			LastMod:    e.LastMod,
			ChangeFreq: string(e.ChangeFreq),
			Priority:   FormatPriority(e.Priority),
		}
		for _, name := range (models.PathOptions{Extra: e.Extra}).ExtraNames() {
			u.Extra = append(u.Extra, extraNodes(name, e.Extra[name], used)...)
		}
		set.URLs = append(set.URLs, u)
	}
	set.Namespaces = namespaceAttrs(used)
	return marshalDocument(set)
}

// RenderIndex renders a <sitemapindex> document
func RenderIndex(sitemaps []XMLSitemap) (string, error) {
	return marshalDocument(XMLSitemapIndex{XMLNS: Namespace, Sitemaps: sitemaps})
}

func marshalDocument(v interface{}) (string, error) {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	if err := xml.NewEncoder(&sb).Encode(v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FormatPriority renders a priority with at least one decimal place
func FormatPriority(p float64) string {
	s := strconv.FormatFloat(p, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func applyFormatter(f Formatter, doc string) (string, error) {
	if f == nil {
		return doc, nil
	}
	return f(doc)
}

func wantIndex(policy IndexPolicy, docCount int) bool {
	switch policy {
	case IndexAlways:
		return docCount > 0
	case IndexMulti:
		return docCount > 1
	}
	return false
}

func buildIndex(docs []models.Document, filename string, opts BuildOptions) (models.Document, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	lastmod := opts.Globals.LastMod.Resolve(now)

	resolver := resolve.New(opts.Base, opts.PublicPath)
	sitemaps := make([]XMLSitemap, 0, len(docs))
	for _, d := range docs {
		sitemaps = append(sitemaps, XMLSitemap{
			Loc:     resolver.FromAsset(d.Filename).URL,
			LastMod: lastmod,
		})
	}

	rendered, err := RenderIndex(sitemaps)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: rendering sitemap index: %w", utils.ErrGeneration, err)
	}
	rendered, err = applyFormatter(opts.Formatter, rendered)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: formatting sitemap index: %w", utils.ErrGeneration, err)
	}
	return models.Document{
		Filename: IndexFilename(filename, "xml"),
		XML:      rendered,
		IsIndex:  true,
	}, nil
}
