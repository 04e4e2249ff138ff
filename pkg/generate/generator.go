// Package generate runs one sitemap generation pass for a site: discover
// pages, build documents, emit them, then emit their gzip counterparts.
package generate

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/compress"
	"github.com/Sriram-PR/sitemapgen/pkg/config"
	"github.com/Sriram-PR/sitemapgen/pkg/metrics"
	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/output"
	"github.com/Sriram-PR/sitemapgen/pkg/sitemap"
	"github.com/Sriram-PR/sitemapgen/pkg/source"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// PassResult summarises a single generation pass
type PassResult struct {
	Documents   []models.Document
	Compressed  []compress.Result
	Emitted     []string // Artifact names, in emit order
	Diagnostics []error
	Entries     int
	Digest      string // SHA-256 over the rendered documents
	Duration    time.Duration
}

// Failed reports whether the pass produced any diagnostic
func (r PassResult) Failed() bool {
	return len(r.Diagnostics) > 0
}

// Generator produces sitemaps for one configured site. It holds only the
// validated configuration; each Run starts from clean state.
type Generator struct {
	siteKey    string
	site       config.SiteConfig
	source     source.PageSource
	compressor *compress.Compressor // nil when skipgzip is set
	log        *logrus.Entry
	metrics    *metrics.Recorder
	now        func() time.Time
}

// New creates a Generator for a site whose configuration has already been
// validated. rec may be nil.
func New(log *logrus.Entry, siteKey string, site config.SiteConfig, rec *metrics.Recorder) (*Generator, error) {
	g := &Generator{
		siteKey: siteKey,
		site:    site,
		log:     log.WithFields(logrus.Fields{"component": "generator", "site": siteKey}),
		metrics: rec,
		now:     utcNow,
	}

	// Catch option errors before the first pass
	if _, err := site.BuildOptions(""); err != nil {
		return nil, err
	}

	src, err := source.ForSite(g.log, site, func(string, error) {
		rec.IncScanError(siteKey)
	})
	if err != nil {
		return nil, err
	}
	g.source = src

	if !site.Options.SkipGzip {
		c, err := compress.New(site.Options.GzipLevel)
		if err != nil {
			return nil, err
		}
		g.compressor = c
	}
	return g, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// SetClock overrides the time source used for `lastmod: true`
func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// SetSource overrides the page source chosen from configuration
func (g *Generator) SetSource(src source.PageSource) {
	g.source = src
}

// Run performs one pass against host. Failures are reported to the host as
// diagnostics and never returned or panicked.
func (g *Generator) Run(ctx context.Context, host output.Host) (res PassResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.log.Errorf("PANIC during generation pass: %v\n%s", r, string(debug.Stack()))
			res.Documents = nil
			g.report(host, &res, fmt.Errorf("%w: panic during pass: %v", utils.ErrGeneration, r))
		}
		res.Duration = time.Since(start)
		g.metrics.ObservePass(g.siteKey, passResultLabel(res), res.Duration, res.Entries)
	}()

	publicPath := host.PublicPath()
	docs, err := g.buildDocuments(ctx, host, publicPath)
	if err != nil {
		g.report(host, &res, err)
		return res
	}
	res.Documents = docs
	for _, d := range docs {
		res.Entries += len(d.Entries)
	}
	if len(docs) == 0 {
		g.log.Warn("No entries to write, skipping sitemap output")
		return res
	}

	xmls := make([]string, len(docs))
	emittedXML := 0
	for i, d := range docs {
		xmls[i] = d.XML
		if err := host.EmitArtifact(d.Filename, []byte(d.XML)); err != nil {
			g.report(host, &res, err)
			continue
		}
		res.Emitted = append(res.Emitted, d.Filename)
		emittedXML++
	}
	res.Digest = utils.CalculateDocumentsSHA256(xmls)
	g.metrics.AddDocuments(g.siteKey, "xml", emittedXML)

	if g.compressor != nil {
		g.emitCompressed(ctx, host, &res)
	}

	g.log.Infof("Generated %d document(s) with %d entries in %v", len(docs), res.Entries, time.Since(start).Round(time.Millisecond))
	return res
}

// buildDocuments discovers pages and renders the documents for this pass
func (g *Generator) buildDocuments(ctx context.Context, host output.Host, publicPath string) ([]models.Document, error) {
	refs, err := g.source.Pages(ctx, source.Pass{
		Base:       g.site.Base,
		PublicPath: publicPath,
		OutputDir:  host.OutputDirectory(),
		AssetNames: host.KnownHTMLAssetNames(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: discovering pages: %w", utils.ErrGeneration, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: pass cancelled: %w", utils.ErrGeneration, err)
	}
	g.log.Debugf("Building sitemap from %d page(s)", len(refs))

	opts, err := g.site.BuildOptions(publicPath)
	if err != nil {
		return nil, err
	}
	opts.Now = g.now()

	docs, err := sitemap.Build(refs, opts)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// emitCompressed gzips every document and emits the results. A failed
// document does not affect the others.
func (g *Generator) emitCompressed(ctx context.Context, host output.Host, res *PassResult) {
	res.Compressed = g.compressor.CompressAll(ctx, res.Documents)
	emitted := 0
	for _, c := range res.Compressed {
		if c.Err != nil {
			g.metrics.IncCompressionFailure(g.siteKey)
			g.report(host, res, c.Err)
			continue
		}
		if err := host.EmitArtifact(c.Filename, c.Data); err != nil {
			g.report(host, res, err)
			continue
		}
		res.Emitted = append(res.Emitted, c.Filename)
		emitted++
	}
	g.metrics.AddDocuments(g.siteKey, "gzip", emitted)
}

func (g *Generator) report(host output.Host, res *PassResult, err error) {
	res.Diagnostics = append(res.Diagnostics, err)
	g.metrics.IncDiagnostic(g.siteKey, utils.CategorizeError(err))
	host.ReportDiagnostic(err)
}

func passResultLabel(res PassResult) string {
	switch {
	case res.Failed():
		return metrics.ResultFailed
	case len(res.Documents) == 0:
		return metrics.ResultEmpty
	}
	return metrics.ResultSuccess
}
