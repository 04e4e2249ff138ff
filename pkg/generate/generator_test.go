package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/sitemapgen/pkg/compress"
	"github.com/Sriram-PR/sitemapgen/pkg/config"
	"github.com/Sriram-PR/sitemapgen/pkg/metrics"
	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/output"
	"github.com/Sriram-PR/sitemapgen/pkg/source"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// memHost is an in-memory output.Host
type memHost struct {
	publicPath string
	outputDir  string
	assets     []string
	failEmit   map[string]bool

	mu          sync.Mutex
	artifacts   map[string][]byte
	order       []string
	diagnostics []error
}

var _ output.Host = (*memHost)(nil)

func newMemHost(publicPath string) *memHost {
	return &memHost{publicPath: publicPath, artifacts: map[string][]byte{}, failEmit: map[string]bool{}}
}

func (h *memHost) PublicPath() string            { return h.publicPath }
func (h *memHost) OutputDirectory() string       { return h.outputDir }
func (h *memHost) KnownHTMLAssetNames() []string { return h.assets }

func (h *memHost) EmitArtifact(name string, data []byte) error {
	if h.failEmit[name] {
		return fmt.Errorf("%w: disk full writing '%s'", utils.ErrEmit, name)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.artifacts[name] = data
	h.order = append(h.order, name)
	return nil
}

func (h *memHost) ReportDiagnostic(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.diagnostics = append(h.diagnostics, err)
}

// panicSource panics when asked for pages
type panicSource struct{}

func (panicSource) Pages(context.Context, source.Pass) ([]models.PageRef, error) {
	panic("boom")
}

type errSource struct{}

func (errSource) Pages(context.Context, source.Pass) ([]models.PageRef, error) {
	return nil, errors.New("no pages today")
}

var fixedNow = time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC)

func staticSite(paths ...string) config.SiteConfig {
	refs := make([]models.PageRef, len(paths))
	for i, p := range paths {
		refs[i] = models.PageRef{Path: p}
	}
	site := config.SiteConfig{Base: "https://mysite.com", Paths: refs}
	if _, err := site.Validate(); err != nil {
		panic(err)
	}
	return site
}

func newGenerator(t *testing.T, site config.SiteConfig, rec *metrics.Recorder) *Generator {
	t.Helper()
	g, err := New(testLogger(), "docs", site, rec)
	require.NoError(t, err)
	g.SetClock(func() time.Time { return fixedNow })
	return g
}

func TestRun_EmitsXMLThenGzip(t *testing.T) {
	site := staticSite("/", "/about", "/contact")
	site.Options.Limit = 2
	g := newGenerator(t, site, nil)
	host := newMemHost("/")

	res := g.Run(context.Background(), host)

	assert.False(t, res.Failed())
	assert.Empty(t, host.diagnostics)
	require.Len(t, res.Documents, 2)
	assert.Equal(t, 3, res.Entries)
	assert.Equal(t, []string{"sitemap.xml", "sitemap-1.xml", "sitemap.xml.gz", "sitemap-1.xml.gz"}, host.order)
	assert.Equal(t, host.order, res.Emitted)

	for _, d := range res.Documents {
		assert.Equal(t, d.XML, string(host.artifacts[d.Filename]))
		unzipped, err := compress.Decompress(host.artifacts[d.Filename+".gz"])
		require.NoError(t, err)
		assert.Equal(t, d.XML, unzipped)
	}
	assert.Contains(t, string(host.artifacts["sitemap.xml"]), "<loc>https://mysite.com/about</loc>")
	assert.NotEmpty(t, res.Digest)
}

func TestRun_SkipGzip(t *testing.T) {
	site := staticSite("/")
	site.Options.SkipGzip = true
	g := newGenerator(t, site, nil)
	host := newMemHost("")

	res := g.Run(context.Background(), host)
	assert.False(t, res.Failed())
	assert.Equal(t, []string{"sitemap.xml"}, host.order)
	assert.Empty(t, res.Compressed)
}

func TestRun_PublicPathFromHost(t *testing.T) {
	g := newGenerator(t, staticSite("/about"), nil)
	host := newMemHost("/app/")

	g.Run(context.Background(), host)
	assert.Contains(t, string(host.artifacts["sitemap.xml"]), "<loc>https://mysite.com/app/about</loc>")
}

func TestRun_LastModToday(t *testing.T) {
	site := staticSite("/")
	site.Options.LastMod = models.LastMod{Today: true}
	g := newGenerator(t, site, nil)
	host := newMemHost("")

	g.Run(context.Background(), host)
	assert.Contains(t, string(host.artifacts["sitemap.xml"]), "<lastmod>2024-05-17</lastmod>")
}

func TestNew_DefaultClockIsUTC(t *testing.T) {
	g, err := New(testLogger(), "docs", staticSite("/"), nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, g.now().Location())
}

func TestRun_NoEntries(t *testing.T) {
	site := config.SiteConfig{Base: "https://mysite.com"}
	_, err := site.Validate()
	require.NoError(t, err)
	g := newGenerator(t, site, nil)
	host := newMemHost("")

	res := g.Run(context.Background(), host)
	assert.False(t, res.Failed())
	assert.Empty(t, res.Documents)
	assert.Empty(t, host.order)
}

func TestRun_SourceErrorBecomesDiagnostic(t *testing.T) {
	g := newGenerator(t, staticSite("/"), nil)
	g.SetSource(errSource{})
	host := newMemHost("")

	res := g.Run(context.Background(), host)
	require.True(t, res.Failed())
	require.Len(t, host.diagnostics, 1)
	assert.True(t, errors.Is(host.diagnostics[0], utils.ErrGeneration))
	assert.Empty(t, res.Documents)
	assert.Empty(t, host.order)
}

func TestRun_InvalidEntryOptionsEmitNothing(t *testing.T) {
	g := newGenerator(t, staticSite("/"), nil)
	g.SetSource(source.Static{Paths: []models.PageRef{
		{Path: "/"},
		{Path: "/bad", PathOptions: models.PathOptions{ChangeFreq: "sometimes"}},
	}})
	host := newMemHost("")

	res := g.Run(context.Background(), host)
	require.True(t, res.Failed())
	assert.True(t, errors.Is(res.Diagnostics[0], utils.ErrConfigValidation))
	assert.Empty(t, res.Documents)
	assert.Empty(t, host.order)
}

func TestRun_PanicIsRecovered(t *testing.T) {
	reg := prom.NewRegistry()
	g := newGenerator(t, staticSite("/"), metrics.NewRecorder(reg))
	g.SetSource(panicSource{})
	host := newMemHost("")

	var res PassResult
	require.NotPanics(t, func() {
		res = g.Run(context.Background(), host)
	})
	require.True(t, res.Failed())
	assert.True(t, errors.Is(host.diagnostics[0], utils.ErrGeneration))
	assert.Contains(t, host.diagnostics[0].Error(), "boom")
	assert.Empty(t, res.Documents)
	assert.Positive(t, res.Duration)
}

func TestRun_CancelledContext(t *testing.T) {
	g := newGenerator(t, staticSite("/"), nil)
	host := newMemHost("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.Run(ctx, host)
	require.True(t, res.Failed())
	assert.True(t, errors.Is(res.Diagnostics[0], context.Canceled))
	assert.Empty(t, host.order)
}

func TestRun_EmitFailureIsolated(t *testing.T) {
	site := staticSite("/", "/a", "/b")
	site.Options.Limit = 1
	g := newGenerator(t, site, nil)
	host := newMemHost("")
	host.failEmit["sitemap-1.xml.gz"] = true

	res := g.Run(context.Background(), host)
	require.Len(t, res.Diagnostics, 1)
	assert.True(t, errors.Is(res.Diagnostics[0], utils.ErrEmit))
	assert.Equal(t, []string{
		"sitemap.xml", "sitemap-1.xml", "sitemap-2.xml",
		"sitemap.xml.gz", "sitemap-2.xml.gz",
	}, host.order)
}

func TestRun_IndexDocument(t *testing.T) {
	site := staticSite("/", "/a", "/b")
	site.Options.Limit = 2
	site.Options.Index = "index"
	g := newGenerator(t, site, nil)
	host := newMemHost("")

	res := g.Run(context.Background(), host)
	assert.False(t, res.Failed())
	assert.Contains(t, host.order, "sitemap-index.xml")
	assert.Contains(t, host.order, "sitemap-index.xml.gz")
	assert.Contains(t, string(host.artifacts["sitemap-index.xml"]), "<loc>https://mysite.com/sitemap-1.xml</loc>")
}

func TestRun_Idempotent(t *testing.T) {
	site := staticSite("/", "/about", "/docs/", "/docs/api")
	site.Options.LastMod = models.LastMod{Today: true}
	g := newGenerator(t, site, nil)

	first := newMemHost("/")
	second := newMemHost("/")
	r1 := g.Run(context.Background(), first)
	r2 := g.Run(context.Background(), second)

	assert.Equal(t, r1.Digest, r2.Digest)
	assert.Equal(t, first.artifacts, second.artifacts)
	assert.Equal(t, first.order, second.order)
}

func TestRun_DirectoryDiscovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "guide"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide", "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte(""), 0644))

	site := config.SiteConfig{Base: "https://mysite.com", OutputDir: dir, Options: config.Options{FromBuild: true}}
	_, err := site.Validate()
	require.NoError(t, err)

	g := newGenerator(t, site, nil)
	host := output.NewDirHost(testLogger(), dir, "/", nil)

	res := g.Run(context.Background(), host)
	assert.False(t, res.Failed())
	data, err := os.ReadFile(filepath.Join(dir, "sitemap.xml"))
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+
		`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`+
		`<url><loc>https://mysite.com/guide/</loc><priority>0.5</priority></url>`+
		`<url><loc>https://mysite.com/</loc><priority>1.0</priority></url>`+
		`</urlset>`, string(data))
	_, err = os.Stat(filepath.Join(dir, "sitemap.xml.gz"))
	require.NoError(t, err)

	// Generated artifacts are not picked up by the next pass
	res = g.Run(context.Background(), host)
	assert.Equal(t, 2, res.Entries)
}

func TestRun_AssetsDiscovery(t *testing.T) {
	site := config.SiteConfig{Base: "https://mysite.com", Options: config.Options{Discovery: config.DiscoveryAssets, AssetsManifest: "x"}}
	_, err := site.Validate()
	require.NoError(t, err)
	g := newGenerator(t, site, nil)
	host := newMemHost("static")
	host.assets = []string{"index.html", "main.css", "blog/post.html"}

	res := g.Run(context.Background(), host)
	assert.False(t, res.Failed())
	xml := string(host.artifacts["sitemap.xml"])
	assert.Equal(t, 2, strings.Count(xml, "<url>"))
	assert.Contains(t, xml, "<loc>https://mysite.com/static/blog/post.html</loc><priority>0.4</priority>")
}

func TestRun_AssetsDiscoveryRelativeBase(t *testing.T) {
	site := config.SiteConfig{Base: "mysite.com", Options: config.Options{Discovery: config.DiscoveryAssets, AssetsManifest: "x"}}
	_, err := site.Validate()
	require.NoError(t, err)
	g := newGenerator(t, site, nil)
	host := newMemHost("/blog")
	host.assets = []string{"about/index.html"}

	res := g.Run(context.Background(), host)
	require.False(t, res.Failed())
	assert.Contains(t, string(host.artifacts["sitemap.xml"]), "<url><loc>mysite.com/blog/about/</loc><priority>0.5</priority></url>")
}

func TestNew_InvalidOptions(t *testing.T) {
	site := staticSite("/")
	site.Options.Format = "fancy"
	_, err := New(testLogger(), "docs", site, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))

	site = staticSite("/")
	site.Options.GzipLevel = 42
	_, err = New(testLogger(), "docs", site, nil)
	require.Error(t, err)
}
