// Package source supplies the page list for a generation pass: declared
// paths, a scan of the output directory, or the build's emitted assets.
package source

import (
	"context"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/detect"
	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/resolve"
	"github.com/Sriram-PR/sitemapgen/pkg/scan"
)

// Pass carries the per-pass values a source may need
type Pass struct {
	Base       string
	PublicPath string
	OutputDir  string
	AssetNames []string
}

// PageSource produces the page references for one pass
type PageSource interface {
	Pages(ctx context.Context, pass Pass) ([]models.PageRef, error)
}

// Static returns the configured paths unchanged
type Static struct {
	Paths []models.PageRef
}

// Pages implements PageSource
func (s Static) Pages(_ context.Context, _ Pass) ([]models.PageRef, error) {
	refs := make([]models.PageRef, len(s.Paths))
	copy(refs, s.Paths)
	return refs, nil
}

// Directory discovers pages by scanning the output directory
type Directory struct {
	Scanner   *scan.Scanner
	Detector  *detect.NoindexDetector // nil keeps noindex pages
	Extension string
	FS        fs.FS // Overrides Pass.OutputDir when set
	log       *logrus.Entry
}

// NewDirectory creates a Directory source. respectNoindex enables the
// noindex filter.
func NewDirectory(log *logrus.Entry, extension string, respectNoindex bool) *Directory {
	d := &Directory{
		Scanner:   scan.NewScanner(log),
		Extension: extension,
		log:       log,
	}
	if respectNoindex {
		d.Detector = detect.NewNoindexDetector(log)
	}
	return d
}

// Pages implements PageSource. Unreadable directories yield fewer pages,
// never an error.
func (d *Directory) Pages(ctx context.Context, pass Pass) ([]models.PageRef, error) {
	fsys := d.FS
	var files []models.FileRef
	if fsys == nil {
		fsys = os.DirFS(pass.OutputDir)
		files = d.Scanner.ScanDir(ctx, pass.OutputDir, d.Extension)
	} else {
		files = d.Scanner.Scan(ctx, fsys, d.Extension)
	}
	if d.Detector != nil {
		files = d.Detector.Filter(fsys, files)
	}

	resolver := resolve.New(pass.Base, pass.PublicPath)
	refs := make([]models.PageRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, discovered(resolver.FromFile(f)))
	}
	if d.log != nil {
		d.log.Debugf("Discovered %d page(s) under '%s'", len(refs), pass.OutputDir)
	}
	return refs, nil
}

// Assets takes pages from the asset names the build reported
type Assets struct {
	Extension string
}

// Pages implements PageSource
func (a Assets) Pages(_ context.Context, pass Pass) ([]models.PageRef, error) {
	resolver := resolve.New(pass.Base, pass.PublicPath)
	refs := make([]models.PageRef, 0, len(pass.AssetNames))
	for _, name := range pass.AssetNames {
		if !scan.MatchesExtension(name, a.Extension) {
			continue
		}
		refs = append(refs, discovered(resolver.FromAsset(name)))
	}
	return refs, nil
}

// discovered turns a resolved page into a ref that is not resolved again,
// whose computed priority still yields to the global priority option
func discovered(r resolve.Resolved) models.PageRef {
	priority := r.Priority
	return models.PageRef{Path: r.URL, URL: r.URL, DefaultPriority: &priority}
}
