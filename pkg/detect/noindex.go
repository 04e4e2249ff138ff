// Package detect inspects built HTML pages for indexing directives.
package detect

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// robotsMetaNames are the meta names carrying crawler directives
var robotsMetaNames = map[string]bool{"robots": true, "googlebot": true}

// NoindexDetector reports pages that ask crawlers not to index them
type NoindexDetector struct {
	log *logrus.Entry
}

// NewNoindexDetector creates a new detector
func NewNoindexDetector(log *logrus.Entry) *NoindexDetector {
	return &NoindexDetector{log: log.WithField("component", "noindex_detector")}
}

// IsNoindex reports whether the HTML read from r carries a noindex directive
func IsNoindex(r io.Reader) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return false, fmt.Errorf("%w: HTML document: %w", utils.ErrParsing, err)
	}
	noindex := false
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		if !robotsMetaNames[strings.ToLower(strings.TrimSpace(name))] {
			return true
		}
		content, _ := s.Attr("content")
		for _, directive := range strings.Split(content, ",") {
			switch strings.ToLower(strings.TrimSpace(directive)) {
			case "noindex", "none":
				noindex = true
				return false
			}
		}
		return true
	})
	return noindex, nil
}

// Filter drops the files in fsys that carry a noindex directive. Files that
// cannot be read or parsed are kept.
func (d *NoindexDetector) Filter(fsys fs.FS, files []models.FileRef) []models.FileRef {
	kept := make([]models.FileRef, 0, len(files))
	for _, f := range files {
		filePath := path.Join(f.Dir, f.Name)
		noindex, err := d.check(fsys, filePath)
		if err != nil {
			d.log.Warnf("Cannot inspect '%s' for noindex, keeping it: %v", filePath, err)
			kept = append(kept, f)
			continue
		}
		if noindex {
			d.log.Debugf("Excluding noindex page: %s", filePath)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func (d *NoindexDetector) check(fsys fs.FS, filePath string) (bool, error) {
	file, err := fsys.Open(filePath)
	if err != nil {
		return false, fmt.Errorf("%w: %w", utils.ErrFilesystem, err)
	}
	defer file.Close()
	return IsNoindex(file)
}
