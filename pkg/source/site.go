package source

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/config"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// ForSite picks the source for a validated site configuration.
// onScanError, when non-nil, is called for each unreadable entry in
// directory mode.
func ForSite(log *logrus.Entry, site config.SiteConfig, onScanError func(entryPath string, err error)) (PageSource, error) {
	switch mode := site.Options.DiscoveryMode(); mode {
	case config.DiscoveryStatic:
		return Static{Paths: site.Paths}, nil
	case config.DiscoveryDirectory:
		d := NewDirectory(log, site.Options.Extension, site.Options.RespectNoindex)
		d.Scanner.OnEntryError = onScanError
		return d, nil
	case config.DiscoveryAssets:
		return Assets{Extension: site.Options.Extension}, nil
	default:
		return nil, fmt.Errorf("%w: unknown discovery mode %q", utils.ErrConfigValidation, mode)
	}
}
