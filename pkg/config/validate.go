package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/sitemap"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// LogLevel
	if c.LogLevel == "" {
		c.LogLevel = "info"
	} else if _, perr := logrus.ParseLevel(c.LogLevel); perr != nil {
		warnings = append(warnings, fmt.Sprintf("log_level %q is not recognised, defaulting to 'info'", c.LogLevel))
		c.LogLevel = "info"
	}

	// MaxParallelSites
	if c.MaxParallelSites < 0 {
		warnings = append(warnings, "max_parallel_sites cannot be negative, running all sites in parallel")
		c.MaxParallelSites = 0
	}

	// WatchDebounce
	if c.WatchDebounce < 0 {
		warnings = append(warnings, "watch_debounce cannot be negative, using the default")
		c.WatchDebounce = 0
	}

	// WatchInterval
	if c.WatchInterval != "" {
		if _, perr := utils.ParseInterval(c.WatchInterval); perr != nil {
			return warnings, fmt.Errorf("%w: watch_interval: %w", utils.ErrConfigValidation, perr)
		}
	}

	if len(c.Sites) == 0 {
		warnings = append(warnings, "no sites configured")
	}

	return warnings, nil
}

// Validate checks SiteConfig fields and applies defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place (e.g., filename normalization).
func (c *SiteConfig) Validate() (warnings []string, err error) {
	// Required: Base
	c.Base = strings.TrimSpace(c.Base)
	if c.Base == "" {
		return nil, fmt.Errorf("%w: site needs a non-empty base", utils.ErrConfigValidation)
	}
	if u, perr := url.Parse(c.Base); perr != nil || !u.IsAbs() || u.Host == "" {
		warnings = append(warnings, fmt.Sprintf("base %q is not an absolute URL; sitemap locations will be relative", c.Base))
	}

	o := &c.Options

	// Filename
	if o.Filename == "" {
		o.Filename = DefaultFilename
	}
	o.Filename = sitemap.StripXMLExtension(o.Filename)
	if strings.TrimSpace(o.Filename) == "" {
		return warnings, fmt.Errorf("%w: filename must not be just '.xml'", utils.ErrConfigValidation)
	}

	// Extension
	o.Extension = strings.TrimPrefix(o.Extension, ".")
	if o.Extension == "" {
		o.Extension = DefaultExtension
	}

	// Limit
	switch {
	case o.Limit < 0:
		return warnings, fmt.Errorf("%w: limit cannot be negative", utils.ErrConfigValidation)
	case o.Limit == 0:
		o.Limit = sitemap.MaxURLsPerDocument
	case o.Limit > sitemap.MaxURLsPerDocument:
		warnings = append(warnings, fmt.Sprintf("limit %d exceeds the protocol maximum, using %d", o.Limit, sitemap.MaxURLsPerDocument))
		o.Limit = sitemap.MaxURLsPerDocument
	}

	// Index policy
	if o.Index == "" {
		o.Index = string(sitemap.IndexFlat)
	}
	if !sitemap.IndexPolicy(o.Index).IsValid() {
		return warnings, fmt.Errorf("%w: index %q (expected one of: flat, index, always)", utils.ErrConfigValidation, o.Index)
	}

	// GzipLevel (0 = default)
	if o.GzipLevel < -2 || o.GzipLevel > 9 {
		return warnings, fmt.Errorf("%w: gzip_level %d out of range [-2, 9]", utils.ErrConfigValidation, o.GzipLevel)
	}
	if o.SkipGzip && o.GzipLevel != 0 {
		warnings = append(warnings, "gzip_level is ignored because skipgzip is set")
	}

	// Format
	if _, ferr := sitemap.FormatterByName(o.Format); ferr != nil {
		return warnings, fmt.Errorf("%w: format: %w", utils.ErrConfigValidation, ferr)
	}

	// Exclude
	if _, rerr := o.ExcludePatterns(); rerr != nil {
		return warnings, fmt.Errorf("%w: exclude: %w", utils.ErrConfigValidation, rerr)
	}

	// Global path options, including changefreq
	if gerr := o.Globals().Validate(); gerr != nil {
		return warnings, fmt.Errorf("%w: options: %w", utils.ErrConfigValidation, gerr)
	}

	// Declared paths
	for i, p := range c.Paths {
		if perr := p.PathOptions.Validate(); perr != nil {
			return warnings, fmt.Errorf("%w: paths[%d] '%s': %w", utils.ErrConfigValidation, i, p.Path, perr)
		}
	}

	// Discovery
	switch mode := o.DiscoveryMode(); mode {
	case DiscoveryStatic:
		if len(c.Paths) == 0 {
			warnings = append(warnings, "no paths declared and discovery is static; no sitemap will be produced")
		}
		if o.RespectNoindex {
			warnings = append(warnings, "respect_noindex only applies to directory discovery")
		}
	case DiscoveryDirectory, DiscoveryAssets:
		if len(c.Paths) > 0 {
			warnings = append(warnings, fmt.Sprintf("paths are ignored when discovery is %s", mode))
		}
		if mode == DiscoveryAssets && o.AssetsManifest == "" {
			warnings = append(warnings, "discovery is assets but assets_manifest is empty; asset names must come from the build host")
		}
	default:
		return warnings, fmt.Errorf("%w: discovery %q (expected one of: static, directory, assets)", utils.ErrConfigValidation, mode)
	}
	if o.Discovery != "" && o.FromBuild && o.Discovery != DiscoveryDirectory {
		warnings = append(warnings, fmt.Sprintf("frombuild is ignored because discovery is %s", o.Discovery))
	}

	return warnings, nil
}
