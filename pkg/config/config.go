package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/sitemap"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// Discovery modes
const (
	DiscoveryStatic    = "static"
	DiscoveryDirectory = "directory"
	DiscoveryAssets    = "assets"
)

const (
	DefaultFilename  = "sitemap"
	DefaultExtension = "html"
	DefaultOutputDir = "./dist"
)

// Options holds the per-site generation options. Keys not listed here are
// passed through to every <url> element.
type Options struct {
	Filename       string                  `yaml:"filename,omitempty"`
	SkipGzip       bool                    `yaml:"skipgzip,omitempty"`
	Discovery      string                  `yaml:"discovery,omitempty"` // static | directory | assets
	FromBuild      bool                    `yaml:"frombuild,omitempty"` // Same as discovery: directory
	Extension      string                  `yaml:"extension,omitempty"`
	AssetsManifest string                  `yaml:"assets_manifest,omitempty"`
	RespectNoindex bool                    `yaml:"respect_noindex,omitempty"`
	Limit          int                     `yaml:"limit,omitempty"`
	Index          string                  `yaml:"index,omitempty"` // flat | index | always
	GzipLevel      int                     `yaml:"gzip_level,omitempty"`
	Format         string                  `yaml:"format,omitempty"`  // compact | indent
	Exclude        []string                `yaml:"exclude,omitempty"` // Regex patterns matched against final URLs
	LastMod        models.LastMod          `yaml:"lastmod,omitempty"`
	ChangeFreq     models.ChangeFreq       `yaml:"changefreq,omitempty"`
	Priority       *float64                `yaml:"priority,omitempty"`
	Extra          map[string]models.Value `yaml:",inline"`
}

// SiteConfig holds configuration for a single site's sitemap
type SiteConfig struct {
	Base       string           `yaml:"base"`
	OutputDir  string           `yaml:"output_dir,omitempty"`
	PublicPath *string          `yaml:"public_path,omitempty"`
	Paths      []models.PageRef `yaml:"paths,omitempty"`
	Options    Options          `yaml:"options,omitempty"`
}

// AppConfig holds the global application configuration
type AppConfig struct {
	LogLevel         string                `yaml:"log_level,omitempty"`
	OutputDir        string                `yaml:"output_dir,omitempty"`         // Default for sites without output_dir
	PublicPath       string                `yaml:"public_path,omitempty"`        // Default for sites without public_path
	MaxParallelSites int                   `yaml:"max_parallel_sites,omitempty"` // 0 = all selected sites at once
	WatchDebounce    time.Duration         `yaml:"watch_debounce,omitempty"`
	WatchInterval    string                `yaml:"watch_interval,omitempty"` // e.g. "1h", "7d"; empty disables the ticker
	Sites            map[string]SiteConfig `yaml:"sites"`
}

// Load reads and parses a YAML config file
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config: %w", utils.ErrConfigValidation, err)
	}
	return &cfg, nil
}

// Globals returns the path options applied to every entry
func (o Options) Globals() models.PathOptions {
	return models.PathOptions{
		LastMod:    o.LastMod,
		ChangeFreq: o.ChangeFreq,
		Priority:   o.Priority,
		Extra:      o.Extra,
	}
}

// DiscoveryMode returns the effective discovery mode; frombuild is an alias
// for directory.
func (o Options) DiscoveryMode() string {
	if o.Discovery != "" {
		return o.Discovery
	}
	if o.FromBuild {
		return DiscoveryDirectory
	}
	return DiscoveryStatic
}

// ExcludePatterns compiles the exclude option
func (o Options) ExcludePatterns() ([]*regexp.Regexp, error) {
	return utils.CompileRegexPatterns(o.Exclude)
}

// BuildOptions assembles the sitemap builder options for a pass.
// publicPath is the value in effect for that pass.
func (c SiteConfig) BuildOptions(publicPath string) (sitemap.BuildOptions, error) {
	formatter, err := sitemap.FormatterByName(c.Options.Format)
	if err != nil {
		return sitemap.BuildOptions{}, fmt.Errorf("%w: %w", utils.ErrConfigValidation, err)
	}
	exclude, err := c.Options.ExcludePatterns()
	if err != nil {
		return sitemap.BuildOptions{}, fmt.Errorf("%w: exclude: %w", utils.ErrConfigValidation, err)
	}
	return sitemap.BuildOptions{
		Base:       c.Base,
		PublicPath: publicPath,
		Filename:   c.Options.Filename,
		Globals:    c.Options.Globals(),
		Formatter:  formatter,
		Limit:      c.Options.Limit,
		Index:      sitemap.IndexPolicy(c.Options.Index),
		Exclude:    exclude,
	}, nil
}

// GetEffectiveOutputDir determines the directory artifacts are written to
// and, in directory mode, scanned.
func GetEffectiveOutputDir(siteCfg SiteConfig, appCfg AppConfig) string {
	if siteCfg.OutputDir != "" {
		return siteCfg.OutputDir
	}
	if appCfg.OutputDir != "" {
		return appCfg.OutputDir
	}
	return DefaultOutputDir
}

// GetEffectivePublicPath determines the public path. An explicit empty
// site value overrides the global one.
func GetEffectivePublicPath(siteCfg SiteConfig, appCfg AppConfig) string {
	if siteCfg.PublicPath != nil {
		return *siteCfg.PublicPath
	}
	return appCfg.PublicPath
}

// GetEffectiveWatchDebounce determines the debounce window for watch mode
func GetEffectiveWatchDebounce(appCfg AppConfig) time.Duration {
	if appCfg.WatchDebounce > 0 {
		return appCfg.WatchDebounce
	}
	return 500 * time.Millisecond
}
