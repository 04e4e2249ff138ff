package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/sitemap"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// containsWarning checks if any warning contains the given substring
func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, containsWarning(warnings, "no sites configured"))
}

func TestAppConfig_Validate(t *testing.T) {
	t.Run("unknown log level", func(t *testing.T) {
		cfg := AppConfig{LogLevel: "chatty", Sites: map[string]SiteConfig{"a": {}}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, containsWarning(warnings, "log_level"))
	})

	t.Run("negative debounce", func(t *testing.T) {
		cfg := AppConfig{WatchDebounce: -1, Sites: map[string]SiteConfig{"a": {}}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Zero(t, cfg.WatchDebounce)
		assert.True(t, containsWarning(warnings, "watch_debounce"))
	})

	t.Run("negative parallelism", func(t *testing.T) {
		cfg := AppConfig{MaxParallelSites: -2, Sites: map[string]SiteConfig{"a": {}}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Zero(t, cfg.MaxParallelSites)
		assert.True(t, containsWarning(warnings, "max_parallel_sites"))
	})

	t.Run("valid interval", func(t *testing.T) {
		cfg := AppConfig{WatchInterval: "7d", Sites: map[string]SiteConfig{"a": {}}}
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("invalid interval", func(t *testing.T) {
		cfg := AppConfig{WatchInterval: "soon"}
		_, err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrConfigValidation))
	})
}

func TestSiteConfig_Validate_Defaults(t *testing.T) {
	cfg := SiteConfig{Base: " https://mysite.com ", Paths: []models.PageRef{{Path: "/"}}}
	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "https://mysite.com", cfg.Base)
	assert.Equal(t, DefaultFilename, cfg.Options.Filename)
	assert.Equal(t, DefaultExtension, cfg.Options.Extension)
	assert.Equal(t, sitemap.MaxURLsPerDocument, cfg.Options.Limit)
	assert.Equal(t, string(sitemap.IndexFlat), cfg.Options.Index)
}

func TestSiteConfig_Validate_Normalization(t *testing.T) {
	cfg := SiteConfig{
		Base:    "https://mysite.com",
		Options: Options{Filename: "pages.xml", Extension: ".htm", FromBuild: true},
	}
	_, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, "pages", cfg.Options.Filename)
	assert.Equal(t, "htm", cfg.Options.Extension)
}

func TestSiteConfig_Validate_Fatal(t *testing.T) {
	valid := func() SiteConfig {
		return SiteConfig{Base: "https://mysite.com", Paths: []models.PageRef{{Path: "/"}}}
	}
	tests := []struct {
		name    string
		setup   func(*SiteConfig)
		wantErr string
	}{
		{"empty base", func(c *SiteConfig) { c.Base = "  " }, "base"},
		{"filename only extension", func(c *SiteConfig) { c.Options.Filename = ".xml" }, "filename"},
		{"negative limit", func(c *SiteConfig) { c.Options.Limit = -1 }, "limit"},
		{"unknown index policy", func(c *SiteConfig) { c.Options.Index = "nested" }, "index"},
		{"gzip level too high", func(c *SiteConfig) { c.Options.GzipLevel = 10 }, "gzip_level"},
		{"unknown format", func(c *SiteConfig) { c.Options.Format = "fancy" }, "format"},
		{"bad exclude", func(c *SiteConfig) { c.Options.Exclude = []string{"("} }, "exclude"},
		{"global changefreq", func(c *SiteConfig) { c.Options.ChangeFreq = "sometimes" }, "changefreq"},
		{"global priority", func(c *SiteConfig) { c.Options.Priority = floatPtr(1.5) }, "priority"},
		{"reserved extra", func(c *SiteConfig) { c.Options.Extra = map[string]models.Value{"loc": models.String("x")} }, "loc"},
		{"path changefreq", func(c *SiteConfig) {
			c.Paths = append(c.Paths, models.PageRef{Path: "/a", PathOptions: models.PathOptions{ChangeFreq: "often"}})
		}, "paths[1]"},
		{"unknown discovery", func(c *SiteConfig) { c.Options.Discovery = "crawl" }, "discovery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.setup(&cfg)
			_, err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrConfigValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSiteConfig_Validate_Warnings(t *testing.T) {
	tests := []struct {
		name        string
		cfg         SiteConfig
		wantWarning string
		check       func(*testing.T, *SiteConfig)
	}{
		{
			name:        "relative base",
			cfg:         SiteConfig{Base: "mysite.com", Paths: []models.PageRef{{Path: "/"}}},
			wantWarning: "not an absolute URL",
		},
		{
			name:        "limit above maximum",
			cfg:         SiteConfig{Base: "https://mysite.com", Paths: []models.PageRef{{Path: "/"}}, Options: Options{Limit: 60000}},
			wantWarning: "exceeds the protocol maximum",
			check: func(t *testing.T, c *SiteConfig) {
				assert.Equal(t, sitemap.MaxURLsPerDocument, c.Options.Limit)
			},
		},
		{
			name:        "static without paths",
			cfg:         SiteConfig{Base: "https://mysite.com"},
			wantWarning: "no paths declared",
		},
		{
			name:        "paths ignored by discovery",
			cfg:         SiteConfig{Base: "https://mysite.com", Paths: []models.PageRef{{Path: "/"}}, Options: Options{Discovery: DiscoveryDirectory}},
			wantWarning: "paths are ignored",
		},
		{
			name:        "assets without manifest",
			cfg:         SiteConfig{Base: "https://mysite.com", Options: Options{Discovery: DiscoveryAssets}},
			wantWarning: "assets_manifest is empty",
		},
		{
			name:        "gzip level with skipgzip",
			cfg:         SiteConfig{Base: "https://mysite.com", Paths: []models.PageRef{{Path: "/"}}, Options: Options{SkipGzip: true, GzipLevel: 5}},
			wantWarning: "gzip_level is ignored",
		},
		{
			name:        "noindex in static mode",
			cfg:         SiteConfig{Base: "https://mysite.com", Paths: []models.PageRef{{Path: "/"}}, Options: Options{RespectNoindex: true}},
			wantWarning: "respect_noindex",
		},
		{
			name:        "frombuild overridden",
			cfg:         SiteConfig{Base: "https://mysite.com", Options: Options{Discovery: DiscoveryAssets, AssetsManifest: "a.txt", FromBuild: true}},
			wantWarning: "frombuild is ignored",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := tt.cfg.Validate()
			require.NoError(t, err)
			assert.True(t, containsWarning(warnings, tt.wantWarning), "warnings: %v", warnings)
			if tt.check != nil {
				tt.check(t, &tt.cfg)
			}
		})
	}
}
