package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/sitemapgen/pkg/config"
	"github.com/Sriram-PR/sitemapgen/pkg/generate"
	"github.com/Sriram-PR/sitemapgen/pkg/metrics"
	"github.com/Sriram-PR/sitemapgen/pkg/output"
)

// SiteResult contains the result of one generation pass for a single site
type SiteResult struct {
	SiteKey   string
	Success   bool
	Error     error
	Documents int
	Entries   int
	Emitted   []string
	Digest    string
	Duration  time.Duration
}

// HostFactory creates the build host a site's pass runs against
type HostFactory func(siteKey string, siteCfg config.SiteConfig) (output.Host, error)

// Orchestrator runs generation passes for several sites in parallel
type Orchestrator struct {
	appCfg   *config.AppConfig
	log      *logrus.Entry
	siteKeys []string
	metrics  *metrics.Recorder
	newHost  HostFactory

	// Generators are built once per site and reused across runs
	generators   map[string]*generate.Generator
	generatorsMu sync.Mutex

	sem *semaphore.Weighted
}

// NewOrchestrator creates an orchestrator for the given sites. rec may be nil.
func NewOrchestrator(appCfg *config.AppConfig, siteKeys []string, log *logrus.Entry, rec *metrics.Recorder) *Orchestrator {
	limit := appCfg.MaxParallelSites
	if limit <= 0 || limit > len(siteKeys) {
		limit = len(siteKeys)
	}
	if limit == 0 {
		limit = 1
	}

	o := &Orchestrator{
		appCfg:     appCfg,
		log:        log.WithField("component", "orchestrator"),
		siteKeys:   siteKeys,
		metrics:    rec,
		generators: make(map[string]*generate.Generator, len(siteKeys)),
		sem:        semaphore.NewWeighted(int64(limit)),
	}
	o.newHost = o.defaultHost
	return o
}

// SetHostFactory replaces the default filesystem host
func (o *Orchestrator) SetHostFactory(f HostFactory) {
	o.newHost = f
}

// SiteKeys returns the sites this orchestrator runs
func (o *Orchestrator) SiteKeys() []string {
	return o.siteKeys
}

// Run performs one pass for every site in parallel and waits for completion.
// Results are ordered by site key.
func (o *Orchestrator) Run(ctx context.Context) []SiteResult {
	startTime := time.Now()
	o.log.Infof("Starting sitemap generation for %d sites: %v", len(o.siteKeys), o.siteKeys)

	results := make([]SiteResult, len(o.siteKeys))
	var wg sync.WaitGroup

	for i, siteKey := range o.siteKeys {
		wg.Add(1)
		go func(idx int, key string) {
			defer wg.Done()
			results[idx] = o.RunSite(ctx, key)
		}(i, siteKey)
	}

	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].SiteKey < results[j].SiteKey })
	o.logSummary(results, time.Since(startTime))
	return results
}

// RunSite performs one pass for a single site
func (o *Orchestrator) RunSite(ctx context.Context, siteKey string) SiteResult {
	startTime := time.Now()
	result := SiteResult{SiteKey: siteKey}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		result.Error = fmt.Errorf("site '%s' not started: %w", siteKey, err)
		result.Duration = time.Since(startTime)
		return result
	}
	defer o.sem.Release(1)

	siteCfg, exists := o.appCfg.Sites[siteKey]
	if !exists {
		result.Error = fmt.Errorf("site '%s' not found in configuration", siteKey)
		o.log.Errorf("Site '%s' not found in configuration", siteKey)
		return result
	}

	gen, err := o.generator(siteKey, siteCfg)
	if err != nil {
		result.Error = fmt.Errorf("failed to prepare generator for '%s': %w", siteKey, err)
		o.log.Errorf("Failed to prepare site '%s': %v", siteKey, err)
		result.Duration = time.Since(startTime)
		return result
	}

	host, err := o.newHost(siteKey, siteCfg)
	if err != nil {
		result.Error = fmt.Errorf("failed to create output host for '%s': %w", siteKey, err)
		o.log.Errorf("Failed to create output host for site '%s': %v", siteKey, err)
		result.Duration = time.Since(startTime)
		return result
	}

	pass := gen.Run(ctx, host)
	result.Documents = len(pass.Documents)
	result.Entries = pass.Entries
	result.Emitted = pass.Emitted
	result.Digest = pass.Digest
	result.Error = errors.Join(pass.Diagnostics...)
	result.Success = result.Error == nil
	result.Duration = time.Since(startTime)
	return result
}

// generator returns the cached generator for siteKey, building it on first use
func (o *Orchestrator) generator(siteKey string, siteCfg config.SiteConfig) (*generate.Generator, error) {
	o.generatorsMu.Lock()
	defer o.generatorsMu.Unlock()

	if g, ok := o.generators[siteKey]; ok {
		return g, nil
	}

	warnings, err := siteCfg.Validate()
	for _, w := range warnings {
		o.log.WithField("site", siteKey).Warn(w)
	}
	if err != nil {
		return nil, err
	}

	g, err := generate.New(o.log, siteKey, siteCfg, o.metrics)
	if err != nil {
		return nil, err
	}
	o.generators[siteKey] = g
	return g, nil
}

// defaultHost writes into the site's output directory. In assets mode the
// asset list is re-read from the manifest on every pass.
func (o *Orchestrator) defaultHost(siteKey string, siteCfg config.SiteConfig) (output.Host, error) {
	var assets []string
	if siteCfg.Options.DiscoveryMode() == config.DiscoveryAssets && siteCfg.Options.AssetsManifest != "" {
		names, err := output.ManifestAssets(siteCfg.Options.AssetsManifest)
		if err != nil {
			return nil, err
		}
		assets = names
	}
	return output.NewDirHost(
		o.log.WithField("site", siteKey),
		config.GetEffectiveOutputDir(siteCfg, *o.appCfg),
		config.GetEffectivePublicPath(siteCfg, *o.appCfg),
		assets,
	), nil
}

// logSummary logs a summary of all generation results
func (o *Orchestrator) logSummary(results []SiteResult, totalDuration time.Duration) {
	o.log.Info("============================================")
	o.log.Infof("Sitemap generation completed in %v", totalDuration)
	o.log.Info("Site Results:")

	totalEntries := 0
	successCount := 0
	failCount := 0

	for _, r := range results {
		status := "SUCCESS"
		if !r.Success {
			status = "FAILED"
			failCount++
		} else {
			successCount++
		}
		totalEntries += r.Entries

		o.log.Infof("  %s: %s - %d entries in %d document(s) in %v", r.SiteKey, status, r.Entries, r.Documents, r.Duration)
		if r.Error != nil {
			o.log.Infof("    Error: %v", r.Error)
		}
	}

	o.log.Info("--------------------------------------------")
	o.log.Infof("Total: %d sites (%d success, %d failed), %d entries written",
		len(results), successCount, failCount, totalEntries)
	o.log.Info("============================================")
}

// ValidateSiteKeys checks that all provided site keys exist in the config
func ValidateSiteKeys(appCfg *config.AppConfig, siteKeys []string) error {
	for _, key := range siteKeys {
		if _, exists := appCfg.Sites[key]; !exists {
			return fmt.Errorf("site '%s' not found. Available sites: %v", key, GetAllSiteKeys(appCfg))
		}
	}
	return nil
}

// GetAllSiteKeys returns all site keys from the config, sorted
func GetAllSiteKeys(appCfg *config.AppConfig) []string {
	keys := make([]string, 0, len(appCfg.Sites))
	for k := range appCfg.Sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
