package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/compress"
	"github.com/Sriram-PR/sitemapgen/pkg/config"
	"github.com/Sriram-PR/sitemapgen/pkg/generate"
	applog "github.com/Sriram-PR/sitemapgen/pkg/log"
	"github.com/Sriram-PR/sitemapgen/pkg/metrics"
	"github.com/Sriram-PR/sitemapgen/pkg/orchestrate"
	"github.com/Sriram-PR/sitemapgen/pkg/output"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
	"github.com/Sriram-PR/sitemapgen/pkg/watch"
)

const version = "0.4.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list-sites":
		runListSites(os.Args[2:])
	case "version":
		fmt.Printf("sitemapgen %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `sitemapgen - Sitemap generator for static build output

Usage:
  sitemapgen <command> [options]

Commands:
  generate    Generate sitemaps once
  watch       Regenerate sitemaps when build output changes
  validate    Validate configuration file
  list-sites  List available site keys
  version     Show version info

Run 'sitemapgen <command> -h' for command-specific help.`)
}

// siteSelection holds the -site, -sites and -all-sites flags shared by
// generate and watch.
type siteSelection struct {
	site     *string
	sites    *string
	allSites *bool
}

func addSiteFlags(fs *flag.FlagSet, verb string) siteSelection {
	return siteSelection{
		site:     fs.String("site", "", "Site key from config (single site)"),
		sites:    fs.String("sites", "", "Comma-separated site keys"),
		allSites: fs.Bool("all-sites", false, verb+" all configured sites"),
	}
}

// keys returns the selected site keys. A nil slice with ok=true means
// all sites.
func (s siteSelection) keys() (keys []string, ok bool) {
	return parseSiteKeys(*s.site, *s.sites, *s.allSites)
}

// parseSiteKeys resolves the site flags into a list of keys.
func parseSiteKeys(site, sites string, allSites bool) ([]string, bool) {
	switch {
	case allSites:
		return nil, true
	case sites != "":
		var keys []string
		for _, s := range strings.Split(sites, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				keys = append(keys, s)
			}
		}
		return keys, len(keys) > 0
	case site != "":
		return []string{site}, true
	}
	return nil, false
}

// runGenerate handles the generate subcommand
func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	sel := addSiteFlags(fs, "Generate")
	logLevel := fs.String("loglevel", "", "Log level (debug, info, warn, error, fatal); overrides log_level from config")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. localhost:9100 (disabled by default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sitemapgen generate [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sitemapgen generate -site docs\n")
		fmt.Fprintf(os.Stderr, "  sitemapgen generate -sites docs,blog\n")
		fmt.Fprintf(os.Stderr, "  sitemapgen generate --all-sites\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	siteKeys, ok := sel.keys()
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: one of -site, -sites, or --all-sites is required")
		fs.Usage()
		os.Exit(1)
	}

	os.Exit(executeGenerate(*configFile, siteKeys, *sel.allSites, *logLevel, *metricsAddr))
}

// executeGenerate runs a single pass for the selected sites and returns
// the process exit code.
func executeGenerate(configFile string, siteKeys []string, allSites bool, logLevelStr, metricsAddr string) int {
	appCfg, log := loadAndValidateConfig(configFile, logLevelStr)
	siteKeys = resolveSiteKeys(appCfg, siteKeys, allSites, log)
	validateSiteConfigs(appCfg, siteKeys, log)

	rec := metrics.NewRecorder(nil)
	startMetricsServer(metricsAddr, rec, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := orchestrate.NewOrchestrator(appCfg, siteKeys, applog.Component(log, "generate"), rec)
	results := orch.Run(ctx)

	if ctx.Err() != nil {
		log.Warn("Generation cancelled.")
		return 1
	}
	for _, r := range results {
		if !r.Success {
			return 1
		}
	}
	return 0
}

// runWatch handles the watch subcommand
func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	sel := addSiteFlags(fs, "Watch")
	interval := fs.String("interval", "", "Also regenerate on this interval (e.g., 30m, 1h, 7d); overrides watch_interval from config")
	debounce := fs.Duration("debounce", 0, "Quiet period after a change before regenerating; overrides watch_debounce from config")
	stateDir := fs.String("state-dir", "", "Directory for persisted watch state (in memory if empty)")
	logLevel := fs.String("loglevel", "", "Log level (debug, info, warn, error, fatal); overrides log_level from config")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. localhost:9100 (disabled by default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sitemapgen watch [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  sitemapgen watch -site docs\n")
		fmt.Fprintf(os.Stderr, "  sitemapgen watch -sites docs,blog --debounce 2s\n")
		fmt.Fprintf(os.Stderr, "  sitemapgen watch --all-sites --interval 6h --metrics-addr localhost:9100\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	siteKeys, ok := sel.keys()
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: one of -site, -sites, or --all-sites is required")
		fs.Usage()
		os.Exit(1)
	}

	executeWatch(*configFile, siteKeys, *sel.allSites, *interval, *debounce, *stateDir, *logLevel, *metricsAddr)
}

// executeWatch runs the watch scheduler until interrupted
func executeWatch(configFile string, siteKeys []string, allSites bool, intervalStr string, debounce time.Duration, stateDir, logLevelStr, metricsAddr string) {
	appCfg, log := loadAndValidateConfig(configFile, logLevelStr)

	opts, err := watchOptions(appCfg, intervalStr, debounce, stateDir)
	if err != nil {
		log.Fatalf("Invalid interval: %v", err)
	}
	if opts.Interval > 0 {
		log.Infof("Watch interval: %s", utils.FormatInterval(opts.Interval))
	}
	log.Infof("Watch debounce: %v", opts.Debounce)

	siteKeys = resolveSiteKeys(appCfg, siteKeys, allSites, log)
	validateSiteConfigs(appCfg, siteKeys, log)

	rec := metrics.NewRecorder(nil)
	startMetricsServer(metricsAddr, rec, log)

	orch := orchestrate.NewOrchestrator(appCfg, siteKeys, applog.Component(log, "generate"), rec)
	scheduler := watch.NewScheduler(orch, watch.TargetsFor(appCfg, siteKeys), opts, applog.Component(log, "watch"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Run(ctx); err != nil {
		log.Fatalf("Watch scheduler error: %v", err)
	}

	log.Info("Watch mode stopped")
}

// watchOptions merges CLI overrides with the config file's watch settings.
func watchOptions(appCfg *config.AppConfig, intervalStr string, debounce time.Duration, stateDir string) (watch.Options, error) {
	opts := watch.Options{
		Debounce: config.GetEffectiveWatchDebounce(*appCfg),
		StateDir: stateDir,
	}
	if debounce > 0 {
		opts.Debounce = debounce
	}

	if intervalStr == "" {
		intervalStr = appCfg.WatchInterval
	}
	if intervalStr != "" {
		interval, err := utils.ParseInterval(intervalStr)
		if err != nil {
			return opts, err
		}
		opts.Interval = interval
	}
	return opts, nil
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	siteKey := fs.String("site", "", "Site key to validate (optional, validates all if empty)")
	dryRun := fs.Bool("dry-run", false, "Also run a generation pass in memory without writing files")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sitemapgen validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, *siteKey, *dryRun, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath, siteKey string, dryRun bool, stdout, stderr io.Writer) int {
	appCfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	var keys []string
	if siteKey != "" {
		if _, ok := appCfg.Sites[siteKey]; !ok {
			fmt.Fprintf(stderr, "Error: site '%s' not found in config\n", siteKey)
			return 1
		}
		keys = []string{siteKey}
	} else {
		keys = orchestrate.GetAllSiteKeys(appCfg)
	}

	hasError := false
	for _, key := range keys {
		siteCfg := appCfg.Sites[key]
		siteWarnings, err := siteCfg.Validate()
		if err != nil {
			fmt.Fprintf(stderr, "ERROR: [%s] %v\n", key, err)
			hasError = true
			continue
		}
		for _, w := range siteWarnings {
			fmt.Fprintf(stdout, "WARN: [%s] %s\n", key, w)
		}

		if dryRun {
			summary, err := dryRunSite(appCfg, key, siteCfg)
			if err != nil {
				fmt.Fprintf(stderr, "ERROR: [%s] %v\n", key, err)
				hasError = true
				continue
			}
			fmt.Fprintf(stdout, "OK: [%s] %s\n", key, summary)
			continue
		}

		if _, err := generate.New(applog.Discard(), key, siteCfg, nil); err != nil {
			fmt.Fprintf(stderr, "ERROR: [%s] %v\n", key, err)
			hasError = true
			continue
		}
		fmt.Fprintf(stdout, "OK: [%s]\n", key)
	}

	if hasError {
		return 1
	}
	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// dryRunSite runs one pass for a site against an in-memory host and checks
// every compressed artifact decompresses to its XML counterpart.
func dryRunSite(appCfg *config.AppConfig, key string, siteCfg config.SiteConfig) (string, error) {
	gen, err := generate.New(applog.Discard(), key, siteCfg, nil)
	if err != nil {
		return "", err
	}

	var assets []string
	if siteCfg.Options.DiscoveryMode() == config.DiscoveryAssets {
		assets, err = output.ManifestAssets(siteCfg.Options.AssetsManifest)
		if err != nil {
			return "", err
		}
	}

	host := newMemoryHost(config.GetEffectiveOutputDir(siteCfg, *appCfg), config.GetEffectivePublicPath(siteCfg, *appCfg), assets)
	res := gen.Run(context.Background(), host)
	if res.Failed() {
		return "", errors.Join(res.Diagnostics...)
	}

	for name, data := range host.artifacts {
		if !strings.HasSuffix(name, compress.GzipExtension) {
			continue
		}
		text, err := compress.Decompress(data)
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		xmlName := strings.TrimSuffix(name, compress.GzipExtension)
		if text != string(host.artifacts[xmlName]) {
			return "", fmt.Errorf("%w: %s does not match %s", utils.ErrCompression, name, xmlName)
		}
	}

	return fmt.Sprintf("%d entries, %d documents (%s)", res.Entries, len(res.Documents), strings.Join(res.Emitted, ", ")), nil
}

// memoryHost collects artifacts without touching the output directory.
type memoryHost struct {
	outputDir  string
	publicPath string
	assets     []string

	mu        sync.Mutex
	artifacts map[string][]byte
}

func newMemoryHost(outputDir, publicPath string, assets []string) *memoryHost {
	return &memoryHost{
		outputDir:  outputDir,
		publicPath: publicPath,
		assets:     assets,
		artifacts:  make(map[string][]byte),
	}
}

func (h *memoryHost) PublicPath() string { return h.publicPath }
func (h *memoryHost) OutputDirectory() string { return h.outputDir }
func (h *memoryHost) KnownHTMLAssetNames() []string { return h.assets }
func (h *memoryHost) ReportDiagnostic(error) {}

func (h *memoryHost) EmitArtifact(name string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.artifacts[name] = data
	return nil
}

// runListSites handles the list-sites subcommand
func runListSites(args []string) {
	fs := flag.NewFlagSet("list-sites", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sitemapgen list-sites [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doListSites(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doListSites lists sites and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doListSites(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	keys := make([]string, 0, len(appCfg.Sites))
	for k := range appCfg.Sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(stdout, "Sites in %s:\n\n", configPath)
	for _, key := range keys {
		site := appCfg.Sites[key]
		fmt.Fprintf(stdout, "  %s\n", key)
		fmt.Fprintf(stdout, "    Base: %s\n", site.Base)
		fmt.Fprintf(stdout, "    Discovery: %s\n", site.Options.DiscoveryMode())
		if site.Options.DiscoveryMode() == config.DiscoveryStatic {
			fmt.Fprintf(stdout, "    Paths: %d\n", len(site.Paths))
		}
		fmt.Fprintf(stdout, "    Output: %s\n", config.GetEffectiveOutputDir(site, *appCfg))
		fmt.Fprintln(stdout)
	}
	return 0
}

// loadAndValidateConfig loads the config file, validates it, and sets up a
// logger. A non-empty levelOverride wins over log_level from the file.
func loadAndValidateConfig(configFile, levelOverride string) (*config.AppConfig, *logrus.Logger) {
	bootLog := applog.New(levelOverride, os.Stderr)
	bootLog.Infof("Loading configuration from %s", configFile)
	appCfg, err := config.Load(configFile)
	if err != nil {
		bootLog.Fatalf("Config error: %v", err)
	}

	appWarnings, err := appCfg.Validate()
	for _, w := range appWarnings {
		bootLog.Warn(w)
	}
	if err != nil {
		bootLog.Fatalf("Config error: %v", err)
	}

	level := levelOverride
	if level == "" {
		level = appCfg.LogLevel
	}
	log := applog.New(level, os.Stderr)
	log.Infof("Setting log level to: %s", log.GetLevel().String())
	return appCfg, log
}

// resolveSiteKeys expands the all-sites selection and checks every key
// exists.
func resolveSiteKeys(appCfg *config.AppConfig, siteKeys []string, allSites bool, log *logrus.Logger) []string {
	if allSites {
		siteKeys = orchestrate.GetAllSiteKeys(appCfg)
		log.Infof("All sites mode: found %d sites", len(siteKeys))
	}
	if err := orchestrate.ValidateSiteKeys(appCfg, siteKeys); err != nil {
		log.Fatalf("Invalid site keys: %v", err)
	}
	return siteKeys
}

// validateSiteConfigs validates the configuration for each site key and logs warnings.
func validateSiteConfigs(appCfg *config.AppConfig, siteKeys []string, log *logrus.Logger) {
	for _, key := range siteKeys {
		siteCfg := appCfg.Sites[key]
		siteWarnings, err := siteCfg.Validate()
		if err != nil {
			log.Fatalf("Site '%s' configuration error: %v", key, err)
		}
		for _, w := range siteWarnings {
			log.Warnf("[%s] %s", key, w)
		}
	}
}

// startMetricsServer serves the recorder's registry if addr is non-empty.
func startMetricsServer(addr string, rec *metrics.Recorder, log *logrus.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	go func() {
		log.Infof("Serving metrics at http://%s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server error: %v", err)
		}
	}()
}
