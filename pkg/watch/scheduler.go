// Package watch re-runs generation passes when a site's output tree changes
// or on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/config"
	"github.com/Sriram-PR/sitemapgen/pkg/orchestrate"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// Pass triggers
const (
	TriggerInitial  = "initial"
	TriggerChange   = "change"
	TriggerInterval = "interval"
)

// Runner runs a single pass for a site
type Runner interface {
	RunSite(ctx context.Context, siteKey string) orchestrate.SiteResult
}

// Target is a site watched for changes
type Target struct {
	SiteKey  string
	Dir      string // Output tree to watch; empty means interval only
	Manifest string // Assets manifest to watch, if any
	Filename string // Sitemap base filename; matching artifacts are ignored
}

// Options tunes the scheduler
type Options struct {
	Interval     time.Duration // 0 disables interval runs
	Debounce     time.Duration
	TickInterval time.Duration // How often due sites are checked; 0 derives it from Interval
	StateDir     string        // Empty keeps state in memory
}

// Scheduler manages change-driven and periodic generation of sites
type Scheduler struct {
	runner       Runner
	targets      []Target
	opts         Options
	log          *logrus.Entry
	stateManager *StateManager
}

// TargetsFor builds watch targets for the given sites. Static sites are
// only re-run on the interval.
func TargetsFor(appCfg *config.AppConfig, siteKeys []string) []Target {
	targets := make([]Target, 0, len(siteKeys))
	for _, key := range siteKeys {
		siteCfg, ok := appCfg.Sites[key]
		if !ok {
			continue
		}
		t := Target{SiteKey: key, Filename: siteCfg.Options.Filename}
		if t.Filename == "" {
			t.Filename = config.DefaultFilename
		}
		t.Filename = strings.TrimSuffix(t.Filename, ".xml")

		switch siteCfg.Options.DiscoveryMode() {
		case config.DiscoveryDirectory:
			t.Dir = config.GetEffectiveOutputDir(siteCfg, *appCfg)
		case config.DiscoveryAssets:
			t.Manifest = siteCfg.Options.AssetsManifest
		}
		targets = append(targets, t)
	}
	return targets
}

// NewScheduler creates a new watch scheduler
func NewScheduler(runner Runner, targets []Target, opts Options, log *logrus.Entry) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Scheduler{
		runner:       runner,
		targets:      targets,
		opts:         opts,
		log:          log.WithField("component", "watch"),
		stateManager: NewStateManager(opts.StateDir),
	}
}

// Run performs an initial pass for every target, then blocks re-running
// sites on changes and on the interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, t := range s.targets {
		if t.Dir != "" {
			if err := os.MkdirAll(t.Dir, 0755); err != nil {
				return fmt.Errorf("%w: creating output directory '%s': %w", utils.ErrFilesystem, t.Dir, err)
			}
			s.addRecursive(watcher, t.Dir)
		}
		if t.Manifest != "" {
			// Watch the directory; manifests are often replaced rather than written
			if err := watcher.Add(filepath.Dir(t.Manifest)); err != nil {
				s.log.Warnf("Cannot watch assets manifest '%s': %v", t.Manifest, err)
			}
		}
	}

	s.log.Infof("Starting watch mode for %d sites (debounce %v)", len(s.targets), s.opts.Debounce)
	s.logSchedule()

	s.runSites(ctx, s.siteKeys(), TriggerInitial)

	var tick <-chan time.Time
	if s.opts.Interval > 0 {
		ticker := time.NewTicker(s.calculateTickInterval())
		defer ticker.Stop()
		tick = ticker.C
	}

	pending := make(map[string]bool)
	fire := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					s.addRecursive(watcher, event.Name)
				}
			}
			keys := s.sitesForEvent(event)
			if len(keys) == 0 {
				continue
			}
			s.log.Debugf("Change detected: %s (%s) -> %v", event.Name, event.Op, keys)
			for _, k := range keys {
				pending[k] = true
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.opts.Debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Errorf("Watcher error: %v", err)

		case <-fire:
			keys := make([]string, 0, len(pending))
			for k := range pending {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pending = make(map[string]bool)
			s.runSites(ctx, keys, TriggerChange)

		case <-tick:
			if due := s.getDueSites(); len(due) > 0 {
				s.runSites(ctx, due, TriggerInterval)
			}
		}
	}
}

// runSites runs the given sites one after another and records the results
func (s *Scheduler) runSites(ctx context.Context, keys []string, trigger string) {
	if len(keys) == 0 {
		return
	}
	s.log.Infof("Running %s pass for %d site(s): %v", trigger, len(keys), keys)

	for _, key := range keys {
		if ctx.Err() != nil {
			return
		}
		result := s.runner.RunSite(ctx, key)
		errorMsg := ""
		if result.Error != nil {
			errorMsg = result.Error.Error()
			s.log.WithField("site", key).Errorf("Pass failed: %v", result.Error)
		}
		s.stateManager.UpdateSiteState(key, result.Success, result.Entries, trigger, errorMsg)
		if result.Success && result.Digest != "" && !s.stateManager.RecordDigest(key, result.Digest) {
			s.log.WithField("site", key).Debug("Sitemap output unchanged since last pass")
		}
	}

	if err := s.stateManager.Save(); err != nil {
		s.log.Errorf("Failed to save watch state: %v", err)
	}
	s.logNextRun()
}

// sitesForEvent returns the sites whose inputs the event touches
func (s *Scheduler) sitesForEvent(event fsnotify.Event) []string {
	if event.Op == fsnotify.Chmod {
		return nil
	}
	var keys []string
	for _, t := range s.targets {
		if t.Manifest != "" && filepath.Clean(event.Name) == filepath.Clean(t.Manifest) {
			keys = append(keys, t.SiteKey)
			continue
		}
		if t.Dir == "" || !within(t.Dir, event.Name) {
			continue
		}
		if IsGeneratedArtifact(event.Name, t.Filename) {
			continue
		}
		keys = append(keys, t.SiteKey)
	}
	return keys
}

func within(dir, name string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(name))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

var partSuffix = regexp.MustCompile(`^-(\d+|index)$`)

// IsGeneratedArtifact reports whether name is one of the files a pass
// writes for the given base filename, or the watch state file
func IsGeneratedArtifact(name, filename string) bool {
	base := filepath.Base(name)
	if base == stateFileName {
		return true
	}
	base = strings.TrimSuffix(base, ".gz")
	if !strings.HasSuffix(base, ".xml") {
		return false
	}
	base = strings.TrimSuffix(base, ".xml")
	if base == filename {
		return true
	}
	rest, ok := strings.CutPrefix(base, filename)
	return ok && partSuffix.MatchString(rest)
}

// addRecursive watches dir and every directory below it
func (s *Scheduler) addRecursive(watcher *fsnotify.Watcher, dir string) {
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warnf("Cannot watch '%s': %v", p, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(p); err != nil {
			s.log.Warnf("Cannot watch '%s': %v", p, err)
		}
		return nil
	})
	if err != nil {
		s.log.Warnf("Walking '%s' for watch failed: %v", dir, err)
	}
}

func (s *Scheduler) siteKeys() []string {
	keys := make([]string, 0, len(s.targets))
	for _, t := range s.targets {
		keys = append(keys, t.SiteKey)
	}
	return keys
}

// getDueSites returns sites that are due for an interval pass
func (s *Scheduler) getDueSites() []string {
	var due []string
	for _, t := range s.targets {
		if s.stateManager.ShouldRun(t.SiteKey, s.opts.Interval) {
			due = append(due, t.SiteKey)
		}
	}
	return due
}

// calculateTickInterval returns how often to check for due sites
func (s *Scheduler) calculateTickInterval() time.Duration {
	if s.opts.TickInterval > 0 {
		return s.opts.TickInterval
	}
	// Check at least every minute, or every 1/10th of the interval
	checkInterval := s.opts.Interval / 10
	if checkInterval < time.Minute {
		checkInterval = time.Minute
	}
	if checkInterval > 10*time.Minute {
		checkInterval = 10 * time.Minute
	}
	return checkInterval
}

// logSchedule logs what each site is watched for
func (s *Scheduler) logSchedule() {
	s.log.Info("Watch schedule:")
	for _, t := range s.targets {
		var on []string
		if t.Dir != "" {
			on = append(on, "changes under "+t.Dir)
		}
		if t.Manifest != "" {
			on = append(on, "changes to "+t.Manifest)
		}
		if s.opts.Interval > 0 {
			on = append(on, "every "+utils.FormatInterval(s.opts.Interval))
		}
		if len(on) == 0 {
			on = append(on, "initial pass only")
		}
		s.log.Infof("  %s: %s", t.SiteKey, strings.Join(on, ", "))
	}
}

// logNextRun logs when the next interval run will occur
func (s *Scheduler) logNextRun() {
	if s.opts.Interval <= 0 {
		return
	}
	var (
		nextSite string
		nextTime time.Time
	)
	for _, t := range s.targets {
		next := s.stateManager.GetNextRunTime(t.SiteKey, s.opts.Interval)
		if nextSite == "" || next.Before(nextTime) {
			nextSite, nextTime = t.SiteKey, next
		}
	}
	if nextSite == "" {
		return
	}
	until := time.Until(nextTime)
	if until < 0 {
		until = 0
	}
	s.log.Infof("Next interval pass: %s in %v (at %s)", nextSite, until.Round(time.Second), nextTime.Format("15:04:05"))
}

// GetStatus returns the current status of all watched sites
func (s *Scheduler) GetStatus() map[string]SiteStatus {
	status := make(map[string]SiteStatus)

	for _, t := range s.targets {
		state, exists := s.stateManager.GetSiteState(t.SiteKey)
		st := SiteStatus{
			SiteKey:        t.SiteKey,
			LastRunTime:    state.LastRunTime,
			LastRunSuccess: state.LastRunSuccess,
			Entries:        state.Entries,
			ErrorMessage:   state.ErrorMessage,
			NeverRun:       !exists,
		}
		if s.opts.Interval > 0 {
			st.NextRunTime = s.stateManager.GetNextRunTime(t.SiteKey, s.opts.Interval)
		}
		status[t.SiteKey] = st
	}

	return status
}

// SiteStatus contains the status of a watched site
type SiteStatus struct {
	SiteKey        string
	LastRunTime    time.Time
	LastRunSuccess bool
	Entries        int
	ErrorMessage   string
	NextRunTime    time.Time // Zero without an interval
	NeverRun       bool
}
