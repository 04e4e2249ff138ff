package watch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

const stateFileName = "watch_state.json"

// SiteState contains the last run information for a site
type SiteState struct {
	LastRunTime    time.Time `json:"last_run_time"`
	LastRunSuccess bool      `json:"last_run_success"`
	Entries        int       `json:"entries"`
	Trigger        string    `json:"trigger,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	Digest         string    `json:"digest,omitempty"` // Of the last successful output
}

// WatchState contains the persistent state for the watch scheduler
type WatchState struct {
	Sites     map[string]SiteState `json:"sites"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// StateManager tracks per-site run state. With an empty stateDir the state
// lives only in memory.
type StateManager struct {
	stateDir  string
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	m := &StateManager{
		stateDir: stateDir,
		state: WatchState{
			Sites: make(map[string]SiteState),
		},
	}
	if stateDir != "" {
		m.statePath = filepath.Join(stateDir, stateFileName)
	}
	return m
}

// Load loads the state from disk
func (m *StateManager) Load() error {
	if m.statePath == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No state file yet, start fresh
			m.state = WatchState{
				Sites: make(map[string]SiteState),
			}
			return nil
		}
		return utils.WrapErrorf(err, "failed to read state file")
	}

	if err := json.Unmarshal(data, &m.state); err != nil {
		return utils.WrapErrorf(err, "failed to parse state file")
	}

	if m.state.Sites == nil {
		m.state.Sites = make(map[string]SiteState)
	}

	return nil
}

// Save saves the state to disk
func (m *StateManager) Save() error {
	if m.statePath == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	// Ensure state directory exists
	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return utils.WrapErrorf(err, "failed to create state directory")
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return utils.WrapErrorf(err, "failed to marshal state")
	}

	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return utils.WrapErrorf(err, "failed to write state file")
	}

	return nil
}

// GetSiteState returns the state for a specific site
func (m *StateManager) GetSiteState(siteKey string) (SiteState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.state.Sites[siteKey]
	return state, ok
}

// UpdateSiteState records the outcome of a pass
func (m *StateManager) UpdateSiteState(siteKey string, success bool, entries int, trigger, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Sites[siteKey] = SiteState{
		LastRunTime:    time.Now(),
		LastRunSuccess: success,
		Entries:        entries,
		Trigger:        trigger,
		ErrorMessage:   errorMsg,
		Digest:         m.state.Sites[siteKey].Digest,
	}
}

// RecordDigest stores the output digest of a successful pass and reports
// whether it differs from the previous one.
func (m *StateManager) RecordDigest(siteKey, digest string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state.Sites[siteKey]
	changed := st.Digest != digest
	st.Digest = digest
	m.state.Sites[siteKey] = st
	return changed
}

// ShouldRun checks if a site should run based on the interval
func (m *StateManager) ShouldRun(siteKey string, interval time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.Sites[siteKey]
	if !ok {
		// Never run before, should run now
		return true
	}

	// Check if enough time has passed since last run
	return time.Since(state.LastRunTime) >= interval
}

// GetNextRunTime returns when the site should next run
func (m *StateManager) GetNextRunTime(siteKey string, interval time.Duration) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.Sites[siteKey]
	if !ok {
		return time.Now()
	}

	return state.LastRunTime.Add(interval)
}

// GetAllSiteStates returns all site states
func (m *StateManager) GetAllSiteStates() map[string]SiteState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy
	result := make(map[string]SiteState, len(m.state.Sites))
	for k, v := range m.state.Sites {
		result[k] = v
	}
	return result
}
