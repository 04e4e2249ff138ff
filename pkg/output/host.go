// Package output defines the boundary to the build host: where artifacts are
// written and where pass diagnostics are reported.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// Host is the build system a generation pass runs inside of
type Host interface {
	// PublicPath is the URL prefix the build serves assets under
	PublicPath() string
	// OutputDirectory is the root of the build's output tree
	OutputDirectory() string
	// KnownHTMLAssetNames lists the assets the build emitted, relative to the output root
	KnownHTMLAssetNames() []string
	// EmitArtifact writes a named artifact into the output
	EmitArtifact(name string, data []byte) error
	// ReportDiagnostic records a non-fatal problem with the pass
	ReportDiagnostic(err error)
}

// DirHost is a Host backed by a directory on the local filesystem
type DirHost struct {
	log        *logrus.Entry
	outputDir  string
	publicPath string
	assets     []string

	mu          sync.Mutex
	emitted     []string
	diagnostics []error
}

// NewDirHost creates a DirHost writing under outputDir
func NewDirHost(log *logrus.Entry, outputDir, publicPath string, assets []string) *DirHost {
	return &DirHost{
		log:        log.WithField("component", "output"),
		outputDir:  outputDir,
		publicPath: publicPath,
		assets:     assets,
	}
}

// PublicPath implements Host
func (h *DirHost) PublicPath() string { return h.publicPath }

// OutputDirectory implements Host
func (h *DirHost) OutputDirectory() string { return h.outputDir }

// KnownHTMLAssetNames implements Host
func (h *DirHost) KnownHTMLAssetNames() []string {
	names := make([]string, len(h.assets))
	copy(names, h.assets)
	return names
}

// EmitArtifact implements Host. name must stay inside the output directory.
func (h *DirHost) EmitArtifact(name string, data []byte) error {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: artifact name '%s' escapes the output directory", utils.ErrEmit, name)
	}
	target := filepath.Join(h.outputDir, clean)

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("%w: creating directory for '%s': %w", utils.ErrEmit, name, err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("%w: writing '%s': %w", utils.ErrEmit, name, err)
	}

	h.mu.Lock()
	h.emitted = append(h.emitted, name)
	h.mu.Unlock()
	h.log.Debugf("Emitted %s (%d bytes)", target, len(data))
	return nil
}

// ReportDiagnostic implements Host
func (h *DirHost) ReportDiagnostic(err error) {
	if err == nil {
		return
	}
	h.mu.Lock()
	h.diagnostics = append(h.diagnostics, err)
	h.mu.Unlock()
	h.log.WithField("category", utils.CategorizeError(err)).Errorf("Sitemap diagnostic: %v", err)
}

// Emitted returns the artifact names written so far, in order
func (h *DirHost) Emitted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.emitted))
	copy(out, h.emitted)
	return out
}

// Diagnostics returns the reported diagnostics, in order
func (h *DirHost) Diagnostics() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]error, len(h.diagnostics))
	copy(out, h.diagnostics)
	return out
}

// Reset clears emitted names and diagnostics between passes
func (h *DirHost) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitted = nil
	h.diagnostics = nil
}

// ManifestAssets reads a newline-delimited list of asset names. Blank lines
// and lines starting with '#' are skipped.
func ManifestAssets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening assets manifest: %w", utils.ErrFilesystem, err)
	}
	defer f.Close()
	return ReadAssetNames(f)
}

// ReadAssetNames parses a newline-delimited asset list
func ReadAssetNames(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, filepath.ToSlash(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading assets manifest: %w", utils.ErrFilesystem, err)
	}
	return names, nil
}
