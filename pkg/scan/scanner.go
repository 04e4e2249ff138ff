// Package scan lists candidate pages under a build output directory.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/sitemapgen/pkg/models"
	"github.com/Sriram-PR/sitemapgen/pkg/utils"
)

// Scanner recursively lists files, tolerating unreadable entries
type Scanner struct {
	log *logrus.Entry

	// OnEntryError, when set, is called for every entry that could not be read.
	// It may be called from several goroutines at once.
	OnEntryError func(entryPath string, err error)
}

// NewScanner creates a Scanner
func NewScanner(log *logrus.Entry) *Scanner {
	return &Scanner{log: log.WithField("component", "scanner")}
}

// ScanDir scans the directory at root on the local filesystem
func (s *Scanner) ScanDir(ctx context.Context, root, ext string) []models.FileRef {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("not a directory")
		}
		s.entryFailed(root, err)
		return []models.FileRef{}
	}
	return s.Scan(ctx, os.DirFS(root), ext)
}

// Scan lists every file in fsys whose extension equals ext (all files when
// ext is empty). Sibling directories are scanned concurrently; results keep
// the listing order. Unreadable entries contribute nothing and never abort
// the scan. Cancelling ctx stops descending into further directories.
func (s *Scanner) Scan(ctx context.Context, fsys fs.FS, ext string) []models.FileRef {
	ext = strings.TrimPrefix(ext, ".")
	files := s.scanDir(ctx, fsys, ".", ext)
	if files == nil {
		files = []models.FileRef{}
	}
	s.log.Debugf("Scan finished, %d matching files", len(files))
	return files
}

func (s *Scanner) scanDir(ctx context.Context, fsys fs.FS, dir, ext string) []models.FileRef {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		s.entryFailed(dir, err)
		return nil
	}

	slots := make([][]models.FileRef, len(entries))
	var g errgroup.Group

	for i, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			childDir := path.Join(dir, name)
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						s.log.WithFields(logrus.Fields{
							"dir":         childDir,
							"panic_info":  r,
							"stack_trace": string(debug.Stack()),
						}).Error("PANIC Recovered while scanning directory")
						slots[i] = nil
					}
				}()
				if ctx.Err() != nil {
					return nil
				}
				slots[i] = s.scanDir(ctx, fsys, childDir, ext)
				return nil
			})
			continue
		}
		if MatchesExtension(name, ext) {
			slots[i] = []models.FileRef{{Dir: dir, Name: name}}
		}
	}
	_ = g.Wait() // Child scans never return errors

	var files []models.FileRef
	for _, slot := range slots {
		files = append(files, slot...)
	}
	return files
}

func (s *Scanner) entryFailed(entryPath string, err error) {
	wrapped := fmt.Errorf("%w: reading '%s': %w", utils.ErrScan, entryPath, err)
	s.log.Warnf("Skipping unreadable entry: %v", wrapped)
	if s.OnEntryError != nil {
		s.OnEntryError(entryPath, wrapped)
	}
}

// MatchesExtension reports whether the last dot-delimited segment of name
// equals ext. An empty ext matches everything.
func MatchesExtension(name, ext string) bool {
	if ext == "" {
		return true
	}
	last := name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		last = name[idx+1:]
	}
	return last == ext
}
