// Package scan resolves the set of artifact files a signing run operates
// on: a recursive glob scan of the base directory merged with explicitly
// supplied candidate files, deduplicated in first-seen order.
package scan

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Selector describes one file selection. The glob scan is an explicit
// opt-in: with no include patterns it contributes nothing, whatever the
// exclude list says.
type Selector struct {
	// BaseDir is the directory walked by the glob scan. A missing base
	// directory simply yields no scan results.
	BaseDir string

	// Includes are glob patterns matched against slash-separated paths
	// relative to BaseDir. Only regular files are considered.
	Includes []string

	// Excludes are applied after Includes, against the same relative paths.
	Excludes []string

	// Explicit are externally supplied candidate files, merged after the
	// scan. Entries that do not exist on disk are skipped with a warning.
	Explicit []string

	Log *zap.SugaredLogger
}

// ValidatePatterns checks every include and exclude for glob syntax
// errors before any filesystem work happens.
func (s *Selector) ValidatePatterns() error {
	for _, pattern := range append(append([]string{}, s.Includes...), s.Excludes...) {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

// Select returns the ordered, deduplicated list of absolute paths to sign.
// A filesystem error while walking the base directory is fatal; an
// individually missing explicit file is not.
func (s *Selector) Select() ([]string, error) {
	if err := s.ValidatePatterns(); err != nil {
		return nil, err
	}

	var selected []string

	if len(s.Includes) == 0 {
		if len(s.Excludes) > 0 {
			s.Log.Warnw("exclude patterns have no effect because no include patterns are set",
				"excludes", s.Excludes)
		}
	} else {
		scanned, err := s.scanBaseDir()
		if err != nil {
			return nil, err
		}
		selected = append(selected, scanned...)
	}

	for _, candidate := range s.Explicit {
		path, ok := s.normalizeExplicit(candidate)
		if !ok {
			continue
		}
		selected = append(selected, path)
	}

	// First occurrence wins, so a file reachable via both the scan and
	// the explicit list is processed exactly once.
	return lo.Uniq(selected), nil
}

// scanBaseDir walks BaseDir and returns absolute paths of regular files
// matching the include patterns and not matching the exclude patterns.
func (s *Selector) scanBaseDir() ([]string, error) {
	info, err := os.Stat(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "stat base directory %s", s.BaseDir)
	}
	if !info.IsDir() {
		return nil, nil
	}

	var matches []string
	walkErr := filepath.WalkDir(s.BaseDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(s.BaseDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(s.Includes, rel) || matchesAny(s.Excludes, rel) {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		matches = append(matches, filepath.Clean(abs))
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrapf(walkErr, "scan files in %s", s.BaseDir)
	}

	return matches, nil
}

// normalizeExplicit resolves one externally supplied candidate to a
// normalized absolute path, skipping it with a warning if it is not a
// regular file on disk.
func (s *Selector) normalizeExplicit(candidate string) (string, bool) {
	abs, err := filepath.Abs(candidate)
	if err != nil {
		s.Log.Warnw("skipping artifact with unresolvable path", "path", candidate, "error", err)
		return "", false
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		s.Log.Warnw("skipping artifact because file does not exist", "path", abs)
		return "", false
	}

	return abs, true
}

// matchesAny reports whether the relative path matches any pattern.
// Patterns were validated up front, so match errors cannot occur here.
func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
