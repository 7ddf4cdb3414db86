// Package publisher decides what gets written and hands changes to version control.
package publisher

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"feedmill/internal/logger"
	"feedmill/internal/models"
)

// Publisher errors.
var (
	// ErrWrite indicates the output directory cannot be written.
	ErrWrite = errors.New("output not writable")
	// ErrLocked indicates another run holds the output directory lock.
	ErrLocked = errors.New("output directory is locked")
)

// lockFilename guards the read-compare-write sequence against
// concurrent runs over the same output directory.
const lockFilename = ".feedmill.lock"

// Fingerprint returns the hex-encoded SHA-256 digest of content.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)

	return hex.EncodeToString(sum[:])
}

// Gate writes regenerated files only when their content differs from
// what is already on disk, so an unchanged rerun performs zero writes.
type Gate struct {
	logger *logger.Logger
}

// NewGate creates a publish gate.
func NewGate(log *logger.Logger) *Gate {
	return &Gate{logger: log}
}

// Write compares every file against its on-disk predecessor and swaps
// in the changed ones. All changed files are staged to temp files
// first; nothing is replaced until every stage succeeded, so a failed
// run never leaves a half-updated directory. The returned map holds
// one verdict per file.
func (g *Gate) Write(dir string, files map[string][]byte) (map[string]models.FileStatus, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWrite, dir, err)
	}

	unlock, err := g.lock(dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	sort.Strings(names)

	statuses := make(map[string]models.FileStatus, len(files))
	staged := make(map[string]string)

	// Stage phase: write every changed file to a temp sibling.
	for _, name := range names {
		content := files[name]
		target := filepath.Join(dir, name)

		existing, readErr := os.ReadFile(target)

		switch {
		case readErr == nil && bytes.Equal(existing, content):
			statuses[name] = models.StatusUnchanged
			g.logger.Debug("unchanged", "file", name, "fingerprint", Fingerprint(content))

			continue
		case readErr == nil:
			statuses[name] = models.StatusUpdated
		case os.IsNotExist(readErr):
			statuses[name] = models.StatusCreated
		default:
			discard(staged)

			return nil, fmt.Errorf("%w: %s: %v", ErrWrite, target, readErr)
		}

		tmp, err := stage(dir, name, content)
		if err != nil {
			discard(staged)

			return nil, err
		}

		staged[name] = tmp
	}

	// Swap phase: every stage succeeded, rename into place.
	for _, name := range names {
		tmp, ok := staged[name]
		if !ok {
			continue
		}

		if err := os.Rename(tmp, filepath.Join(dir, name)); err != nil {
			discard(staged)

			return nil, fmt.Errorf("%w: %s: %v", ErrWrite, name, err)
		}

		delete(staged, name)
	}

	return statuses, nil
}

// Plan returns the verdicts Write would produce without writing
// anything. Used for dry runs; no lock is taken since nothing mutates.
func (g *Gate) Plan(dir string, files map[string][]byte) (map[string]models.FileStatus, error) {
	statuses := make(map[string]models.FileStatus, len(files))

	for name, content := range files {
		target := filepath.Join(dir, name)

		existing, err := os.ReadFile(target)

		switch {
		case err == nil && bytes.Equal(existing, content):
			statuses[name] = models.StatusUnchanged
		case err == nil:
			statuses[name] = models.StatusUpdated
		case os.IsNotExist(err):
			statuses[name] = models.StatusCreated
		default:
			return nil, fmt.Errorf("%w: %s: %v", ErrWrite, target, err)
		}
	}

	return statuses, nil
}

// Changed returns the names whose verdict means new bytes hit the disk.
func Changed(statuses map[string]models.FileStatus) []string {
	var changed []string

	for name, status := range statuses {
		if status != models.StatusUnchanged {
			changed = append(changed, name)
		}
	}

	sort.Strings(changed)

	return changed
}

// lock takes the per-directory advisory lock. A leftover lock from a
// crashed run has to be removed by hand; stealing it silently could
// interleave two writers.
func (g *Gate) lock(dir string) (func(), error) {
	path := filepath.Join(dir, lockFilename)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s exists; remove it if no other run is active", ErrLocked, path)
		}

		return nil, fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}

	f.Close()

	return func() {
		if err := os.Remove(path); err != nil {
			g.logger.Warn("failed to remove lock file", "path", path, "error", err)
		}
	}, nil
}

func stage(dir, name string, content []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, name+".tmp-")
	if err != nil {
		return "", fmt.Errorf("%w: staging %s: %v", ErrWrite, name, err)
	}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return "", fmt.Errorf("%w: staging %s: %v", ErrWrite, name, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return "", fmt.Errorf("%w: staging %s: %v", ErrWrite, name, err)
	}

	return tmp.Name(), nil
}

func discard(staged map[string]string) {
	for _, tmp := range staged {
		os.Remove(tmp)
	}
}
