// Package versionstore persists the single opaque version identifier of the
// currently installed package.
package versionstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Store reads and writes the installed-version file. Reads never fail: any
// problem degrades to "absent" with a warning, because a missing or unreadable
// marker only means the installer cannot prove a prior install.
type Store struct {
	path   string
	logger *log.Logger
}

// New creates a Store for the given file path. logger may be nil.
func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Read returns the persisted identifier and true, or ("", false) when no
// install has been recorded. Read failures other than "file does not exist"
// are reported on the warning channel and still degrade to absent.
func (s *Store) Read() (string, bool) {
	data, err := os.ReadFile(s.path) // #nosec G304 -- path fixed at construction
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("could not read installed version; treating as not installed",
				"path", s.path, "err", err)
		}
		return "", false
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", false
	}
	return v, true
}

// Write records the identifier, creating the parent directory if needed.
// Callers treat failure as non-fatal: an install is complete even when the
// version cannot be recorded.
func (s *Store) Write(v string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil { // #nosec G301 -- per-user state dir
		return fmt.Errorf("create state dir for %s: %w", s.path, err)
	}
	if err := os.WriteFile(s.path, []byte(v+"\n"), 0o644); err != nil { // #nosec G306 -- plain version marker
		return fmt.Errorf("write version file %s: %w", s.path, err)
	}
	return nil
}
