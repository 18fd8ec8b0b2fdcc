// Package archive unpacks fetched release archives. Extraction runs
// in-process (archive/zip, archive/tar + compress/gzip) so the installer has
// no external tool prerequisites.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// maxFileBytes bounds a single extracted file (500 MB), guarding against
// decompression bombs.
const maxFileBytes = 500 << 20

// ExtractionError preserves the archive path and destination for diagnostics.
type ExtractionError struct {
	Archive string
	Dest    string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s into %s: %v", e.Archive, e.Dest, e.Err)
}
func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract unpacks archivePath into destDir, inferring the format from the
// file extension (.zip, .tar.gz, .tgz). On success the source archive file is
// deleted unconditionally; only the archive is reclaimed early, never the
// unpacked tree.
func Extract(archivePath, destDir string) error {
	var err error
	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		err = extractZip(archivePath, destDir)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		err = extractTarGz(archivePath, destDir)
	default:
		err = fmt.Errorf("unsupported archive format %q", filepath.Ext(archivePath))
	}
	if err != nil {
		return &ExtractionError{Archive: archivePath, Dest: destDir, Err: err}
	}

	// Space reclamation is best-effort; the extraction itself succeeded.
	if rmErr := os.Remove(archivePath); rmErr != nil {
		log.Debug("archive cleanup failed", "path", archivePath, "err", rmErr)
	}
	return nil
}

func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil { // #nosec G301 -- temp extraction tree
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { // #nosec G301 -- temp extraction tree
			return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open entry %s: %w", f.Name, err)
		}
		err = writeFile(target, rc, entryMode(f.Mode()))
		rc.Close()
		if err != nil {
			return fmt.Errorf("write entry %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath) // #nosec G304 -- archive path inside run temp root
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil { // #nosec G301 -- temp extraction tree
				return fmt.Errorf("mkdir %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { // #nosec G301 -- temp extraction tree
				return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
			}
			if err := writeFile(target, tr, entryMode(hdr.FileInfo().Mode())); err != nil {
				return fmt.Errorf("write entry %s: %w", hdr.Name, err)
			}
		default:
			// Symlinks, devices and the rest do not occur in release
			// archives; skip rather than fail.
		}
	}
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode) // #nosec G304 -- target validated by safeJoin
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(r, maxFileBytes)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// entryMode keeps the executable bit, which the payload's bridge scripts rely
// on; everything else is normalized. Timestamps are not restored.
func entryMode(m os.FileMode) os.FileMode {
	if m&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

// safeJoin joins name under dir, rejecting entries that would escape it.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.Clean(name))
	if target != dir && !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry %q escapes extraction root", name)
	}
	return target, nil
}
