// Package install places a located payload directory into the live install
// target. Replacement is staged: the payload is first copied into a sibling
// temporary directory on the same filesystem, then swapped in with renames,
// so a crash never leaves the target half-written.
package install

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// InstallError reports a failed directory replacement.
type InstallError struct {
	Target string
	Err    error
}

func (e *InstallError) Error() string { return fmt.Sprintf("install into %s: %v", e.Target, e.Err) }
func (e *InstallError) Unwrap() error { return e.Err }

// Install deep-copies payloadPath into targetPath, replacing any previous
// installation in full. After success the target contains exactly the
// payload's contents; nothing from a previous version survives.
func Install(payloadPath, targetPath string) error {
	parent := filepath.Dir(targetPath)
	if err := os.MkdirAll(parent, 0o755); err != nil { // #nosec G301 -- plugin parent dir
		return &InstallError{Target: targetPath, Err: fmt.Errorf("create parent dir: %w", err)}
	}

	stage, err := os.MkdirTemp(parent, "."+filepath.Base(targetPath)+".stage-")
	if err != nil {
		return &InstallError{Target: targetPath, Err: fmt.Errorf("create staging dir: %w", err)}
	}
	defer os.RemoveAll(stage)

	if err := copyTree(payloadPath, stage); err != nil {
		return &InstallError{Target: targetPath, Err: err}
	}

	// Move the previous installation aside before swapping in the stage.
	// If the final rename fails the old directory is restored, so the
	// only unrecoverable window is a crash between the two renames.
	var old string
	if _, err := os.Lstat(targetPath); err == nil {
		old = stage + ".old"
		if err := os.Rename(targetPath, old); err != nil {
			return &InstallError{Target: targetPath, Err: fmt.Errorf("move previous install aside: %w", err)}
		}
	}

	if err := os.Rename(stage, targetPath); err != nil {
		if old != "" {
			if restoreErr := os.Rename(old, targetPath); restoreErr == nil {
				old = ""
			}
		}
		return &InstallError{Target: targetPath, Err: fmt.Errorf("swap in new install: %w", err)}
	}

	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			return &InstallError{Target: targetPath, Err: fmt.Errorf("remove previous install: %w", err)}
		}
	}
	return nil
}

// copyTree recursively copies src into dst (dst must exist). Regular files
// and directories are copied; symlinks are recreated; modes are best-effort.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, dirMode(info.Mode()))
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("read symlink %s: %w", path, err)
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target, info.Mode())
		}
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src) // #nosec G304 -- path from the extracted payload walk
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm()) // #nosec G304 -- staging target
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

func dirMode(m fs.FileMode) fs.FileMode {
	perm := m.Perm()
	if perm == 0 {
		perm = 0o755
	}
	return perm
}
