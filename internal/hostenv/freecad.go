// Package hostenv probes the host for the FreeCAD installation the package
// targets. The probe is advisory by default: a missing host application is
// reported, not enforced, unless configuration says otherwise.
package hostenv

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Probe describes what was found on the host.
type Probe struct {
	// AppFound is true when a FreeCAD installation or user directory was
	// detected.
	AppFound bool
	// Evidence is the path or binary name that triggered the detection,
	// empty when nothing was found.
	Evidence string
}

// DetectFreeCAD looks for FreeCAD on the host: first a binary on PATH, then
// well-known install and user-data locations for the current OS.
func DetectFreeCAD() Probe {
	for _, bin := range []string{"freecad", "FreeCAD", "freecadcmd"} {
		if p, err := exec.LookPath(bin); err == nil {
			return Probe{AppFound: true, Evidence: p}
		}
	}
	for _, dir := range candidateDirs() {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return Probe{AppFound: true, Evidence: dir}
		}
	}
	return Probe{}
}

// candidateDirs lists per-OS locations that indicate a FreeCAD install or an
// existing user configuration.
func candidateDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/FreeCAD.app",
			filepath.Join(home, "Library", "Application Support", "FreeCAD"),
		}
	case "windows":
		dirs := []string{
			filepath.Join(os.Getenv("PROGRAMFILES"), "FreeCAD"),
		}
		if appData := os.Getenv("APPDATA"); appData != "" {
			dirs = append(dirs, filepath.Join(appData, "FreeCAD"))
		}
		return dirs
	default:
		return []string{
			"/usr/lib/freecad",
			"/usr/share/freecad",
			"/snap/freecad",
			filepath.Join(home, ".FreeCAD"),
			filepath.Join(home, ".local", "share", "FreeCAD"),
		}
	}
}
