// Package bridge manages the companion bridge script and its registration
// with the external MCP CLI.
package bridge

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/contextform/fcmcp/internal/fetch"
)

// RegistrationError reports a failed registration command. Callers treat it
// as non-fatal to the overall install.
type RegistrationError struct {
	Cmd string
	Err error
}

func (e *RegistrationError) Error() string { return fmt.Sprintf("run %s: %v", e.Cmd, e.Err) }
func (e *RegistrationError) Unwrap() error { return e.Err }

// Registrar downloads the bridge artifact once and registers it with the
// external CLI tool.
type Registrar struct {
	bin        string
	addArgs    []string
	serverName string
	fetcher    *fetch.Fetcher

	// lookPath and runCmd are seams for tests.
	lookPath func(string) (string, error)
	runCmd   func(ctx context.Context, silent bool, bin string, args ...string) error
}

// New creates a Registrar. addArgs is the CLI's add-server subcommand
// (e.g. ["mcp", "add"]).
func New(bin string, addArgs []string, serverName string, fetcher *fetch.Fetcher) *Registrar {
	return &Registrar{
		bin:        bin,
		addArgs:    addArgs,
		serverName: serverName,
		fetcher:    fetcher,
		lookPath:   exec.LookPath,
		runCmd:     runCommand,
	}
}

// EnsureArtifact downloads the bridge file to localPath unless it already
// exists. The skip is unconditional: once present, the artifact is never
// re-fetched, regardless of package version changes. Returns whether a
// download happened.
func (r *Registrar) EnsureArtifact(ctx context.Context, url, localPath string) (bool, error) {
	if _, err := os.Stat(localPath); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil { // #nosec G301 -- per-user state dir
		return false, fmt.Errorf("create dir for %s: %w", localPath, err)
	}
	if err := r.fetcher.Download(ctx, url, localPath); err != nil {
		return false, err
	}
	return true, nil
}

// CLIAvailable probes for the external tool with a --version invocation.
func (r *Registrar) CLIAvailable(ctx context.Context) bool {
	if _, err := r.lookPath(r.bin); err != nil {
		return false
	}
	return r.runCmd(ctx, true, r.bin, "--version") == nil
}

// Register invokes the external CLI's add-server subcommand for the bridge
// at bridgePath. The subprocess inherits stdio so the tool's feedback stays
// visible.
func (r *Registrar) Register(ctx context.Context, bridgePath string) error {
	abs, err := filepath.Abs(bridgePath)
	if err != nil {
		return &RegistrationError{Cmd: r.bin, Err: fmt.Errorf("resolve bridge path: %w", err)}
	}

	args := append(append([]string{}, r.addArgs...), r.serverName, Interpreter(), abs)
	if err := r.runCmd(ctx, false, r.bin, args...); err != nil {
		return &RegistrationError{
			Cmd: r.bin + " " + strings.Join(args, " "),
			Err: err,
		}
	}
	return nil
}

// ManualInstructions returns the command line a user can run by hand when
// automatic registration was skipped or failed.
func (r *Registrar) ManualInstructions(bridgePath string) string {
	abs, err := filepath.Abs(bridgePath)
	if err != nil {
		abs = bridgePath
	}
	return fmt.Sprintf("%s %s %s %s %s",
		r.bin, strings.Join(r.addArgs, " "), r.serverName, Interpreter(), abs)
}

// Interpreter selects the script interpreter for the host OS: "python" in
// Windows-style environments, "python3" everywhere else.
func Interpreter() string {
	if runtime.GOOS == "windows" {
		return "python"
	}
	return "python3"
}

func runCommand(ctx context.Context, silent bool, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...) // #nosec G204 -- bin and args from validated config
	if !silent {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		cmd.Stdin = os.Stdin
	}
	return cmd.Run()
}
