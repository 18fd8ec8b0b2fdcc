// Package cli wires the installer pipeline to the command line. The default
// action with no arguments is install-or-update.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/contextform/fcmcp/internal/config"
	"github.com/contextform/fcmcp/internal/orchestrator"
	"github.com/contextform/fcmcp/internal/ui"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

type rootFlags struct {
	force         bool
	check         bool
	assumeYes     bool
	refreshBridge bool
	verbose       bool
	cfgFile       string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "fcmcp",
		Short: "Install and update the FreeCAD MCP add-on",
		Long: ui.TitleStyle.Render("fcmcp") + ui.SubtitleStyle.Render(" - FreeCAD MCP add-on installer") + `

Installs the AICopilot add-on into FreeCAD's Mod directory, keeps it
current against published releases, and registers the companion bridge
with the claude CLI.

Run with no arguments to install or update. An available update is
reported but not applied unless --force or --yes is given.

` + ui.SubtitleStyle.Render("Examples:") + `
  fcmcp                  Install, or report an available update
  fcmcp --check          Report install state without changing anything
  fcmcp --force          Apply an available update (or reinstall)
  fcmcp --refresh-bridge Re-download the bridge script and re-register`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRoot(cmd, flags)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "apply an available update without deferring")
	cmd.Flags().BoolVar(&flags.check, "check", false, "report what would happen and change nothing")
	cmd.Flags().BoolVarP(&flags.assumeYes, "yes", "y", false, "treat a pending update as confirmed")
	cmd.Flags().BoolVar(&flags.refreshBridge, "refresh-bridge", false, "discard the cached bridge script and fetch it again")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	cmd.Flags().StringVar(&flags.cfgFile, "config", "", "config file (default is <user config dir>/fcmcp/config.json)")

	return cmd
}

func runRoot(cmd *cobra.Command, flags rootFlags) error {
	logger := ui.NewLogger(cmd.ErrOrStderr(), flags.verbose)

	var loadOpts []config.Option
	if flags.cfgFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(flags.cfgFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return err
	}

	orch := orchestrator.New(cfg, logger, cmd.OutOrStdout(), orchestrator.Options{
		Force:         flags.force,
		CheckOnly:     flags.check,
		AssumeYes:     flags.assumeYes,
		RefreshBridge: flags.refreshBridge,
	})

	res, err := orch.Run(cmd.Context())
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	out := cmd.OutOrStdout()
	switch res.State {
	case orchestrator.StateDone:
		fmt.Fprintln(out, ui.SuccessStyle.Render("All done."))
	case orchestrator.StatePartiallyDone:
		fmt.Fprintln(out, ui.WarningStyle.Render("Installed, with warnings:"))
		for _, w := range res.Warnings {
			fmt.Fprintln(out, "  - "+w)
		}
	}
	return nil
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Run executes the CLI and returns the process exit code: 0 for full or
// partial success, 1 for any fatal failure.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := fang.Execute(
		ctx,
		cmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
