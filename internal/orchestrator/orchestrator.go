// Package orchestrator sequences the install/update pipeline: detect install
// state, resolve the latest release, decide, fetch, extract, locate, install,
// register, report.
package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/contextform/fcmcp/internal/archive"
	"github.com/contextform/fcmcp/internal/bridge"
	"github.com/contextform/fcmcp/internal/config"
	"github.com/contextform/fcmcp/internal/fetch"
	"github.com/contextform/fcmcp/internal/host/github"
	"github.com/contextform/fcmcp/internal/hostenv"
	"github.com/contextform/fcmcp/internal/install"
	"github.com/contextform/fcmcp/internal/model"
	"github.com/contextform/fcmcp/internal/payload"
	"github.com/contextform/fcmcp/internal/release"
	"github.com/contextform/fcmcp/internal/ui"
	"github.com/contextform/fcmcp/internal/verify"
	"github.com/contextform/fcmcp/internal/versionstore"
	"github.com/contextform/fcmcp/pkg/update"
)

// State is the pipeline's current or terminal phase.
type State string

const (
	StateCheckingPrereqs  State = "checking-prereqs"
	StateResolvingVersion State = "resolving-version"
	StateUpToDate         State = "up-to-date"
	StateDeferred         State = "deferred"
	StateInstalling       State = "installing"
	StateRegistering      State = "registering"
	StateDone             State = "done"
	StatePartiallyDone    State = "partially-done"
	StateFailedFatal      State = "failed-fatal"
)

// Options are the per-run switches set by CLI flags.
type Options struct {
	// Force applies an available update (or reinstalls the current version)
	// without deferring.
	Force bool
	// CheckOnly reports what would happen and changes nothing.
	CheckOnly bool
	// AssumeYes treats a deferred update as confirmed.
	AssumeYes bool
	// RefreshBridge discards the cached bridge artifact and fetches it again.
	RefreshBridge bool
}

// Result is the terminal report of a run.
type Result struct {
	State    State
	Version  string
	Warnings []string
}

// PackageNotFoundError reports an extracted tree with no payload directory
// within the search depth.
type PackageNotFoundError struct {
	Name  string
	Root  string
	Depth int
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("directory %q not found within %d levels under %s", e.Name, e.Depth, e.Root)
}

// registrar is the slice of bridge.Registrar the pipeline needs.
type registrar interface {
	EnsureArtifact(ctx context.Context, url, localPath string) (bool, error)
	CLIAvailable(ctx context.Context) bool
	Register(ctx context.Context, bridgePath string) error
	ManualInstructions(bridgePath string) string
}

// Orchestrator drives one install-or-update run.
type Orchestrator struct {
	cfg    *config.Config
	opts   Options
	logger *log.Logger
	steps  *ui.Stepper
	out    io.Writer

	client    *github.Client
	resolver  *release.Resolver
	fetcher   *fetch.Fetcher
	store     *versionstore.Store
	reg       registrar
	probeHost func() hostenv.Probe
	confirm   func(prompt string) bool
}

// Option adjusts construction. Primarily test seams.
type Option func(*Orchestrator)

// WithRegistrar substitutes the bridge registrar.
func WithRegistrar(r registrar) Option {
	return func(o *Orchestrator) { o.reg = r }
}

// WithHostProbe substitutes the host application detector.
func WithHostProbe(probe func() hostenv.Probe) Option {
	return func(o *Orchestrator) { o.probeHost = probe }
}

// WithConfirm substitutes the interactive update confirmation.
func WithConfirm(confirm func(prompt string) bool) Option {
	return func(o *Orchestrator) { o.confirm = confirm }
}

// New wires the pipeline from configuration.
func New(cfg *config.Config, logger *log.Logger, out io.Writer, opts Options, extra ...Option) *Orchestrator {
	client := github.NewClient(cfg.Owner, cfg.Repo,
		github.WithBaseURL(cfg.APIBase),
		github.WithDownloadBase(cfg.DownloadBase),
		github.WithToken(github.TokenFromEnv()),
		github.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
	)
	o := &Orchestrator{
		cfg:       cfg,
		opts:      opts,
		logger:    logger,
		steps:     ui.NewStepper(out),
		out:       out,
		client:    client,
		resolver:  release.NewResolver(client),
		fetcher:   fetch.New(fetch.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()})),
		store:     versionstore.New(cfg.VersionFile(), logger),
		probeHost: hostenv.DetectFreeCAD,
		confirm:   promptConfirm,
	}
	for _, opt := range extra {
		opt(o)
	}
	if o.reg == nil {
		o.reg = bridge.New(cfg.Registrar.Bin, cfg.Registrar.AddArgs, cfg.Registrar.ServerName, o.fetcher)
	}
	return o
}

// Run executes the pipeline. A nil error means a terminal success state
// (Done, PartiallyDone, UpToDate, Deferred); a non-nil error means
// FailedFatal and the Result carries that state.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	warn := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		res.Warnings = append(res.Warnings, msg)
		o.logger.Warn(msg)
	}

	// Prerequisites.
	res.State = StateCheckingPrereqs
	o.steps.Start("checking host environment")
	probe := o.probeHost()
	switch {
	case probe.AppFound:
		o.steps.Success("checking host environment", probe.Evidence)
	case o.cfg.HostCheck == config.HostCheckRequired:
		err := fmt.Errorf("FreeCAD not found on this host (host_check is %q)", o.cfg.HostCheck)
		o.steps.Fail("checking host environment", err)
		res.State = StateFailedFatal
		return res, err
	default:
		o.steps.Warn("checking host environment", "FreeCAD not detected; continuing")
		warn("FreeCAD was not detected on this host")
	}

	// Version resolution. Failures do not stop the run: the documented
	// policy is to assume an update is needed and install from the default
	// branch.
	res.State = StateResolvingVersion
	o.steps.Start("resolving latest release")
	desc, err := o.resolver.Latest(ctx)
	if err != nil {
		o.steps.Warn("resolving latest release", err.Error())
		warn("could not resolve the latest release; installing from branch %q", o.cfg.Branch)
		desc = nil
	} else {
		o.steps.Success("resolving latest release", desc.Version)
		res.Version = desc.Version
	}

	installed, hasInstalled := o.store.Read()

	if desc != nil {
		decision, msg := update.Decide(installed, hasInstalled, desc.Version, o.opts.Force)
		o.steps.Note(msg)

		if o.opts.CheckOnly {
			fmt.Fprintln(o.out, update.DescribeDecision(decision))
			o.showNotes(desc)
			if decision == update.DecisionUpToDate {
				res.State = StateUpToDate
			} else {
				res.State = StateDeferred
			}
			return res, nil
		}

		switch {
		case decision == update.DecisionUpToDate:
			if !o.opts.RefreshBridge {
				res.State = StateUpToDate
				return res, nil
			}
		case decision == update.DecisionDeferred && !o.opts.AssumeYes:
			o.showNotes(desc)
			if !o.confirm(fmt.Sprintf("Apply update to %s now? [y/N] ", desc.Version)) {
				fmt.Fprintln(o.out, "Run again with --force or --yes to apply the update.")
				res.State = StateDeferred
				return res, nil
			}
		}

		if decision != update.DecisionUpToDate {
			if err := o.installRelease(ctx, desc, res, warn); err != nil {
				res.State = StateFailedFatal
				return res, err
			}
		}
	} else {
		if o.opts.CheckOnly {
			fmt.Fprintln(o.out, "Release index unreachable; an install would proceed from the default branch.")
			res.State = StateDeferred
			return res, nil
		}
		if err := o.installRelease(ctx, nil, res, warn); err != nil {
			res.State = StateFailedFatal
			return res, err
		}
	}

	// Registration. Failures degrade to PartiallyDone, never fatal.
	res.State = StateRegistering
	if o.register(ctx, warn) {
		res.State = StateDone
	} else {
		res.State = StatePartiallyDone
	}
	return res, nil
}

// installRelease runs fetch -> verify -> extract -> locate -> install for one
// release. desc nil means the release index was unreachable and the default
// branch archive is used; no version is recorded in that case.
func (o *Orchestrator) installRelease(ctx context.Context, desc *model.ReleaseDescriptor, res *Result, warn func(string, ...any)) error {
	res.State = StateInstalling

	tmpRoot, err := os.MkdirTemp("", "fcmcp-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpRoot); rmErr != nil {
			o.logger.Debug("work dir cleanup failed", "dir", tmpRoot, "err", rmErr)
		}
	}()

	archiveURL := o.client.BranchArchiveURL(o.cfg.Branch)
	archiveName := fmt.Sprintf("%s-%s.zip", o.cfg.Repo, o.cfg.Branch)
	if desc != nil {
		archiveURL = desc.ArchiveURL
		archiveName = fmt.Sprintf("%s-%s.zip", o.cfg.Repo, desc.Version)
	}

	o.steps.Start("downloading archive")
	archivePath, err := o.fetcher.Fetch(ctx, archiveURL, tmpRoot, archiveName)
	if err != nil {
		o.steps.Fail("downloading archive", err)
		return err
	}
	o.steps.Success("downloading archive", archiveName)

	if desc != nil {
		if err := o.verifyArchive(ctx, desc, archivePath, archiveName, tmpRoot); err != nil {
			o.steps.Fail("verifying archive", err)
			return err
		}
	}

	extractDir := filepath.Join(tmpRoot, "extracted")
	o.steps.Start("extracting archive")
	if err := archive.Extract(archivePath, extractDir); err != nil {
		o.steps.Fail("extracting archive", err)
		return err
	}
	o.steps.Success("extracting archive", "")

	payloadPath, found := payload.Locate(extractDir, o.cfg.PackageName, o.cfg.LocateDepth)
	if !found {
		err := &PackageNotFoundError{Name: o.cfg.PackageName, Root: extractDir, Depth: o.cfg.LocateDepth}
		o.steps.Fail("locating package", err)
		return err
	}

	target := o.cfg.TargetDir()
	o.steps.Start("installing package")
	if err := install.Install(payloadPath, target); err != nil {
		o.steps.Fail("installing package", err)
		return err
	}
	o.steps.Success("installing package", target)

	if desc != nil {
		if err := o.store.Write(desc.Version); err != nil {
			warn("installed %s but could not record the version: %v", desc.Version, err)
		}
		res.Version = desc.Version
		o.showNotes(desc)
	} else {
		warn("installed from branch %q; version not recorded, next run will re-check", o.cfg.Branch)
	}
	return nil
}

// verifyArchive checks the downloaded archive against the release's checksum
// asset (<archive>.sha256 or checksums.txt) and, when a minisign key is
// configured, the matching .minisig asset. Both checks are skipped when the
// release does not publish the corresponding asset.
func (o *Orchestrator) verifyArchive(ctx context.Context, desc *model.ReleaseDescriptor, archivePath, archiveName, tmpRoot string) error {
	sums := desc.FindAsset(archiveName + ".sha256")
	if sums == nil {
		sums = desc.FindAsset("checksums.txt")
	}
	if sums != nil {
		sumsPath := filepath.Join(tmpRoot, sums.Name)
		if err := o.fetcher.Download(ctx, sums.DownloadURL, sumsPath); err != nil {
			return err
		}
		data, err := os.ReadFile(sumsPath)
		if err != nil {
			return err
		}
		expected, err := verify.ExtractChecksum(data, archiveName)
		if err != nil {
			return err
		}
		if err := verify.VerifyFile(archivePath, expected); err != nil {
			return err
		}
		o.steps.Success("verifying checksum", "")
	}

	if o.cfg.Verify.MinisignKey == "" {
		return nil
	}
	sig := desc.FindAsset(archiveName + ".minisig")
	if sig == nil {
		o.logger.Debug("no signature asset published", "asset", archiveName+".minisig")
		return nil
	}
	sigPath := filepath.Join(tmpRoot, archiveName+".minisig")
	if err := o.fetcher.Download(ctx, sig.DownloadURL, sigPath); err != nil {
		return err
	}
	if err := verify.VerifyMinisign(archivePath, sigPath, o.cfg.Verify.MinisignKey); err != nil {
		return err
	}
	o.steps.Success("verifying signature", "")
	return nil
}

// register ensures the bridge artifact exists locally and registers it with
// the external CLI. Every failure is a warning; the install result stands.
// Returns false when registration was skipped or failed.
func (o *Orchestrator) register(ctx context.Context, warn func(string, ...any)) bool {
	bridgePath := o.cfg.BridgePath()

	if o.opts.RefreshBridge {
		if err := os.Remove(bridgePath); err != nil && !os.IsNotExist(err) {
			warn("could not discard cached bridge %s: %v", bridgePath, err)
		}
	}

	o.steps.Start("preparing bridge")
	downloaded, err := o.reg.EnsureArtifact(ctx, o.cfg.BridgeURL(), bridgePath)
	if err != nil {
		o.steps.Warn("preparing bridge", err.Error())
		warn("bridge download failed: %v", err)
		return false
	}
	if downloaded {
		o.steps.Success("preparing bridge", "downloaded")
	} else {
		o.steps.Success("preparing bridge", "already present")
	}

	if !o.reg.CLIAvailable(ctx) {
		o.steps.Warn("registering bridge", fmt.Sprintf("%s CLI not found", o.cfg.Registrar.Bin))
		warn("%s CLI not available; register manually:\n  %s",
			o.cfg.Registrar.Bin, ui.CmdStyle.Render(o.reg.ManualInstructions(bridgePath)))
		return false
	}

	o.steps.Start("registering bridge")
	if err := o.reg.Register(ctx, bridgePath); err != nil {
		o.steps.Warn("registering bridge", err.Error())
		warn("registration failed; register manually:\n  %s",
			ui.CmdStyle.Render(o.reg.ManualInstructions(bridgePath)))
		return false
	}
	o.steps.Success("registering bridge", o.cfg.Registrar.ServerName)
	return true
}

// promptConfirm asks on the terminal. A non-interactive stdin always answers
// no, so scripted runs defer instead of hanging on a read.
func promptConfirm(prompt string) bool {
	info, err := os.Stdin.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func (o *Orchestrator) showNotes(desc *model.ReleaseDescriptor) {
	if desc == nil || desc.Notes == "" {
		return
	}
	fmt.Fprint(o.out, ui.RenderNotes(desc.Notes, 80))
}
