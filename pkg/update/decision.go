package update

import (
	"fmt"
	"strings"
)

type Decision string

const (
	DecisionInstall   Decision = "install"   // No local install; proceed without prompting
	DecisionUpToDate  Decision = "uptodate"  // Versions match; nothing to do
	DecisionDeferred  Decision = "deferred"  // Versions differ; surface and wait for the caller
	DecisionForced    Decision = "forced"    // Versions differ and the caller forced the update
	DecisionReinstall Decision = "reinstall" // Versions match but the caller forced a reinstall
)

// ShouldInstall reports whether the decision drives the install pipeline.
func (d Decision) ShouldInstall() bool {
	switch d {
	case DecisionInstall, DecisionForced, DecisionReinstall:
		return true
	}
	return false
}

// Decide determines what to do given the locally recorded version identifier
// and the latest published one.
//
// installed: the persisted identifier; hasInstalled false means no prior install.
// latest:    the release index's version tag.
// force:     true when the caller explicitly requested the update.
//
// Identifiers are opaque: the comparison is byte-wise string equality and
// nothing else. Returns the decision and a human message.
func Decide(installed string, hasInstalled bool, latest string, force bool) (Decision, string) {
	display := FormatVersionDisplay(latest)

	if !hasInstalled {
		return DecisionInstall, fmt.Sprintf("No installed version found; installing %s", display)
	}

	if installed == latest {
		if force {
			return DecisionReinstall, fmt.Sprintf("Reinstalling %s (forced)", display)
		}
		return DecisionUpToDate, fmt.Sprintf("Already up to date (%s)", display)
	}

	if force {
		return DecisionForced, fmt.Sprintf("Updating %s to %s (forced)",
			FormatVersionDisplay(installed), display)
	}
	return DecisionDeferred, fmt.Sprintf("New version available: %s (installed: %s)",
		display, FormatVersionDisplay(installed))
}

// DescribeDecision returns a short dry-run status for a decision.
func DescribeDecision(d Decision) string {
	switch d {
	case DecisionInstall:
		return "Not installed (install needed)"
	case DecisionUpToDate:
		return "Already at the published version (no update needed)"
	case DecisionDeferred:
		return "Update available (not applied without --force)"
	case DecisionForced:
		return "Update will be applied"
	case DecisionReinstall:
		return "Reinstall will be applied"
	default:
		return string(d)
	}
}

// FormatVersionDisplay trims an identifier for display. Identifiers are
// opaque, so this never rewrites them beyond whitespace cleanup; an empty
// identifier renders as "(none)".
func FormatVersionDisplay(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return "(none)"
	}
	return trimmed
}
