// Package update provides small, dependency-free helpers for deciding whether
// an installed package should be updated to the version the release index
// advertises.
//
// This package intentionally does not perform downloads, extraction, or
// installation. It focuses on the decision given the locally recorded version
// identifier and the latest published one.
//
// Version model
//   - Version identifiers are opaque tags. The only comparison is byte-wise
//     string equality: "different string" is the sole signal of "update
//     available". No semantic ordering is attempted, so a remote rollback is
//     indistinguishable from an upgrade.
//   - An absent local version means "never installed" and always proceeds.
//   - Unequal versions proceed only when the caller forces the update;
//     otherwise the decision is to surface the available version and defer.
package update
