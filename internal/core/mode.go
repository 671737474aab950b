// Package core is the orchestration layer.  It composes the listener,
// the per-connection sessions and the supporting services (lockout
// ledger, metrics endpoint) into a runnable Mode, and provides a
// builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	session / command  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a complete operational mode of goftpd (serve or check).
// Each mode owns its full lifecycle from start-up to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
