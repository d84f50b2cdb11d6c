// Package codegen emits Go accessor packages from a validated device
// and its register plans.
//
// # Output Tree
//
// For a device D the emitted tree looks like:
//
//	<out>/<d>/mmap/mmap.go          base address constants
//	<out>/<d>/<periph>/<periph>.go  one accessor package per peripheral
//	<out>/<d>/README.md             register map summary
//
// Generation is deterministic: the same device and config render to a
// byte-identical tree. Everything is rendered in memory first and only
// a fully rendered tree reaches the filesystem, so a failed run leaves
// no partial output behind.
//
// # Division of Labor
//
// The emitter performs no validation of its own. It trusts pkg/model
// Validate and the plan invariants; an inconsistency observed during
// emission is a compiler defect and panics with a *plan.InvariantError.
// Placement (which address a peripheral instance lives at) is isolated
// in the mmap package so accessor code never computes an address.
package codegen
