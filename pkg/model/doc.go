// Package model implements the validated device model of a hardware
// description.
//
// # Hierarchy
//
// A description compiles into a 4-level hierarchy:
//
//	Device > Peripheral > Register > Field
//
// A Device is one chip (or family member). Peripherals are its
// memory-mapped units, each at a base address. Registers are 32-bit
// words at byte offsets from that base. Fields are named bit ranges
// within a register, optionally with enumerated values.
//
//	Device (MYDEV)
//	├── SPI1 @ 0x40013000
//	│   ├── CR  +0x00  (SPE, CPOL, FREQ ...)
//	│   └── SR  +0x04
//	└── SPI2 @ 0x40003800 (derivedFrom SPI1)
//
// # Build and Validate
//
// Build walks the element tree from pkg/svd and rejects structurally
// invalid input (missing required children, unparsable scalars) with
// MalformedElementError. Validate then checks the cross-element
// invariants (unique names, disjoint layout ranges, representable
// values) and rejects violations with LayoutConflictError. Both are
// all-or-nothing: a model that fails either step is discarded, never
// repaired or truncated.
//
// A device that passed both steps is immutable. Nothing in this package
// mutates it afterwards and no locking is needed downstream.
package model
