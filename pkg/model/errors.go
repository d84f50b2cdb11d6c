package model

import "fmt"

// MalformedElementError reports a structurally invalid description
// element: a missing required child, a scalar that does not parse, or
// a declaration this compiler does not support.
type MalformedElementError struct {
	// Path names the offending element chain, for example
	// `peripheral "SPI1" > register "CR" > field "SPE"`.
	Path string

	Detail string
}

func (e *MalformedElementError) Error() string {
	return fmt.Sprintf("malformed element: %s: %s", e.Path, e.Detail)
}

// LayoutConflictError reports two declarations that cannot coexist:
// overlapping layout ranges, duplicate names, or a value that does not
// fit the range declared for it.
type LayoutConflictError struct {
	// Scope names where the conflict lives, for example
	// `register "CR" of peripheral "SPI1"`.
	Scope string

	// A and B identify the two conflicting declarations.
	A, B string

	// Detail spells out the conflict, including the ranges involved.
	Detail string
}

func (e *LayoutConflictError) Error() string {
	return fmt.Sprintf("layout conflict in %s: %s and %s: %s", e.Scope, e.A, e.B, e.Detail)
}

func malformed(path, format string, args ...any) error {
	return &MalformedElementError{Path: path, Detail: fmt.Sprintf(format, args...)}
}

func conflict(scope, a, b, format string, args ...any) error {
	return &LayoutConflictError{Scope: scope, A: a, B: b, Detail: fmt.Sprintf(format, args...)}
}
