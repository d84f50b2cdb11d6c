// Package inspect provides read-only browsing of a compiled register
// description: path resolution, tree rendering, raw-word decoding and
// dry-run commit arithmetic for the svdmap-inspect REPL.
//
// Paths are dot separated and case insensitive, one to three segments
// deep:
//
//	SPI1          peripheral
//	SPI1.CR       register
//	SPI1.CR.SPE   field
package inspect

import (
	"errors"
	"fmt"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Path is a parsed inspection path. Peripheral is always set; Register
// and Field are set as deep as the input went.
type Path struct {
	Peripheral string
	Register   string
	Field      string

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a dot-separated path string.
//
// Supported forms:
//   - "SPI1" - peripheral (lists its registers)
//   - "SPI1.CR" - register
//   - "SPI1.CR.SPE" - field
//
// Segments are matched against description names case-insensitively at
// resolution time; ParsePath only checks the shape.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	parts := strings.Split(input, ".")
	if len(parts) > 3 {
		return nil, fmt.Errorf("%w: %q has more than three segments", ErrInvalidPath, input)
	}
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, input)
		}
	}

	p := &Path{Peripheral: parts[0], Raw: input}
	if len(parts) > 1 {
		p.Register = parts[1]
	}
	if len(parts) > 2 {
		p.Field = parts[2]
	}
	return p, nil
}

// Depth reports how many segments the path has: 1 for a peripheral,
// 2 for a register, 3 for a field.
func (p *Path) Depth() int {
	switch {
	case p.Field != "":
		return 3
	case p.Register != "":
		return 2
	default:
		return 1
	}
}

// String returns the path in its canonical dotted form.
func (p *Path) String() string {
	var sb strings.Builder
	sb.WriteString(p.Peripheral)
	if p.Register != "" {
		sb.WriteString(".")
		sb.WriteString(p.Register)
	}
	if p.Field != "" {
		sb.WriteString(".")
		sb.WriteString(p.Field)
	}
	return sb.String()
}
