// Package plan turns validated registers into access plans: the masks,
// shifts and commit rules the emitted accessors are generated from.
package plan

import (
	"fmt"
	"strings"

	"github.com/svdmap/svdmap-go/pkg/hwio"
	"github.com/svdmap/svdmap-go/pkg/model"
)

// InvariantError reports a planner invariant violation: a register
// reached planning in a state validation should have rejected. It
// always indicates a bug in this compiler, never bad input.
type InvariantError struct {
	Register string
	Field    string
	Detail   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("planner invariant violation: register %q, field %q: %s",
		e.Register, e.Field, e.Detail)
}

// Kind classifies the Go value a field decodes to.
type Kind uint8

const (
	// KindBool is a 1-bit field.
	KindBool Kind = iota
	// KindUint8 covers widths 2 through 8.
	KindUint8
	// KindUint16 covers widths 9 through 16.
	KindUint16
	// KindUint32 covers widths 17 through 32.
	KindUint32
)

// String returns the Go type name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	default:
		return "uint32"
	}
}

// FieldPlan is the access recipe for one field of a register.
type FieldPlan struct {
	Field *model.Field

	// Mask is the positioned bit mask, ((1<<width)-1) << offset.
	Mask uint32

	// Shift is the field's bit offset.
	Shift uint

	// FieldMask is the width mask before positioning, (1<<width)-1.
	FieldMask uint32

	Kind Kind
}

// Decode extracts the field's value from a raw register word.
func (f FieldPlan) Decode(raw uint32) uint32 {
	return (raw >> f.Shift) & f.FieldMask
}

// Encode merges v into the accumulated word at the field's position.
// Bits outside the field's mask pass through unchanged; v is truncated
// to the field width.
func (f FieldPlan) Encode(acc, v uint32) uint32 {
	return (acc &^ f.Mask) | ((v & f.FieldMask) << f.Shift)
}

// Readable reports whether the field's value can be read.
func (f FieldPlan) Readable() bool {
	return f.Field.Access.CanRead()
}

// Writable reports whether the field's value can be written.
func (f FieldPlan) Writable() bool {
	return f.Field.Access.CanWrite()
}

// RegisterPlan is the full access plan of one register: its field
// plans in declaration order and the register-level commit rules.
type RegisterPlan struct {
	Register *model.Register

	Fields []FieldPlan

	// ClearMask is forced to zero on every commit, in both modes.
	ClearMask uint32

	// Snapshot is set when the register is readable: a snapshot type
	// and a raw Load are generated.
	Snapshot bool

	// Txn is set when the register is writable: a transaction type and
	// a raw Store are generated.
	Txn bool

	// Merge is set when merge-mode transactions are allowed. Merging
	// needs the pre-commit read, so a write-only register offers only
	// the overwrite constructor.
	Merge bool
}

// New plans one register. The register must come from a validated
// device; a layout defect observed here is an InvariantError.
func New(reg *model.Register) (*RegisterPlan, error) {
	p := &RegisterPlan{
		Register:  reg,
		ClearMask: reg.ClearMask,
		Snapshot:  reg.Access.CanRead(),
		Txn:       reg.Access.CanWrite(),
	}
	p.Merge = p.Txn && reg.Access.CanRead()

	var used uint32
	for _, f := range reg.Fields {
		if f.Width < 1 || uint64(f.Offset)+uint64(f.Width) > uint64(reg.Width) {
			return nil, &InvariantError{
				Register: reg.Name,
				Field:    f.Name,
				Detail:   fmt.Sprintf("bits [%d,%d) not contained in %d-bit register", f.Offset, f.Offset+f.Width, reg.Width),
			}
		}
		fp := FieldPlan{
			Field:     f,
			Shift:     f.Offset,
			FieldMask: uint32(uint64(1)<<f.Width - 1),
			Kind:      kindOf(f.Width),
		}
		fp.Mask = fp.FieldMask << fp.Shift
		if used&fp.Mask != 0 {
			return nil, &InvariantError{
				Register: reg.Name,
				Field:    f.Name,
				Detail:   "field mask overlaps a previously planned field",
			}
		}
		used |= fp.Mask
		p.Fields = append(p.Fields, fp)
	}
	return p, nil
}

// Device plans every register of the device, keyed by register.
// Derived peripherals share their base's registers and therefore their
// plans.
func Device(d *model.Device) (map[*model.Register]*RegisterPlan, error) {
	plans := make(map[*model.Register]*RegisterPlan)
	for _, p := range d.Peripherals {
		for _, reg := range p.Registers {
			if _, ok := plans[reg]; ok {
				continue
			}
			rp, err := New(reg)
			if err != nil {
				return nil, err
			}
			plans[reg] = rp
		}
	}
	return plans, nil
}

// CommitValue computes the word a transaction commit writes, given the
// accumulated value and mask and the current hardware word (ignored in
// overwrite mode). The plan's always-cleared mask applies in both modes.
func (p *RegisterPlan) CommitValue(value, mask, current uint32, overwrite bool) uint32 {
	return hwio.MergeValue(value, mask, current, p.ClearMask, overwrite)
}

// FieldByName returns the plan of the named field, matching the way
// descriptions treat names (case-insensitively), or nil.
func (p *RegisterPlan) FieldByName(name string) *FieldPlan {
	for i := range p.Fields {
		if strings.EqualFold(p.Fields[i].Field.Name, name) {
			return &p.Fields[i]
		}
	}
	return nil
}

func kindOf(width uint) Kind {
	switch {
	case width == 1:
		return KindBool
	case width <= 8:
		return KindUint8
	case width <= 16:
		return KindUint16
	default:
		return KindUint32
	}
}
