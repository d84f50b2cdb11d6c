package inspect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/svdmap/svdmap-go/pkg/model"
	"github.com/svdmap/svdmap-go/pkg/plan"
)

// FieldValue is one decoded field of a register word.
type FieldValue struct {
	Name  string
	Bits  string
	Value uint32
	Kind  plan.Kind

	// Enum is the matching enumerated value name, when the field has an
	// enum and the decoded value names one.
	Enum string
}

// Decode slices a raw register word into its fields. The path must
// name a register, or a single field to decode just that one. Decoding
// is pure bit arithmetic on the given word; access modes do not apply.
func (i *Inspector) Decode(p *Path, raw uint32) ([]FieldValue, error) {
	res, err := i.Resolve(p)
	if err != nil {
		return nil, err
	}
	if res.Register == nil {
		return nil, fmt.Errorf("%w: %q names a peripheral, not a register", ErrInvalidPath, p.String())
	}
	if res.Plan == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoPlan, res.Peripheral.Name, res.Register.Name)
	}

	var out []FieldValue
	for _, fp := range res.Plan.Fields {
		if res.Field != nil && fp.Field != res.Field.Field {
			continue
		}
		fv := FieldValue{
			Name:  fp.Field.Name,
			Bits:  bitRange(fp.Field),
			Value: fp.Decode(raw),
			Kind:  fp.Kind,
		}
		if fp.Field.Enum != nil {
			fv.Enum = enumValueName(fp.Field.Enum, fv.Value)
		}
		out = append(out, fv)
	}
	return out, nil
}

func enumValueName(e *model.Enum, v uint32) string {
	for _, ev := range e.Values {
		if ev.Value == v {
			return ev.Name
		}
	}
	return ""
}

// Assignment is one FIELD=VALUE argument of a dry-run commit.
type Assignment struct {
	Field *plan.FieldPlan
	Value uint32
}

// ParseAssignment parses a FIELD=VALUE argument against a register
// plan. Values may be decimal, 0x hex, true/false for single bits, or
// an enumerated value name; they must fit the field width and the
// field must be writable.
func ParseAssignment(rp *plan.RegisterPlan, arg string) (Assignment, error) {
	name, val, ok := strings.Cut(arg, "=")
	if !ok || name == "" || val == "" {
		return Assignment{}, fmt.Errorf("argument %q is not FIELD=VALUE", arg)
	}

	fp := rp.FieldByName(name)
	if fp == nil {
		return Assignment{}, fmt.Errorf("%w: %s.%s", ErrFieldNotFound, rp.Register.Name, name)
	}
	if !fp.Writable() {
		return Assignment{}, fmt.Errorf("%w: field %s.%s is %s", ErrNotWritable, rp.Register.Name, fp.Field.Name, fp.Field.Access)
	}

	v, err := parseFieldValue(fp, val)
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Field: fp, Value: v}, nil
}

func parseFieldValue(fp *plan.FieldPlan, s string) (uint32, error) {
	if fp.Kind == plan.KindBool {
		switch strings.ToLower(s) {
		case "true":
			return 1, nil
		case "false":
			return 0, nil
		}
	}
	if fp.Field.Enum != nil {
		for _, ev := range fp.Field.Enum.Values {
			if strings.EqualFold(ev.Name, s) {
				return ev.Value, nil
			}
		}
	}

	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("value %q of field %s: %w", s, fp.Field.Name, err)
	}
	if uint32(v)&^fp.FieldMask != 0 {
		return 0, fmt.Errorf("value %#x does not fit field %s %s", v, fp.Field.Name, bitRange(fp.Field))
	}
	return uint32(v), nil
}

// CommitReport is the outcome of a dry-run transaction commit: the
// staged state and the word a real commit would write, without any
// hardware involved.
type CommitReport struct {
	Value     uint32
	Mask      uint32
	ClearMask uint32
	Overwrite bool

	// Current is the hardware word assumed before commit. Overwrite
	// mode never reads it.
	Current uint32

	// Final is the word the commit writes.
	Final uint32

	// Reads and Writes count the hardware accesses the real commit
	// would perform.
	Reads  int
	Writes int
}

// DryRun stages the given FIELD=VALUE arguments into a transaction on
// the addressed register and computes the commit without touching
// hardware. The path must name a writable register; merge mode
// additionally needs it readable.
func (i *Inspector) DryRun(p *Path, overwrite bool, current uint32, args []string) (*CommitReport, error) {
	res, err := i.Resolve(p)
	if err != nil {
		return nil, err
	}
	if res.Register == nil || res.Field != nil {
		return nil, fmt.Errorf("%w: %q does not name a register", ErrInvalidPath, p.String())
	}
	rp := res.Plan
	if rp == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoPlan, res.Peripheral.Name, res.Register.Name)
	}
	if !rp.Txn {
		return nil, fmt.Errorf("%w: register %s.%s is %s", ErrNotWritable, res.Peripheral.Name, res.Register.Name, res.Register.Access)
	}
	if !overwrite && !rp.Merge {
		return nil, fmt.Errorf("%w: register %s.%s is %s, merging needs the pre-commit read", ErrNotReadable, res.Peripheral.Name, res.Register.Name, res.Register.Access)
	}

	var value, mask uint32
	for _, arg := range args {
		a, err := ParseAssignment(rp, arg)
		if err != nil {
			return nil, err
		}
		value = a.Field.Encode(value, a.Value)
		mask |= a.Field.Mask
	}

	rep := &CommitReport{
		Value:     value,
		Mask:      mask,
		ClearMask: rp.ClearMask,
		Overwrite: overwrite,
		Current:   current,
		Final:     rp.CommitValue(value, mask, current, overwrite),
		Writes:    1,
	}
	if !overwrite {
		rep.Reads = 1
	}
	return rep, nil
}
