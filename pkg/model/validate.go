package model

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks the cross-element invariants of a built device:
// unique names, disjoint layout ranges, representable values. The first
// violation is returned as a LayoutConflictError naming both sides; a
// device that validated once stays valid, nothing here mutates it.
func Validate(d *Device) error {
	scope := fmt.Sprintf("device %q", d.Name)

	seen := make(map[string]*Peripheral, len(d.Peripherals))
	for _, p := range d.Peripherals {
		key := strings.ToLower(p.Name)
		if prev, ok := seen[key]; ok {
			return conflict(scope, nameOf("peripheral", prev.Name), nameOf("peripheral", p.Name),
				"duplicate peripheral name (case-insensitive)")
		}
		seen[key] = p
	}

	for _, p := range d.Peripherals {
		// A derived peripheral shares a layout validated on its base.
		if p.Derived() {
			continue
		}
		if err := validatePeripheral(p); err != nil {
			return err
		}
	}
	return nil
}

func validatePeripheral(p *Peripheral) error {
	scope := fmt.Sprintf("peripheral %q", p.Name)

	seen := make(map[string]*Register, len(p.Registers))
	for _, r := range p.Registers {
		key := strings.ToLower(r.Name)
		if prev, ok := seen[key]; ok {
			return conflict(scope, nameOf("register", prev.Name), nameOf("register", r.Name),
				"duplicate register name (case-insensitive)")
		}
		seen[key] = r
	}

	// Registers occupy [Offset, Offset+Width/8) bytes of the peripheral;
	// the ranges must be pairwise disjoint.
	regs := make([]*Register, len(p.Registers))
	copy(regs, p.Registers)
	sort.SliceStable(regs, func(i, j int) bool { return regs[i].Offset < regs[j].Offset })
	for i := 1; i < len(regs); i++ {
		prev, cur := regs[i-1], regs[i]
		prevEnd := prev.Offset + uint64(prev.Width/8)
		if prevEnd > cur.Offset {
			return conflict(scope, nameOf("register", prev.Name), nameOf("register", cur.Name),
				"byte ranges [%#x,%#x) and [%#x,%#x) overlap",
				prev.Offset, prevEnd, cur.Offset, cur.Offset+uint64(cur.Width/8))
		}
	}

	for _, r := range p.Registers {
		if err := validateRegister(p, r); err != nil {
			return err
		}
	}
	return nil
}

func validateRegister(p *Peripheral, r *Register) error {
	scope := fmt.Sprintf("register %q of peripheral %q", r.Name, p.Name)

	seen := make(map[string]*Field, len(r.Fields))
	for _, f := range r.Fields {
		key := strings.ToLower(f.Name)
		if prev, ok := seen[key]; ok {
			return conflict(scope, nameOf("field", prev.Name), nameOf("field", f.Name),
				"duplicate field name (case-insensitive)")
		}
		seen[key] = f
	}

	for _, f := range r.Fields {
		if f.Width < 1 || f.Offset+f.Width > r.Width {
			return conflict(scope, nameOf("field", f.Name),
				fmt.Sprintf("%d-bit register", r.Width),
				"bits [%d,%d) not contained in the register",
				f.Offset, f.Offset+f.Width)
		}
	}

	// Fields must occupy pairwise disjoint bit ranges. Sorted by offset,
	// checking neighbours finds any overlap.
	fields := make([]*Field, len(r.Fields))
	copy(fields, r.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })
	for i := 1; i < len(fields); i++ {
		prev, cur := fields[i-1], fields[i]
		if prev.Offset+prev.Width > cur.Offset {
			return conflict(scope, nameOf("field", prev.Name), nameOf("field", cur.Name),
				"bit ranges [%d,%d) and [%d,%d) overlap",
				prev.Offset, prev.Offset+prev.Width, cur.Offset, cur.Offset+cur.Width)
		}
	}

	for _, f := range r.Fields {
		if f.Enum == nil {
			continue
		}
		if err := validateEnum(scope, f); err != nil {
			return err
		}
	}
	return nil
}

func validateEnum(scope string, f *Field) error {
	max := uint64(1)<<f.Width - 1

	seen := make(map[string]*EnumValue, len(f.Enum.Values))
	for i := range f.Enum.Values {
		v := &f.Enum.Values[i]
		if uint64(v.Value) > max {
			return conflict(scope,
				fmt.Sprintf("enumerated value %q (%#x)", v.Name, v.Value),
				nameOf("field", f.Name),
				"value not representable in %d bits", f.Width)
		}
		key := strings.ToLower(v.Name)
		if prev, ok := seen[key]; ok {
			return conflict(scope,
				fmt.Sprintf("enumerated value %q", prev.Name),
				fmt.Sprintf("enumerated value %q", v.Name),
				"duplicate value name in enum %q (case-insensitive)", f.Enum.Name)
		}
		seen[key] = v
	}
	return nil
}

func nameOf(kind, name string) string {
	return fmt.Sprintf("%s %q", kind, name)
}
