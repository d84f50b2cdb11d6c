package model

import (
	"fmt"
	"strings"

	"github.com/svdmap/svdmap-go/pkg/svd"
)

// Build constructs the device model from a parsed element tree. It
// rejects structurally invalid input with MalformedElementError;
// cross-element invariants are checked separately by Validate.
func Build(root *svd.Element) (*Device, error) {
	if root.Name != "device" {
		return nil, malformed("document root", "element is %q, want %q", root.Name, "device")
	}

	name, err := requiredText(root, "device", "name")
	if err != nil {
		return nil, err
	}

	d := &Device{
		Name:        name,
		Description: optionalText(root, "description"),
		Width:       RegisterWidth,
	}

	if w, ok, err := optionalUint(root, "device", "width"); err != nil {
		return nil, err
	} else if ok && w != RegisterWidth {
		return nil, malformed("device", "unsupported register width %d (only 32-bit registers are supported)", w)
	}

	if periphs := root.Child("peripherals"); periphs != nil {
		for i, pel := range periphs.ChildrenNamed("peripheral") {
			p, err := buildPeripheral(pel, i)
			if err != nil {
				return nil, err
			}
			d.Peripherals = append(d.Peripherals, p)
		}
	}

	if err := resolveDerived(d); err != nil {
		return nil, err
	}
	return d, nil
}

func buildPeripheral(el *svd.Element, idx int) (*Peripheral, error) {
	name, path, err := identify(el, "", "peripheral", idx)
	if err != nil {
		return nil, err
	}

	base, err := requiredUint(el, path, "baseAddress")
	if err != nil {
		return nil, err
	}

	p := &Peripheral{
		Name:        name,
		Description: optionalText(el, "description"),
		GroupName:   optionalText(el, "groupName"),
		BaseAddress: base,
	}
	if from, ok := el.Attr("derivedFrom"); ok {
		from = strings.TrimSpace(from)
		if from == "" {
			return nil, malformed(path, "empty derivedFrom attribute")
		}
		p.DerivedFrom = from
	}

	regs := el.Child("registers")
	if p.Derived() {
		if regs != nil && len(regs.ChildrenNamed("register")) > 0 {
			return nil, malformed(path, "derived peripheral declares its own registers")
		}
		return p, nil
	}
	if regs == nil {
		return p, nil
	}
	for i, rel := range regs.ChildrenNamed("register") {
		r, err := buildRegister(rel, path, i)
		if err != nil {
			return nil, err
		}
		p.Registers = append(p.Registers, r)
	}
	return p, nil
}

func buildRegister(el *svd.Element, parent string, idx int) (*Register, error) {
	name, path, err := identify(el, parent, "register", idx)
	if err != nil {
		return nil, err
	}

	offset, err := requiredUint(el, path, "addressOffset")
	if err != nil {
		return nil, err
	}

	r := &Register{
		Name:        name,
		Description: optionalText(el, "description"),
		Offset:      offset,
		Width:       RegisterWidth,
		Access:      AccessReadWrite,
	}

	if w, ok, err := optionalUint(el, path, "size"); err != nil {
		return nil, err
	} else if ok && w != RegisterWidth {
		return nil, malformed(path, "unsupported register width %d (only 32-bit registers are supported)", w)
	}

	if s, ok := el.ChildText("access"); ok {
		a, err := parseAccess(s, path)
		if err != nil {
			return nil, err
		}
		r.Access = a
	}

	if v, ok, err := optionalUint(el, path, "resetValue"); err != nil {
		return nil, err
	} else if ok {
		if v > 0xffffffff {
			return nil, malformed(path, "resetValue %#x not representable in %d bits", v, RegisterWidth)
		}
		r.ResetValue = uint32(v)
		r.HasReset = true
	}

	if fields := el.Child("fields"); fields != nil {
		for i, fel := range fields.ChildrenNamed("field") {
			f, err := buildField(fel, path, i)
			if err != nil {
				return nil, err
			}
			if f.ClearOnWrite {
				r.ClearMask |= fieldMask(f)
			}
			r.Fields = append(r.Fields, f)
		}
	}
	return r, nil
}

func buildField(el *svd.Element, parent string, idx int) (*Field, error) {
	name, path, err := identify(el, parent, "field", idx)
	if err != nil {
		return nil, err
	}

	offset, err := requiredUint(el, path, "bitOffset")
	if err != nil {
		return nil, err
	}
	width, err := requiredUint(el, path, "bitWidth")
	if err != nil {
		return nil, err
	}
	if width == 0 {
		return nil, malformed(path, "bitWidth must be at least 1")
	}

	f := &Field{
		Name:        name,
		Description: optionalText(el, "description"),
		Offset:      uint(offset),
		Width:       uint(width),
		Access:      AccessReadWrite,
	}

	if s, ok := el.ChildText("access"); ok {
		a, err := parseAccess(s, path)
		if err != nil {
			return nil, err
		}
		f.Access = a
	}

	if s, ok := el.ChildText("modifiedWriteValues"); ok {
		if s != "clear" {
			return nil, malformed(path, "unsupported modifiedWriteValues %q (only %q is supported)", s, "clear")
		}
		f.ClearOnWrite = true
	}

	if ev := el.Child("enumeratedValues"); ev != nil {
		enum, err := buildEnum(ev, path, name)
		if err != nil {
			return nil, err
		}
		f.Enum = enum
	}
	return f, nil
}

func buildEnum(el *svd.Element, parent, fieldName string) (*Enum, error) {
	enum := &Enum{Name: fieldName}
	if s, ok := el.ChildText("name"); ok && s != "" {
		enum.Name = s
	}

	values := el.ChildrenNamed("enumeratedValue")
	if len(values) == 0 {
		return nil, malformed(parent, "enumeratedValues declares no values")
	}
	for i, vel := range values {
		name, path, err := identify(vel, parent, "enumeratedValue", i)
		if err != nil {
			return nil, err
		}
		v, err := requiredUint(vel, path, "value")
		if err != nil {
			return nil, err
		}
		if v > 0xffffffff {
			return nil, malformed(path, "value %#x not representable in %d bits", v, RegisterWidth)
		}
		enum.Values = append(enum.Values, EnumValue{
			Name:        name,
			Description: optionalText(vel, "description"),
			Value:       uint32(v),
		})
	}
	return enum, nil
}

// resolveDerived links each derived peripheral to its base layout.
func resolveDerived(d *Device) error {
	byName := make(map[string]*Peripheral, len(d.Peripherals))
	for _, p := range d.Peripherals {
		byName[p.Name] = p
	}
	for _, p := range d.Peripherals {
		if !p.Derived() {
			continue
		}
		path := fmt.Sprintf("peripheral %q", p.Name)
		base, ok := byName[p.DerivedFrom]
		if !ok {
			return malformed(path, "derivedFrom target %q not found", p.DerivedFrom)
		}
		if base == p {
			return malformed(path, "peripheral derives from itself")
		}
		if base.Derived() {
			return malformed(path, "derivedFrom target %q is itself derived", p.DerivedFrom)
		}
		p.Registers = base.Registers
	}
	return nil
}

func parseAccess(s, path string) (Access, error) {
	switch s {
	case "read-write":
		return AccessReadWrite, nil
	case "read-only":
		return AccessReadOnly, nil
	case "write-only":
		return AccessWriteOnly, nil
	default:
		return 0, malformed(path, "unknown access mode %q", s)
	}
}

// identify reads an element's required name child and forms its error
// path, falling back to the 1-based position while the name is unknown.
func identify(el *svd.Element, parent, kind string, idx int) (name, path string, err error) {
	name = optionalText(el, "name")
	if name != "" {
		path = fmt.Sprintf("%s %q", kind, name)
	} else {
		path = fmt.Sprintf("%s #%d", kind, idx+1)
	}
	if parent != "" {
		path = parent + " > " + path
	}
	if name == "" {
		err = malformed(path, "missing required element %q", "name")
	}
	return name, path, err
}

func optionalText(e *svd.Element, name string) string {
	s, _ := e.ChildText(name)
	return s
}

func requiredText(e *svd.Element, path, name string) (string, error) {
	s, ok := e.ChildText(name)
	if !ok || s == "" {
		return "", malformed(path, "missing required element %q", name)
	}
	return s, nil
}

func requiredUint(e *svd.Element, path, name string) (uint64, error) {
	s, err := requiredText(e, path, name)
	if err != nil {
		return 0, err
	}
	v, err := svd.ParseUint(s)
	if err != nil {
		return 0, malformed(path, "element %q: invalid number %q", name, s)
	}
	return v, nil
}

func optionalUint(e *svd.Element, path, name string) (uint64, bool, error) {
	s, ok := e.ChildText(name)
	if !ok {
		return 0, false, nil
	}
	v, err := svd.ParseUint(s)
	if err != nil {
		return 0, false, malformed(path, "element %q: invalid number %q", name, s)
	}
	return v, true, nil
}

// fieldMask is the positioned bit mask of a field. Oversized shift
// counts are defined in Go and collapse to zero, so calling this on a
// field that has not passed validation yet cannot fault.
func fieldMask(f *Field) uint32 {
	return uint32((uint64(1)<<f.Width - 1) << f.Offset)
}
