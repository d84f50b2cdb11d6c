package inspect

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/svdmap/svdmap-go/pkg/model"
	"github.com/svdmap/svdmap-go/pkg/plan"
)

// Inspector errors.
var (
	ErrPeripheralNotFound = errors.New("peripheral not found")
	ErrRegisterNotFound   = errors.New("register not found")
	ErrFieldNotFound      = errors.New("field not found")
	ErrNoPlan             = errors.New("register has no access plan")
	ErrNotWritable        = errors.New("not writable")
	ErrNotReadable        = errors.New("not readable")
)

// Inspector answers queries against a validated device model and its
// register plans. It never mutates either.
type Inspector struct {
	device *model.Device
	plans  map[*model.Register]*plan.RegisterPlan
}

// NewInspector creates an Inspector. plans should cover every register
// of the device, as plan.Device produces; registers without a plan can
// be browsed but not decoded or dry-run committed.
func NewInspector(device *model.Device, plans map[*model.Register]*plan.RegisterPlan) *Inspector {
	return &Inspector{device: device, plans: plans}
}

// Device returns the underlying device model.
func (i *Inspector) Device() *model.Device {
	return i.device
}

// Resolution is a resolved path: Peripheral is always set, Register,
// Plan and Field as deep as the path went.
type Resolution struct {
	Peripheral *model.Peripheral
	Register   *model.Register
	Plan       *plan.RegisterPlan
	Field      *plan.FieldPlan
}

// Resolve looks a parsed path up in the model, matching every segment
// case-insensitively the way descriptions treat names.
func (i *Inspector) Resolve(p *Path) (*Resolution, error) {
	per := i.peripheral(p.Peripheral)
	if per == nil {
		return nil, fmt.Errorf("%w: %s", ErrPeripheralNotFound, p.Peripheral)
	}
	res := &Resolution{Peripheral: per}
	if p.Register == "" {
		return res, nil
	}

	reg := registerByName(per, p.Register)
	if reg == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrRegisterNotFound, per.Name, p.Register)
	}
	res.Register = reg
	res.Plan = i.plans[reg]
	if p.Field == "" {
		return res, nil
	}

	if res.Plan == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoPlan, per.Name, reg.Name)
	}
	fp := res.Plan.FieldByName(p.Field)
	if fp == nil {
		return nil, fmt.Errorf("%w: %s.%s.%s", ErrFieldNotFound, per.Name, reg.Name, p.Field)
	}
	res.Field = fp
	return res, nil
}

func (i *Inspector) peripheral(name string) *model.Peripheral {
	for _, p := range i.device.Peripherals {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func registerByName(p *model.Peripheral, name string) *model.Register {
	for _, reg := range p.Registers {
		if strings.EqualFold(reg.Name, name) {
			return reg
		}
	}
	return nil
}

// DeviceTree represents the complete device structure for display.
type DeviceTree struct {
	Name        string
	Description string
	Width       uint
	Peripherals []PeripheralInfo
}

// PeripheralInfo represents peripheral information for display.
type PeripheralInfo struct {
	Name        string
	Description string
	Base        uint64
	DerivedFrom string
	Registers   []RegisterInfo
}

// RegisterInfo represents register information for display.
type RegisterInfo struct {
	Name        string
	Description string
	Offset      uint64
	Access      string
	Reset       string
	ClearMask   uint32
	Fields      []FieldInfo
}

// FieldInfo represents field information for display.
type FieldInfo struct {
	Name         string
	Description  string
	Bits         string
	Access       string
	Kind         string
	Enum         string
	ClearOnWrite bool
}

// Tree returns the complete device structure. Registers are listed in
// address order; derived peripherals appear as placement-only entries
// since their layout lives at the base peripheral.
func (i *Inspector) Tree() *DeviceTree {
	tree := &DeviceTree{
		Name:        i.device.Name,
		Description: i.device.Description,
		Width:       i.device.Width,
	}
	for _, per := range i.device.Peripherals {
		info := PeripheralInfo{
			Name:        per.Name,
			Description: per.Description,
			Base:        per.BaseAddress,
			DerivedFrom: per.DerivedFrom,
		}
		if !per.Derived() {
			for _, reg := range sortedRegisters(per) {
				info.Registers = append(info.Registers, i.registerInfo(reg))
			}
		}
		tree.Peripherals = append(tree.Peripherals, info)
	}
	return tree
}

func (i *Inspector) registerInfo(reg *model.Register) RegisterInfo {
	info := RegisterInfo{
		Name:        reg.Name,
		Description: reg.Description,
		Offset:      reg.Offset,
		Access:      reg.Access.String(),
		Reset:       "-",
		ClearMask:   reg.ClearMask,
	}
	if reg.HasReset {
		info.Reset = fmt.Sprintf("%#x", reg.ResetValue)
	}
	rp := i.plans[reg]
	for _, f := range reg.Fields {
		fi := FieldInfo{
			Name:         f.Name,
			Description:  f.Description,
			Bits:         bitRange(f),
			Access:       f.Access.String(),
			ClearOnWrite: f.ClearOnWrite,
		}
		if f.Enum != nil {
			fi.Enum = f.Enum.Name
		}
		if rp != nil {
			if fp := rp.FieldByName(f.Name); fp != nil {
				fi.Kind = fp.Kind.String()
			}
		}
		info.Fields = append(info.Fields, fi)
	}
	return info
}

func bitRange(f *model.Field) string {
	return fmt.Sprintf("[%d:%d]", f.Offset+f.Width-1, f.Offset)
}

func sortedRegisters(p *model.Peripheral) []*model.Register {
	regs := make([]*model.Register, len(p.Registers))
	copy(regs, p.Registers)
	sort.SliceStable(regs, func(i, j int) bool { return regs[i].Offset < regs[j].Offset })
	return regs
}

// Match is one hit of a Find query.
type Match struct {
	Path        string
	Kind        string
	Description string
}

// Find searches names and descriptions for the query, case
// insensitively. Derived peripherals match by their own name only;
// their registers are searched once, at the base peripheral.
func (i *Inspector) Find(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []Match
	for _, per := range i.device.Peripherals {
		if matches(q, per.Name, per.Description) {
			out = append(out, Match{Path: per.Name, Kind: "peripheral", Description: per.Description})
		}
		if per.Derived() {
			continue
		}
		for _, reg := range per.Registers {
			regPath := per.Name + "." + reg.Name
			if matches(q, reg.Name, reg.Description) {
				out = append(out, Match{Path: regPath, Kind: "register", Description: reg.Description})
			}
			for _, f := range reg.Fields {
				fieldPath := regPath + "." + f.Name
				if matches(q, f.Name, f.Description) {
					out = append(out, Match{Path: fieldPath, Kind: "field", Description: f.Description})
				}
				if f.Enum == nil {
					continue
				}
				for _, v := range f.Enum.Values {
					if matches(q, v.Name, v.Description) {
						out = append(out, Match{
							Path:        fieldPath,
							Kind:        "enum value",
							Description: fmt.Sprintf("%s = %#x", v.Name, v.Value),
						})
					}
				}
			}
		}
	}
	return out
}

func matches(q, name, description string) bool {
	return strings.Contains(strings.ToLower(name), q) ||
		strings.Contains(strings.ToLower(description), q)
}
