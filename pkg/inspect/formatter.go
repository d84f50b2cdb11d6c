package inspect

import (
	"fmt"
	"strings"

	"github.com/svdmap/svdmap-go/pkg/plan"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowDescriptions appends description text to tree lines.
	ShowDescriptions bool

	// IndentWidth is the number of spaces per indent level.
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowDescriptions: true,
		IndentWidth:      2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatWord formats a register word as hex.
func (f *Formatter) FormatWord(v uint32) string {
	return fmt.Sprintf("%#x", v)
}

// FormatFieldValue formats a decoded field value: booleans as
// true/false, enumerated values with their name, everything else hex.
func (f *Formatter) FormatFieldValue(fv FieldValue) string {
	if fv.Kind == plan.KindBool {
		if fv.Value != 0 {
			return "true"
		}
		return "false"
	}
	if fv.Enum != "" {
		return fmt.Sprintf("%#x (%s)", fv.Value, fv.Enum)
	}
	return fmt.Sprintf("%#x", fv.Value)
}

// FormatTree formats the device tree for display.
func (i *Inspector) FormatTree(tree *DeviceTree, f *Formatter) string {
	if f == nil {
		f = NewFormatter()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Device: %s (%d-bit)\n", tree.Name, tree.Width)
	if tree.Description != "" && f.ShowDescriptions {
		sb.WriteString(tree.Description + "\n")
	}
	sb.WriteString("---\n")

	for _, per := range tree.Peripherals {
		sb.WriteString(f.Indent(0, peripheralLine(&per, f)) + "\n")
		for _, reg := range per.Registers {
			sb.WriteString(f.Indent(1, registerLine(&reg)) + "\n")
			for _, fi := range reg.Fields {
				sb.WriteString(f.Indent(2, fieldLine(&fi)) + "\n")
			}
		}
	}
	return sb.String()
}

func peripheralLine(per *PeripheralInfo, f *Formatter) string {
	line := fmt.Sprintf("%s @ %#x", per.Name, per.Base)
	switch {
	case per.DerivedFrom != "":
		line += fmt.Sprintf(": derived from %s", per.DerivedFrom)
	case per.Description != "" && f.ShowDescriptions:
		line += ": " + per.Description
	}
	return line
}

func registerLine(reg *RegisterInfo) string {
	line := fmt.Sprintf("%s @ %#x [%s]", reg.Name, reg.Offset, reg.Access)
	if reg.Reset != "-" {
		line += " reset " + reg.Reset
	}
	return line
}

func fieldLine(fi *FieldInfo) string {
	parts := []string{fi.Name, fi.Bits}
	if fi.Kind != "" {
		parts = append(parts, fi.Kind)
	}
	if fi.Enum != "" {
		parts = append(parts, "enum "+fi.Enum)
	}
	parts = append(parts, fi.Access)
	line := strings.Join(parts, " ")
	if fi.ClearOnWrite {
		line += ", clears on write"
	}
	return line
}

// Describe renders one resolved path: a peripheral with its register
// list, a register with its fields, or a single field in full detail.
func (i *Inspector) Describe(res *Resolution, f *Formatter) string {
	if f == nil {
		f = NewFormatter()
	}
	switch {
	case res.Field != nil:
		return i.describeField(res, f)
	case res.Register != nil:
		return i.describeRegister(res, f)
	default:
		return i.describePeripheral(res, f)
	}
}

func (i *Inspector) describePeripheral(res *Resolution, f *Formatter) string {
	per := res.Peripheral
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s @ %#x\n", per.Name, per.BaseAddress)
	if per.Description != "" {
		sb.WriteString(per.Description + "\n")
	}
	if per.GroupName != "" {
		fmt.Fprintf(&sb, "group: %s\n", per.GroupName)
	}
	if per.Derived() {
		fmt.Fprintf(&sb, "derived from: %s\n", per.DerivedFrom)
	}
	if len(per.Registers) > 0 {
		sb.WriteString("registers:\n")
		for _, reg := range sortedRegisters(per) {
			info := i.registerInfo(reg)
			sb.WriteString(f.Indent(1, registerLine(&info)) + "\n")
		}
	}
	return sb.String()
}

func (i *Inspector) describeRegister(res *Resolution, f *Formatter) string {
	reg := res.Register
	info := i.registerInfo(reg)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s.%s @ %#x [%s]", res.Peripheral.Name, reg.Name, reg.Offset, reg.Access)
	if reg.HasReset {
		fmt.Fprintf(&sb, " reset %#x", reg.ResetValue)
	}
	sb.WriteString("\n")
	if reg.Description != "" {
		sb.WriteString(reg.Description + "\n")
	}
	if reg.ClearMask != 0 {
		fmt.Fprintf(&sb, "always cleared on commit: %#x\n", reg.ClearMask)
	}
	if len(info.Fields) > 0 {
		sb.WriteString("fields:\n")
		for _, fi := range info.Fields {
			sb.WriteString(f.Indent(1, fieldLine(&fi)) + "\n")
		}
	}
	return sb.String()
}

func (i *Inspector) describeField(res *Resolution, f *Formatter) string {
	fp := res.Field
	fld := fp.Field
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s.%s.%s %s %s %s\n",
		res.Peripheral.Name, res.Register.Name, fld.Name, bitRange(fld), fp.Kind, fld.Access)
	if fld.Description != "" {
		sb.WriteString(fld.Description + "\n")
	}
	fmt.Fprintf(&sb, "mask %#x, shift %d\n", fp.Mask, fp.Shift)
	if fld.ClearOnWrite {
		sb.WriteString("cleared on every commit of the register\n")
	}
	if fld.Enum != nil {
		sb.WriteString("values:\n")
		for _, v := range fld.Enum.Values {
			line := fmt.Sprintf("%s = %#x", v.Name, v.Value)
			if v.Description != "" {
				line += "  " + v.Description
			}
			sb.WriteString(f.Indent(1, line) + "\n")
		}
	}
	return sb.String()
}

// FormatDecoded renders the field values of one decoded word.
func (f *Formatter) FormatDecoded(values []FieldValue) string {
	var sb strings.Builder
	for _, fv := range values {
		fmt.Fprintf(&sb, "%s %s = %s\n", fv.Name, fv.Bits, f.FormatFieldValue(fv))
	}
	return sb.String()
}

// FormatReport renders a dry-run commit report.
func (f *Formatter) FormatReport(rep *CommitReport) string {
	var sb strings.Builder
	mode := "merge"
	if rep.Overwrite {
		mode = "overwrite"
	}
	fmt.Fprintf(&sb, "mode: %s\n", mode)
	fmt.Fprintf(&sb, "staged value %#x, mask %#x\n", rep.Value, rep.Mask)
	if rep.ClearMask != 0 {
		fmt.Fprintf(&sb, "always-cleared mask %#x applied\n", rep.ClearMask)
	}
	if rep.Overwrite {
		fmt.Fprintf(&sb, "written value %#x\n", rep.Final)
	} else {
		fmt.Fprintf(&sb, "current %#x, written value %#x\n", rep.Current, rep.Final)
	}
	fmt.Fprintf(&sb, "hardware cost: %d read(s), %d write(s)\n", rep.Reads, rep.Writes)
	return sb.String()
}

// FormatMatches renders Find hits, one per line.
func (f *Formatter) FormatMatches(ms []Match) string {
	if len(ms) == 0 {
		return "no matches\n"
	}
	var sb strings.Builder
	for _, m := range ms {
		line := fmt.Sprintf("%s (%s)", m.Path, m.Kind)
		if m.Description != "" {
			line += ": " + m.Description
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
