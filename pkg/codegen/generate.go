package codegen

import (
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/tools/imports"

	"github.com/svdmap/svdmap-go/pkg/model"
	"github.com/svdmap/svdmap-go/pkg/plan"
)

// Tree is an in-memory rendering of the output, keyed by path relative
// to the output directory. Generate fills a Tree completely before
// anything may touch the filesystem, which is what keeps a failed run
// from leaving partial output behind.
type Tree struct {
	files map[string][]byte
}

// Files returns the rendered paths, sorted.
func (t *Tree) Files() []string {
	paths := make([]string, 0, len(t.files))
	for p := range t.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// File returns the rendered content of a path, or nil.
func (t *Tree) File(path string) []byte {
	return t.files[path]
}

// WriteTo materializes the tree under dir, creating directories as
// needed.
func (t *Tree) WriteTo(dir string) error {
	for _, p := range t.Files() {
		dst := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, t.files[p], 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
	}
	return nil
}

// addFormatted formats Go source with goimports and stores it. A
// formatting failure is a template defect, never bad input; the tree is
// reduced to the offending rendering under `<path>.broken` so the
// generator output can be inspected.
func (t *Tree) addFormatted(path, src string) error {
	formatted, err := imports.Process(path, []byte(src), nil)
	if err != nil {
		t.files = map[string][]byte{path + ".broken": []byte(src)}
		return fmt.Errorf("formatting %s: %w", path, err)
	}
	t.files[path] = formatted
	return nil
}

// Fingerprint returns the hex BLAKE2b-256 digest of a description,
// stamped into every emitted file header.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Generate renders the full output tree for a validated device. plans
// must hold a plan for every register, as produced by plan.Device.
//
// Collisions introduced by the naming scheme itself, such as two
// peripherals sanitizing to one package name, surface here as
// *model.LayoutConflictError: they are properties of the emitted names,
// not of the device layout, so validation cannot see them.
func Generate(dev *model.Device, plans map[*model.Register]*plan.RegisterPlan, cfg Config) (*Tree, error) {
	devDir := PackageName(dev.Name)
	header := headerData{Source: cfg.Source, Sum: cfg.Sum}
	tree := &Tree{files: make(map[string][]byte)}

	sel, err := selectPeripherals(dev, cfg)
	if err != nil {
		return nil, err
	}

	mm := mmapFileData{headerData: header, Device: dev.Name}
	for _, p := range dev.Peripherals {
		if !sel.kept[p] {
			continue
		}
		mm.Consts = append(mm.Consts, mmapConstData{
			Name: baseConstName(dev, p),
			Addr: hexU64(p.BaseAddress),
		})
	}
	var b strings.Builder
	renderTemplate(&b, "mmapFile", mm)
	if err := tree.addFormatted(path.Join(devDir, "mmap", "mmap.go"), b.String()); err != nil {
		return tree, err
	}

	for _, p := range sel.bases {
		filePath, src, err := peripheralFile(dev, p, sel.derived[p], plans, cfg, devDir, header)
		if err != nil {
			return nil, err
		}
		if err := tree.addFormatted(filePath, src); err != nil {
			return tree, err
		}
	}

	tree.files[path.Join(devDir, "README.md")] = []byte(readme(dev, sel, cfg))
	return tree, nil
}

// Linkmap renders the plain text address map artifact, one line per
// emitted peripheral instance:
//
//	svdmap_mydev_spi1 = 0x40013000
func Linkmap(dev *model.Device, cfg Config) string {
	kept := keepSet(dev, cfg)
	var b strings.Builder
	for _, p := range dev.Peripherals {
		if !kept[p] {
			continue
		}
		fmt.Fprintf(&b, "svdmap_%s_%s = 0x%08x\n",
			strings.ToLower(LinkName(dev.Name)), strings.ToLower(LinkName(p.Name)), p.BaseAddress)
	}
	return b.String()
}

// selection is the filtered view of a device: the base peripherals to
// emit packages for and the derived instances grouped under them.
type selection struct {
	kept    map[*model.Peripheral]bool
	bases   []*model.Peripheral
	derived map[*model.Peripheral][]*model.Peripheral
}

// keepSet applies the config filters. A base peripheral is kept when
// the filters allow it; a derived one additionally needs its base.
func keepSet(dev *model.Device, cfg Config) map[*model.Peripheral]bool {
	kept := make(map[*model.Peripheral]bool)
	base := make(map[string]*model.Peripheral)
	for _, p := range dev.Peripherals {
		if !p.Derived() && cfg.allows(p.Name) {
			kept[p] = true
			base[strings.ToLower(p.Name)] = p
		}
	}
	for _, p := range dev.Peripherals {
		if p.Derived() && cfg.allows(p.Name) && base[strings.ToLower(p.DerivedFrom)] != nil {
			kept[p] = true
		}
	}
	return kept
}

func selectPeripherals(dev *model.Device, cfg Config) (*selection, error) {
	sel := &selection{
		kept:    keepSet(dev, cfg),
		derived: make(map[*model.Peripheral][]*model.Peripheral),
	}
	deviceScope := fmt.Sprintf("device %q", dev.Name)

	byName := make(map[string]*model.Peripheral)
	pkgs := make(map[string]*model.Peripheral)
	for _, p := range dev.Peripherals {
		if p.Derived() || !sel.kept[p] {
			continue
		}
		sel.bases = append(sel.bases, p)
		byName[strings.ToLower(p.Name)] = p

		pkg := PackageName(p.Name)
		if pkg == "mmap" {
			return nil, &model.LayoutConflictError{
				Scope:  deviceScope,
				A:      fmt.Sprintf("peripheral %q", p.Name),
				B:      "the mmap package",
				Detail: fmt.Sprintf("generated package name %q is reserved", pkg),
			}
		}
		if prev, ok := pkgs[pkg]; ok {
			return nil, &model.LayoutConflictError{
				Scope:  deviceScope,
				A:      fmt.Sprintf("peripheral %q", prev.Name),
				B:      fmt.Sprintf("peripheral %q", p.Name),
				Detail: fmt.Sprintf("both map to generated package name %q", pkg),
			}
		}
		pkgs[pkg] = p
	}

	consts := make(map[string]*model.Peripheral)
	for _, p := range dev.Peripherals {
		if !sel.kept[p] {
			continue
		}
		if p.Derived() {
			base := byName[strings.ToLower(p.DerivedFrom)]
			sel.derived[base] = append(sel.derived[base], p)
		}
		c := baseConstName(dev, p)
		if prev, ok := consts[c]; ok {
			return nil, &model.LayoutConflictError{
				Scope:  deviceScope,
				A:      fmt.Sprintf("peripheral %q", prev.Name),
				B:      fmt.Sprintf("peripheral %q", p.Name),
				Detail: fmt.Sprintf("both map to base address constant %q", c),
			}
		}
		consts[c] = p
	}
	return sel, nil
}

// identSet tracks claimed package-level identifiers of one accessor
// package, so a sanitization collision fails generation instead of
// emitting code that does not compile.
type identSet struct {
	scope string
	used  map[string]string
}

func newIdentSet(scope string) *identSet {
	return &identSet{scope: scope, used: make(map[string]string)}
}

func (s *identSet) claim(name, owner string) error {
	if prev, ok := s.used[name]; ok {
		return &model.LayoutConflictError{
			Scope:  s.scope,
			A:      prev,
			B:      owner,
			Detail: fmt.Sprintf("both need the Go identifier %q", name),
		}
	}
	s.used[name] = owner
	return nil
}

func peripheralFile(dev *model.Device, p *model.Peripheral, instances []*model.Peripheral, plans map[*model.Register]*plan.RegisterPlan, cfg Config, devDir string, header headerData) (string, string, error) {
	pkg := PackageName(p.Name)
	ids := newIdentSet(fmt.Sprintf("peripheral %q", p.Name))
	all := append([]*model.Peripheral{p}, instances...)

	data := peripheralFileData{
		headerData:  header,
		Package:     pkg,
		Device:      dev.Name,
		TypeName:    structTypeName(p, all),
		Description: strings.TrimSpace(p.Description),
	}
	if err := ids.claim(data.TypeName, fmt.Sprintf("peripheral type %q", data.TypeName)); err != nil {
		return "", "", err
	}

	regs := sortedRegs(p)

	enumTypes, enums, err := collectEnums(p, regs, ids)
	if err != nil {
		return "", "", err
	}
	data.Enums = enums

	for _, reg := range regs {
		rp := plans[reg]
		if rp == nil {
			panic(&plan.InvariantError{Register: reg.Name, Detail: "register reached emission without a plan"})
		}
		rd, needB32, err := buildRegister(pkg, reg, rp, enumTypes, ids)
		if err != nil {
			return "", "", err
		}
		data.NeedsB32 = data.NeedsB32 || needB32
		data.Registers = append(data.Registers, rd)
	}

	data.Rows = layoutRows(p, regs)

	for _, inst := range all {
		name := Ident(inst.Name)
		if err := ids.claim(name, fmt.Sprintf("peripheral instance %q", inst.Name)); err != nil {
			return "", "", err
		}
		data.Instances = append(data.Instances, instanceData{
			Name:      name,
			TypeName:  data.TypeName,
			Base:      "mmap." + baseConstName(dev, inst),
			Addr:      hexU64(inst.BaseAddress),
			DerivedOf: inst.DerivedFrom,
		})
	}

	imp := []string{path.Join(cfg.ImportRoot, devDir, "mmap")}
	if len(regs) > 0 {
		imp = append(imp, cfg.hwioImport())
	}
	sort.Strings(imp)
	data.Imports = imp

	var b strings.Builder
	renderTemplate(&b, "peripheralFile", data)
	return path.Join(devDir, pkg, pkg+".go"), b.String(), nil
}

func buildRegister(pkg string, reg *model.Register, rp *plan.RegisterPlan, enumTypes map[*model.Enum]string, ids *identSet) (registerData, bool, error) {
	t := Ident(reg.Name)
	owner := fmt.Sprintf("register %q", reg.Name)

	names := []string{t}
	if rp.Snapshot {
		names = append(names, t+"Snapshot")
	}
	if rp.Txn {
		names = append(names, t+"Txn")
	}
	if reg.HasReset {
		names = append(names, t+"Reset")
	}
	for _, n := range names {
		if err := ids.claim(n, owner); err != nil {
			return registerData{}, false, err
		}
	}

	rd := registerData{
		TypeName:    t,
		Description: strings.TrimSpace(reg.Description),
		Readable:    rp.Snapshot,
		Writable:    rp.Txn,
		Merge:       rp.Merge,
		HasReset:    reg.HasReset,
		Reset:       hexU32(reg.ResetValue),
		Clear:       hexU32(rp.ClearMask),
		PanicMsg:    fmt.Sprintf("%s: %s transaction already committed", pkg, reg.Name),
	}

	var needB32 bool
	for _, fp := range rp.Fields {
		typ := fieldType(fp, enumTypes)
		if rd.Readable && fp.Readable() {
			rd.Getters = append(rd.Getters, getterData{
				Name:        Ident(fp.Field.Name),
				Type:        typ,
				Expr:        getterExpr(fp, typ),
				Description: strings.TrimSpace(fp.Field.Description),
			})
		}
		if rd.Writable && fp.Writable() {
			rd.Setters = append(rd.Setters, setterData{
				Name:        Ident(fp.Field.Name),
				Type:        typ,
				Description: strings.TrimSpace(fp.Field.Description),
				Stmts:       setterStmts(fp, typ),
			})
			if fp.Kind == plan.KindBool && fp.Field.Enum == nil {
				needB32 = true
			}
		}
	}
	return rd, needB32, nil
}

// layoutRows turns offset-sorted registers into struct rows, padding
// the gaps so field offsets line up with the hardware layout.
func layoutRows(p *model.Peripheral, regs []*model.Register) []rowData {
	var rows []rowData
	var next uint64
	for _, reg := range regs {
		if reg.Offset < next {
			panic(&plan.InvariantError{
				Register: reg.Name,
				Detail:   fmt.Sprintf("offset %#x overlaps the preceding register in peripheral %q", reg.Offset, p.Name),
			})
		}
		if reg.Offset > next {
			rows = append(rows, rowData{
				Name:   "_",
				Type:   fmt.Sprintf("[%d]byte", reg.Offset-next),
				Offset: hexU64(next),
			})
		}
		rows = append(rows, rowData{Name: Ident(reg.Name), Type: Ident(reg.Name), Offset: hexU64(reg.Offset)})
		next = reg.Offset + model.RegisterWidth/8
	}
	return rows
}

func collectEnums(p *model.Peripheral, regs []*model.Register, ids *identSet) (map[*model.Enum]string, []enumData, error) {
	types := make(map[*model.Enum]string)
	var out []enumData
	index := make(map[string]int)
	owners := make(map[string]*model.Enum)

	for _, reg := range regs {
		for _, f := range reg.Fields {
			e := f.Enum
			if e == nil {
				continue
			}
			name := PascalCase(e.Name)
			ref := reg.Name + "." + f.Name

			if i, ok := index[name]; ok {
				prev := owners[name]
				if !sameValueSet(prev, e) {
					return nil, nil, &model.LayoutConflictError{
						Scope:  fmt.Sprintf("peripheral %q", p.Name),
						A:      fmt.Sprintf("enum %q of field %q", prev.Name, out[i].FieldRef),
						B:      fmt.Sprintf("enum %q of field %q", e.Name, ref),
						Detail: fmt.Sprintf("both generate type %q with different value sets", name),
					}
				}
				types[e] = name
				continue
			}

			if err := ids.claim(name, fmt.Sprintf("enum %q", e.Name)); err != nil {
				return nil, nil, err
			}
			ed := enumData{
				TypeName:   name,
				Underlying: enumUnderlying(f.Width),
				FieldRef:   ref,
			}
			seen := make(map[uint32]bool)
			for _, v := range e.Values {
				constName := name + PascalCase(v.Name)
				if err := ids.claim(constName, fmt.Sprintf("enum %q value %q", e.Name, v.Name)); err != nil {
					return nil, nil, err
				}
				ed.Values = append(ed.Values, enumValueData{
					ConstName:   constName,
					Name:        v.Name,
					Value:       hexU32(v.Value),
					Description: strings.TrimSpace(v.Description),
					StringCase:  !seen[v.Value],
				})
				seen[v.Value] = true
			}
			index[name] = len(out)
			owners[name] = e
			out = append(out, ed)
			types[e] = name
		}
	}
	return types, out, nil
}

// sameValueSet reports whether two enums declare exactly the same
// name-to-value pairs, in any order.
func sameValueSet(a, b *model.Enum) bool {
	if len(a.Values) != len(b.Values) {
		return false
	}
	vals := make(map[string]uint32, len(a.Values))
	for _, v := range a.Values {
		vals[strings.ToLower(v.Name)] = v.Value
	}
	for _, v := range b.Values {
		w, ok := vals[strings.ToLower(v.Name)]
		if !ok || w != v.Value {
			return false
		}
	}
	return true
}

func readme(dev *model.Device, sel *selection, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s register map\n\n", dev.Name)
	if dev.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(dev.Description))
	}
	if cfg.Source != "" {
		fmt.Fprintf(&b, "Generated by svdmap-gen from %s (blake2b-256 %s). Do not edit.\n\n", cfg.Source, cfg.Sum)
	} else {
		b.WriteString("Generated by svdmap-gen. Do not edit.\n\n")
	}

	for _, p := range sel.bases {
		fmt.Fprintf(&b, "## %s\n\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(p.Description))
		}
		instances := append([]*model.Peripheral{p}, sel.derived[p]...)
		fmt.Fprintf(&b, "Base address %s, Go type `%s`.\n\n", hexU64(p.BaseAddress), structTypeName(p, instances))

		if len(p.Registers) > 0 {
			b.WriteString("| Offset | Register | Access | Reset | Fields |\n")
			b.WriteString("| --- | --- | --- | --- | --- |\n")
			for _, reg := range sortedRegs(p) {
				reset := "-"
				if reg.HasReset {
					reset = hexU32(reg.ResetValue)
				}
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
					hexU64(reg.Offset), reg.Name, reg.Access, reset, fieldsCell(reg))
			}
			b.WriteString("\n")
		}

		for _, d := range sel.derived[p] {
			fmt.Fprintf(&b, "### %s\n\nInstance at %s with the layout of %s.\n\n", d.Name, hexU64(d.BaseAddress), p.Name)
		}
	}
	return b.String()
}

func fieldsCell(reg *model.Register) string {
	if len(reg.Fields) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(reg.Fields))
	for _, f := range reg.Fields {
		parts = append(parts, fmt.Sprintf("%s [%d:%d]", f.Name, f.Offset+f.Width-1, f.Offset))
	}
	return strings.Join(parts, ", ")
}

// structTypeName names the generated register block struct: the group
// name when the description declares one, so instances of one group
// share a type, otherwise the peripheral name. A "Regs" suffix keeps
// the type clear of an instance variable spelled the same way, which
// is the normal case for single-instance peripherals.
func structTypeName(p *model.Peripheral, instances []*model.Peripheral) string {
	tn := Ident(p.Name)
	if p.GroupName != "" {
		tn = Ident(p.GroupName)
	}
	for _, inst := range instances {
		if Ident(inst.Name) == tn {
			return tn + "Regs"
		}
	}
	return tn
}

func baseConstName(dev *model.Device, p *model.Peripheral) string {
	return LinkName(dev.Name) + "_" + LinkName(p.Name) + "_BASE"
}

func sortedRegs(p *model.Peripheral) []*model.Register {
	regs := make([]*model.Register, len(p.Registers))
	copy(regs, p.Registers)
	sort.SliceStable(regs, func(i, j int) bool { return regs[i].Offset < regs[j].Offset })
	return regs
}

// fieldType is the Go type a field decodes to: its enum type when it
// has one, otherwise the plan kind.
func fieldType(fp plan.FieldPlan, enumTypes map[*model.Enum]string) string {
	if fp.Field.Enum != nil {
		return enumTypes[fp.Field.Enum]
	}
	return fp.Kind.String()
}

// enumUnderlying sizes a generated enum type to its field width. A
// 1-bit enum is numeric, not bool, so its named values still work.
func enumUnderlying(width uint) string {
	switch {
	case width <= 8:
		return "uint8"
	case width <= 16:
		return "uint16"
	default:
		return "uint32"
	}
}

// getterExpr builds the snapshot decode expression for one field. The
// shapes are chosen so gofmt reproduces them verbatim.
func getterExpr(fp plan.FieldPlan, typ string) string {
	if fp.Kind == plan.KindBool && fp.Field.Enum == nil {
		return fmt.Sprintf("s.raw&%s != 0", hexU32(fp.Mask))
	}
	inner := fmt.Sprintf("s.raw & %s", hexU32(fp.FieldMask))
	if fp.Shift > 0 {
		inner = fmt.Sprintf("(s.raw >> %d) & %s", fp.Shift, hexU32(fp.FieldMask))
	}
	if fp.Mask == 0xffffffff {
		inner = "s.raw"
	}
	if typ == "uint32" {
		return inner
	}
	return fmt.Sprintf("%s(%s)", typ, inner)
}

// setterStmts builds the three staging statements of one field setter:
// clear the field's bits, or in the new value, widen the staged mask.
func setterStmts(fp plan.FieldPlan, typ string) []string {
	maskExpr := hexU32(fp.FieldMask)
	if fp.Shift > 0 {
		maskExpr = fmt.Sprintf("%s << %d", hexU32(fp.FieldMask), fp.Shift)
	}

	var val string
	if fp.Kind == plan.KindBool && fp.Field.Enum == nil {
		val = "b32(v)"
		if fp.Shift > 0 {
			val = fmt.Sprintf("b32(v) << %d", fp.Shift)
		}
	} else {
		conv := "v"
		if typ != "uint32" {
			conv = "uint32(v)"
		}
		masked := fmt.Sprintf("%s & %s", conv, hexU32(fp.FieldMask))
		if fp.Mask == 0xffffffff {
			masked = conv
		}
		val = masked
		if fp.Shift > 0 {
			val = fmt.Sprintf("(%s) << %d", masked, fp.Shift)
		}
	}

	return []string{
		fmt.Sprintf("t.value &^= %s", maskExpr),
		fmt.Sprintf("t.value |= %s", val),
		fmt.Sprintf("t.mask |= %s", maskExpr),
	}
}

func hexU32(v uint32) string { return fmt.Sprintf("%#x", v) }

func hexU64(v uint64) string { return fmt.Sprintf("%#x", v) }
