package codegen

import (
	"fmt"
	"strings"
	"text/template"
)

// funcMap provides helper functions available to all templates.
var funcMap = template.FuncMap{
	"firstLower": firstLower,
	"quote":      func(s string) string { return fmt.Sprintf("%q", s) },
}

// templates holds all parsed code generation templates.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	fileHeaderTmpl +
		peripheralFileTmpl +
		enumTmpl +
		registerTmpl +
		b32Tmpl +
		peripheralStructTmpl +
		instancesTmpl +
		mmapFileTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
}

// firstLower lowers the first rune of a description so it reads on
// after an identifier.
func firstLower(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// --- Template data types ---

// headerData stamps the generated-file header.
type headerData struct {
	Source string
	Sum    string
}

// enumValueData is one constant of a generated enum type.
type enumValueData struct {
	ConstName   string
	Name        string
	Value       string
	Description string

	// StringCase is false when an earlier constant already covers the
	// numeric value; a repeated switch case would not compile.
	StringCase bool
}

// enumData describes one generated enum type.
type enumData struct {
	TypeName   string
	Underlying string
	FieldRef   string
	Values     []enumValueData
}

// getterData is one snapshot decode method.
type getterData struct {
	Name        string
	Type        string
	Expr        string
	Description string
}

// setterData is one transaction field setter.
type setterData struct {
	Name        string
	Type        string
	Description string
	Stmts       []string
}

// registerData carries everything the register template needs.
type registerData struct {
	TypeName    string
	Description string
	Readable    bool
	Writable    bool
	Merge       bool
	HasReset    bool
	Reset       string
	Clear       string
	PanicMsg    string
	Getters     []getterData
	Setters     []setterData
}

// rowData is one row of the peripheral struct layout.
type rowData struct {
	Name   string
	Type   string
	Offset string
}

// instanceData binds one peripheral instance to its base address.
type instanceData struct {
	Name      string
	TypeName  string
	Base      string
	Addr      string
	DerivedOf string
}

// peripheralFileData is the root data of one accessor package file.
type peripheralFileData struct {
	headerData
	Package     string
	Device      string
	TypeName    string
	Description string
	Imports     []string
	Enums       []enumData
	Registers   []registerData
	Rows        []rowData
	Instances   []instanceData
	NeedsB32    bool
}

// mmapConstData is one base address constant.
type mmapConstData struct {
	Name string
	Addr string
}

// mmapFileData is the root data of the mmap package file.
type mmapFileData struct {
	headerData
	Device string
	Consts []mmapConstData
}

// --- Template definitions ---

const fileHeaderTmpl = `{{define "fileHeader"}}// Code generated by svdmap-gen. DO NOT EDIT.
{{if .Source}}// Source: {{.Source}} (blake2b-256 {{.Sum}})
{{end}}{{end}}`

const peripheralFileTmpl = `{{define "peripheralFile"}}{{template "fileHeader" .}}
// Package {{.Package}} provides access to the {{.TypeName}} registers of {{.Device}}.
{{- if .Description}}
//
// {{.Description}}
{{- end}}
package {{.Package}}

import (
"unsafe"

{{range .Imports}}{{quote .}}
{{end}})

{{range .Enums}}{{template "enum" .}}{{end}}
{{- range .Registers}}{{template "register" .}}{{end}}
{{- if .NeedsB32}}{{template "b32" .}}{{end}}
{{- template "peripheralStruct" .}}
{{- template "instances" .}}
{{end}}`

const enumTmpl = `{{define "enum"}}
{{- $e := .}}
// {{.TypeName}} is the value set of the {{.FieldRef}} field.
type {{.TypeName}} {{.Underlying}}

const (
{{- range .Values}}
{{- if .Description}}
// {{.ConstName}} {{firstLower .Description}}.
{{- end}}
{{.ConstName}} {{$e.TypeName}} = {{.Value}}
{{- end}}
)

// String returns the description spelling of the value.
func (v {{.TypeName}}) String() string {
switch v {
{{- range .Values}}
{{- if .StringCase}}
case {{.ConstName}}:
return {{quote .Name}}
{{- end}}
{{- end}}
default:
return "UNKNOWN"
}
}

{{end}}`

const registerTmpl = `{{define "register"}}
{{- $r := .}}
{{- if .Description}}
// {{.TypeName}} register: {{firstLower .Description}}.
{{- else}}
// {{.TypeName}} register.
{{- end}}
type {{.TypeName}} struct {
reg hwio.Reg32
}

{{if .HasReset}}// {{.TypeName}}Reset is the documented post-reset value.
const {{.TypeName}}Reset uint32 = {{.Reset}}

{{end}}
{{- if .Readable}}
// Load returns the current hardware word.
func (r *{{.TypeName}}) Load() uint32 {
return r.reg.Load()
}

// Snapshot captures the register in a single read for field decoding.
func (r *{{.TypeName}}) Snapshot() {{.TypeName}}Snapshot {
return {{.TypeName}}Snapshot{raw: r.reg.Load()}
}

{{end}}
{{- if .Writable}}
// Store writes the word as-is, outside any transaction.
func (r *{{.TypeName}}) Store(v uint32) {
r.reg.Store(v)
}

{{if .Merge}}// Merge opens a transaction that preserves unstaged fields on commit.
func (r *{{.TypeName}}) Merge() *{{.TypeName}}Txn {
return &{{.TypeName}}Txn{reg: &r.reg}
}

{{end}}// Overwrite opens a transaction that replaces the whole word on commit.
func (r *{{.TypeName}}) Overwrite() *{{.TypeName}}Txn {
return &{{.TypeName}}Txn{reg: &r.reg, overwrite: true}
}

{{end}}
{{- if .Readable}}
// {{.TypeName}}Snapshot is a point-in-time copy of {{.TypeName}}.
type {{.TypeName}}Snapshot struct {
raw uint32
}

// Raw returns the captured word.
func (s {{.TypeName}}Snapshot) Raw() uint32 {
return s.raw
}

{{range .Getters}}
{{- if .Description}}
// {{.Name}} {{firstLower .Description}}.
{{- end}}
func (s {{$r.TypeName}}Snapshot) {{.Name}}() {{.Type}} {
return {{.Expr}}
}

{{end}}
{{- end}}
{{- if .Writable}}
// {{.TypeName}}Txn is a deferred write to {{.TypeName}}. Setters stage
// field values; nothing reaches the hardware before Commit.
type {{.TypeName}}Txn struct {
reg *hwio.Reg32
value uint32
mask uint32
overwrite bool
done bool
}

{{range .Setters}}
{{- if .Description}}
// Set{{.Name}} stages {{firstLower .Description}}.
{{- end}}
func (t *{{$r.TypeName}}Txn) Set{{.Name}}(v {{.Type}}) *{{$r.TypeName}}Txn {
{{- range .Stmts}}
{{.}}
{{- end}}
return t
}

{{end}}
// Commit performs the terminal read-modify-write and returns the word
// written. A transaction commits exactly once; a second Commit panics.
func (t *{{$r.TypeName}}Txn) Commit() uint32 {
if t.done {
panic({{quote .PanicMsg}})
}
t.done = true
return hwio.Commit(t.reg, t.value, t.mask, {{.Clear}}, t.overwrite)
}

{{end}}
{{- end}}`

const b32Tmpl = `{{define "b32"}}func b32(v bool) uint32 {
if v {
return 1
}
return 0
}

{{end}}`

const peripheralStructTmpl = `{{define "peripheralStruct"}}
{{- if .Description}}
// {{.TypeName}} is the {{.Device}} {{firstLower .Description}} register block.
{{- else}}
// {{.TypeName}} is the register block.
{{- end}}
type {{.TypeName}} struct {
{{- range .Rows}}
{{.Name}} {{.Type}} // {{.Offset}}
{{- end}}
}

{{end}}`

const instancesTmpl = `{{define "instances"}}var (
{{- range .Instances}}
{{- if .DerivedOf}}
// {{.Name}} at {{.Addr}}, layout derived from {{.DerivedOf}}.
{{- else}}
// {{.Name}} at {{.Addr}}.
{{- end}}
{{.Name}} = (*{{.TypeName}})(unsafe.Pointer({{.Base}}))
{{- end}}
)
{{end}}`

const mmapFileTmpl = `{{define "mmapFile"}}{{template "fileHeader" .}}
// Package mmap pins the peripheral base addresses of {{.Device}}.
//
// Accessor packages take placement from these constants and never
// compute an address themselves; relocating a peripheral means
// regenerating or replacing this package only.
package mmap
{{if .Consts}}
const (
{{- range .Consts}}
{{.Name}} uintptr = {{.Addr}}
{{- end}}
)
{{end}}{{end}}`
