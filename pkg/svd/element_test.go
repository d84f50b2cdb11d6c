package svd

import (
	"strings"
	"testing"
)

func TestParse_ElementTree(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<device schemaVersion="1.1">
  <name>MYDEV</name>
  <peripherals>
    <!-- comment is dropped -->
    <peripheral>
      <name>SPI1</name>
      <baseAddress>0x40013000</baseAddress>
    </peripheral>
    <peripheral derivedFrom="SPI1">
      <name>SPI2</name>
      <baseAddress>0x40003800</baseAddress>
    </peripheral>
  </peripherals>
</device>
`
	root, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Name != "device" {
		t.Errorf("root name = %q, want device", root.Name)
	}
	if v, ok := root.Attr("schemaVersion"); !ok || v != "1.1" {
		t.Errorf("schemaVersion = %q, %v, want 1.1, true", v, ok)
	}
	if name, ok := root.ChildText("name"); !ok || name != "MYDEV" {
		t.Errorf("device name = %q, %v, want MYDEV, true", name, ok)
	}

	periphs := root.Child("peripherals")
	if periphs == nil {
		t.Fatal("no peripherals element")
	}
	list := periphs.ChildrenNamed("peripheral")
	if len(list) != 2 {
		t.Fatalf("len(peripherals) = %d, want 2", len(list))
	}

	if name, _ := list[0].ChildText("name"); name != "SPI1" {
		t.Errorf("first peripheral name = %q, want SPI1", name)
	}
	if _, ok := list[0].Attr("derivedFrom"); ok {
		t.Error("first peripheral has derivedFrom attribute, want none")
	}
	if from, ok := list[1].Attr("derivedFrom"); !ok || from != "SPI1" {
		t.Errorf("second peripheral derivedFrom = %q, %v, want SPI1, true", from, ok)
	}

	// Text of a container element is trimmed whitespace only.
	if periphs.Text != "" {
		t.Errorf("peripherals text = %q, want empty", periphs.Text)
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"unclosed element", `<device><name>X</name>`},
		{"mismatched close", `<device><name>X</device></name>`},
		{"empty document", ``},
		{"two roots", `<device></device><device></device>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tc.doc)); err == nil {
				t.Error("Parse succeeded, want error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("testdata/does-not-exist.svd"); err == nil {
		t.Error("Load succeeded, want error")
	}
}

func TestChild_Missing(t *testing.T) {
	root, err := Parse(strings.NewReader(`<device><name>X</name></device>`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c := root.Child("peripherals"); c != nil {
		t.Errorf("Child(peripherals) = %v, want nil", c)
	}
	if _, ok := root.ChildText("description"); ok {
		t.Error("ChildText(description) found, want missing")
	}
	if list := root.ChildrenNamed("peripheral"); len(list) != 0 {
		t.Errorf("ChildrenNamed(peripheral) = %d elements, want 0", len(list))
	}
}

func TestParseUint(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"42", 42},
		{"0x2A", 0x2a},
		{"0X2a", 0x2a},
		{"0x40013000", 0x40013000},
		{"  7  ", 7},
		{"#1011", 0b1011},
		{"#1x0x", 0b1000},
		{"#0", 0},
	}
	for _, tc := range cases {
		got, err := ParseUint(tc.in)
		if err != nil {
			t.Errorf("ParseUint(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseUint(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseUint_Invalid(t *testing.T) {
	for _, in := range []string{"", "#", "abc", "0x", "12z", "-4", "#12"} {
		if _, err := ParseUint(in); err == nil {
			t.Errorf("ParseUint(%q) succeeded, want error", in)
		}
	}
}
