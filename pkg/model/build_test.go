package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/svdmap/svdmap-go/pkg/svd"
)

// spiDoc is a small but complete description exercising every element
// the builder understands.
const spiDoc = `<?xml version="1.0" encoding="utf-8"?>
<device>
  <name>MYDEV</name>
  <description>Test device</description>
  <width>32</width>
  <peripherals>
    <peripheral>
      <name>SPI1</name>
      <description>Serial peripheral interface</description>
      <groupName>SPI</groupName>
      <baseAddress>0x40013000</baseAddress>
      <registers>
        <register>
          <name>CR</name>
          <description>Control register</description>
          <addressOffset>0x0</addressOffset>
          <size>32</size>
          <resetValue>0x0</resetValue>
          <fields>
            <field>
              <name>TC</name>
              <description>Transfer complete, cleared on commit</description>
              <bitOffset>0</bitOffset>
              <bitWidth>1</bitWidth>
              <modifiedWriteValues>clear</modifiedWriteValues>
            </field>
            <field>
              <name>CPOL</name>
              <bitOffset>1</bitOffset>
              <bitWidth>1</bitWidth>
            </field>
            <field>
              <name>PARITY</name>
              <bitOffset>2</bitOffset>
              <bitWidth>2</bitWidth>
              <enumeratedValues>
                <enumeratedValue>
                  <name>NONE</name>
                  <description>No parity</description>
                  <value>0</value>
                </enumeratedValue>
                <enumeratedValue>
                  <name>EVEN</name>
                  <value>0x1</value>
                </enumeratedValue>
                <enumeratedValue>
                  <name>ODD</name>
                  <value>#10</value>
                </enumeratedValue>
              </enumeratedValues>
            </field>
            <field>
              <name>SPE</name>
              <description>Peripheral enable</description>
              <bitOffset>6</bitOffset>
              <bitWidth>1</bitWidth>
            </field>
            <field>
              <name>FREQ</name>
              <bitOffset>8</bitOffset>
              <bitWidth>4</bitWidth>
            </field>
          </fields>
        </register>
        <register>
          <name>SR</name>
          <description>Status register</description>
          <addressOffset>0x4</addressOffset>
          <access>read-only</access>
          <fields>
            <field>
              <name>BUSY</name>
              <bitOffset>0</bitOffset>
              <bitWidth>1</bitWidth>
            </field>
          </fields>
        </register>
        <register>
          <name>DR</name>
          <description>Data register</description>
          <addressOffset>0x8</addressOffset>
        </register>
      </registers>
    </peripheral>
    <peripheral derivedFrom="SPI1">
      <name>SPI2</name>
      <baseAddress>0x40003800</baseAddress>
    </peripheral>
  </peripherals>
</device>
`

func buildFromXML(t *testing.T, doc string) (*Device, error) {
	t.Helper()
	root, err := svd.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return Build(root)
}

func mustBuild(t *testing.T, doc string) *Device {
	t.Helper()
	d, err := buildFromXML(t, doc)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return d
}

func TestBuild_FullDevice(t *testing.T) {
	d := mustBuild(t, spiDoc)

	if d.Name != "MYDEV" {
		t.Errorf("device name = %q, want MYDEV", d.Name)
	}
	if d.Description != "Test device" {
		t.Errorf("device description = %q", d.Description)
	}
	if d.Width != 32 {
		t.Errorf("device width = %d, want 32", d.Width)
	}
	if len(d.Peripherals) != 2 {
		t.Fatalf("len(peripherals) = %d, want 2", len(d.Peripherals))
	}

	spi1 := d.Peripherals[0]
	t.Run("peripheral", func(t *testing.T) {
		if spi1.Name != "SPI1" {
			t.Errorf("name = %q, want SPI1", spi1.Name)
		}
		if spi1.GroupName != "SPI" {
			t.Errorf("groupName = %q, want SPI", spi1.GroupName)
		}
		if spi1.BaseAddress != 0x40013000 {
			t.Errorf("baseAddress = %#x, want 0x40013000", spi1.BaseAddress)
		}
		if spi1.Derived() {
			t.Error("SPI1 reports derived, want base")
		}
		if len(spi1.Registers) != 3 {
			t.Fatalf("len(registers) = %d, want 3", len(spi1.Registers))
		}
	})

	cr := spi1.Registers[0]
	t.Run("register", func(t *testing.T) {
		if cr.Name != "CR" || cr.Offset != 0 || cr.Width != 32 {
			t.Errorf("CR = %q offset %#x width %d", cr.Name, cr.Offset, cr.Width)
		}
		if cr.Access != AccessReadWrite {
			t.Errorf("CR access = %v, want read-write default", cr.Access)
		}
		if !cr.HasReset || cr.ResetValue != 0 {
			t.Errorf("CR reset = %v %#x, want declared 0", cr.HasReset, cr.ResetValue)
		}
		if cr.ClearMask != 0x1 {
			t.Errorf("CR clear mask = %#x, want 0x1 (TC)", cr.ClearMask)
		}
		if len(cr.Fields) != 5 {
			t.Fatalf("len(CR fields) = %d, want 5", len(cr.Fields))
		}

		sr := spi1.Registers[1]
		if sr.Access != AccessReadOnly {
			t.Errorf("SR access = %v, want read-only", sr.Access)
		}
		if sr.HasReset {
			t.Error("SR has reset value, want none")
		}
		if sr.ClearMask != 0 {
			t.Errorf("SR clear mask = %#x, want 0", sr.ClearMask)
		}

		dr := spi1.Registers[2]
		if dr.Offset != 0x8 || len(dr.Fields) != 0 {
			t.Errorf("DR offset %#x fields %d, want 0x8 and none", dr.Offset, len(dr.Fields))
		}
	})

	t.Run("fields", func(t *testing.T) {
		tc := cr.Fields[0]
		if tc.Name != "TC" || tc.Offset != 0 || tc.Width != 1 || !tc.ClearOnWrite {
			t.Errorf("TC = %+v", tc)
		}
		spe := cr.Fields[3]
		if spe.Name != "SPE" || spe.Offset != 6 || spe.Width != 1 {
			t.Errorf("SPE = %+v", spe)
		}
		freq := cr.Fields[4]
		if freq.Offset != 8 || freq.Width != 4 {
			t.Errorf("FREQ = %+v", freq)
		}

		parity := cr.Fields[2]
		if parity.Enum == nil {
			t.Fatal("PARITY has no enum")
		}
		if parity.Enum.Name != "PARITY" {
			t.Errorf("enum name = %q, want PARITY (defaulted from field)", parity.Enum.Name)
		}
		if len(parity.Enum.Values) != 3 {
			t.Fatalf("len(enum values) = %d, want 3", len(parity.Enum.Values))
		}
		want := []EnumValue{
			{Name: "NONE", Description: "No parity", Value: 0},
			{Name: "EVEN", Value: 1},
			{Name: "ODD", Value: 2},
		}
		for i, w := range want {
			if parity.Enum.Values[i] != w {
				t.Errorf("value[%d] = %+v, want %+v", i, parity.Enum.Values[i], w)
			}
		}
	})

	t.Run("derived", func(t *testing.T) {
		spi2 := d.Peripherals[1]
		if !spi2.Derived() || spi2.DerivedFrom != "SPI1" {
			t.Fatalf("SPI2 derivedFrom = %q, want SPI1", spi2.DerivedFrom)
		}
		if spi2.BaseAddress != 0x40003800 {
			t.Errorf("SPI2 baseAddress = %#x, want 0x40003800", spi2.BaseAddress)
		}
		if len(spi2.Registers) != 3 || spi2.Registers[0] != spi1.Registers[0] {
			t.Error("SPI2 does not share SPI1's register layout")
		}
	})
}

// A field without bitWidth is the canonical malformed input: the error
// must name the full element path.
func TestBuild_MissingBitWidth(t *testing.T) {
	doc := `<device><name>D</name><peripherals>
	  <peripheral><name>SPI1</name><baseAddress>0x0</baseAddress><registers>
	    <register><name>CR</name><addressOffset>0</addressOffset><fields>
	      <field><name>SPE</name><bitOffset>6</bitOffset></field>
	    </fields></register>
	  </registers></peripheral>
	</peripherals></device>`

	_, err := buildFromXML(t, doc)
	var merr *MalformedElementError
	if !errors.As(err, &merr) {
		t.Fatalf("error = %v, want MalformedElementError", err)
	}
	wantPath := `peripheral "SPI1" > register "CR" > field "SPE"`
	if merr.Path != wantPath {
		t.Errorf("path = %q, want %q", merr.Path, wantPath)
	}
	if !strings.Contains(merr.Detail, "bitWidth") {
		t.Errorf("detail = %q, want mention of bitWidth", merr.Detail)
	}
}

func TestBuild_Malformed(t *testing.T) {
	const prologue = `<device><name>D</name><peripherals><peripheral>
	  <name>P</name><baseAddress>0x0</baseAddress><registers>`
	const epilogue = `</registers></peripheral></peripherals></device>`

	reg := func(body string) string { return prologue + body + epilogue }

	cases := []struct {
		name   string
		doc    string
		detail string
	}{
		{
			"wrong root element",
			`<devices><name>D</name></devices>`,
			`want "device"`,
		},
		{
			"missing device name",
			`<device><description>x</description></device>`,
			`missing required element "name"`,
		},
		{
			"unsupported device width",
			`<device><name>D</name><width>16</width></device>`,
			"unsupported register width 16",
		},
		{
			"missing peripheral name",
			`<device><name>D</name><peripherals><peripheral><baseAddress>0</baseAddress></peripheral></peripherals></device>`,
			`missing required element "name"`,
		},
		{
			"missing baseAddress",
			`<device><name>D</name><peripherals><peripheral><name>P</name></peripheral></peripherals></device>`,
			`missing required element "baseAddress"`,
		},
		{
			"bad baseAddress",
			`<device><name>D</name><peripherals><peripheral><name>P</name><baseAddress>0xZZ</baseAddress></peripheral></peripherals></device>`,
			`invalid number "0xZZ"`,
		},
		{
			"missing addressOffset",
			reg(`<register><name>CR</name></register>`),
			`missing required element "addressOffset"`,
		},
		{
			"unsupported register size",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><size>8</size></register>`),
			"unsupported register width 8",
		},
		{
			"unknown access mode",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><access>write-once</access></register>`),
			`unknown access mode "write-once"`,
		},
		{
			"oversized resetValue",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><resetValue>0x100000000</resetValue></register>`),
			"not representable in 32 bits",
		},
		{
			"zero width field",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><fields>
			  <field><name>F</name><bitOffset>0</bitOffset><bitWidth>0</bitWidth></field>
			</fields></register>`),
			"bitWidth must be at least 1",
		},
		{
			"missing bitOffset",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><fields>
			  <field><name>F</name><bitWidth>1</bitWidth></field>
			</fields></register>`),
			`missing required element "bitOffset"`,
		},
		{
			"unsupported modifiedWriteValues",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><fields>
			  <field><name>F</name><bitOffset>0</bitOffset><bitWidth>1</bitWidth>
			    <modifiedWriteValues>oneToClear</modifiedWriteValues></field>
			</fields></register>`),
			`unsupported modifiedWriteValues "oneToClear"`,
		},
		{
			"empty enumeratedValues",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><fields>
			  <field><name>F</name><bitOffset>0</bitOffset><bitWidth>1</bitWidth>
			    <enumeratedValues></enumeratedValues></field>
			</fields></register>`),
			"declares no values",
		},
		{
			"enumerated value without value",
			reg(`<register><name>CR</name><addressOffset>0</addressOffset><fields>
			  <field><name>F</name><bitOffset>0</bitOffset><bitWidth>1</bitWidth>
			    <enumeratedValues><enumeratedValue><name>ON</name></enumeratedValue></enumeratedValues></field>
			</fields></register>`),
			`missing required element "value"`,
		},
		{
			"derived peripheral with registers",
			`<device><name>D</name><peripherals>
			  <peripheral><name>A</name><baseAddress>0</baseAddress></peripheral>
			  <peripheral derivedFrom="A"><name>B</name><baseAddress>4096</baseAddress>
			    <registers><register><name>CR</name><addressOffset>0</addressOffset></register></registers>
			  </peripheral>
			</peripherals></device>`,
			"declares its own registers",
		},
		{
			"unknown derivedFrom target",
			`<device><name>D</name><peripherals>
			  <peripheral derivedFrom="NOPE"><name>B</name><baseAddress>0</baseAddress></peripheral>
			</peripherals></device>`,
			`derivedFrom target "NOPE" not found`,
		},
		{
			"chained derivedFrom",
			`<device><name>D</name><peripherals>
			  <peripheral><name>A</name><baseAddress>0</baseAddress></peripheral>
			  <peripheral derivedFrom="A"><name>B</name><baseAddress>4096</baseAddress></peripheral>
			  <peripheral derivedFrom="B"><name>C</name><baseAddress>8192</baseAddress></peripheral>
			</peripherals></device>`,
			`target "B" is itself derived`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := buildFromXML(t, tc.doc)
			var merr *MalformedElementError
			if !errors.As(err, &merr) {
				t.Fatalf("error = %v, want MalformedElementError", err)
			}
			if !strings.Contains(merr.Error(), tc.detail) {
				t.Errorf("error %q does not contain %q", merr.Error(), tc.detail)
			}
		})
	}
}

// Positions stand in for names in error paths until the name is known.
func TestBuild_PathWithoutName(t *testing.T) {
	doc := `<device><name>D</name><peripherals>
	  <peripheral><name>P</name><baseAddress>0</baseAddress></peripheral>
	  <peripheral><baseAddress>0</baseAddress></peripheral>
	</peripherals></device>`

	_, err := buildFromXML(t, doc)
	var merr *MalformedElementError
	if !errors.As(err, &merr) {
		t.Fatalf("error = %v, want MalformedElementError", err)
	}
	if merr.Path != "peripheral #2" {
		t.Errorf("path = %q, want peripheral #2", merr.Path)
	}
}
