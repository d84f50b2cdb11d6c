package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/svdmap/svdmap-go/pkg/inspect"
	"github.com/svdmap/svdmap-go/pkg/model"
	"github.com/svdmap/svdmap-go/pkg/plan"
	"github.com/svdmap/svdmap-go/pkg/svd"
)

const sampleSVD = `<device>
  <name>MYDEV</name>
  <description>Sample device</description>
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
          <resetValue>0x0</resetValue>
          <fields>
            <field>
              <name>TC</name>
              <bitOffset>0</bitOffset>
              <bitWidth>1</bitWidth>
              <modifiedWriteValues>clear</modifiedWriteValues>
            </field>
            <field>
              <name>PARITY</name>
              <bitOffset>2</bitOffset>
              <bitWidth>2</bitWidth>
              <enumeratedValues>
                <name>PARITY</name>
                <enumeratedValue><name>NONE</name><value>0</value></enumeratedValue>
                <enumeratedValue><name>EVEN</name><value>1</value></enumeratedValue>
                <enumeratedValue><name>ODD</name><value>2</value></enumeratedValue>
              </enumeratedValues>
            </field>
            <field>
              <name>SPE</name>
              <description>Serial peripheral enable</description>
              <bitOffset>6</bitOffset>
              <bitWidth>1</bitWidth>
            </field>
            <field>
              <name>FREQ</name>
              <description>Clock divider select</description>
              <bitOffset>8</bitOffset>
              <bitWidth>4</bitWidth>
            </field>
          </fields>
        </register>
        <register>
          <name>SR</name>
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
      </registers>
    </peripheral>
    <peripheral derivedFrom="SPI1">
      <name>SPI2</name>
      <baseAddress>0x40013800</baseAddress>
    </peripheral>
  </peripherals>
</device>
`

func newTestSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()

	root, err := svd.Parse(strings.NewReader(sampleSVD))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	dev, err := model.Build(root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := model.Validate(dev); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	plans, err := plan.Device(dev)
	if err != nil {
		t.Fatalf("plan.Device: %v", err)
	}

	var buf bytes.Buffer
	return &session{
		insp: inspect.NewInspector(dev, plans),
		fmtr: inspect.NewFormatter(),
		out:  &buf,
	}, &buf
}

// runLine dispatches one line and returns the output it produced.
func runLine(t *testing.T, s *session, buf *bytes.Buffer, line string) string {
	t.Helper()
	buf.Reset()
	if s.dispatch(line) {
		t.Fatalf("dispatch(%q) requested exit", line)
	}
	return buf.String()
}

func TestDispatchTree(t *testing.T) {
	s, buf := newTestSession(t)
	out := runLine(t, s, buf, "tree")

	wants := []string{
		"Device: MYDEV (32-bit)",
		"SPI1 @ 0x40013000: Serial peripheral interface",
		"CR @ 0x0 [read-write] reset 0x0",
		"SPE [6:6] bool read-write",
		"TC [0:0] bool read-write, clears on write",
		"SR @ 0x4 [read-only]",
		"SPI2 @ 0x40013800: derived from SPI1",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("tree output missing %q:\n%s", want, out)
		}
	}
}

func TestDispatchShow(t *testing.T) {
	s, buf := newTestSession(t)

	out := runLine(t, s, buf, "show spi1.cr.spe")
	for _, want := range []string{
		"SPI1.CR.SPE [6:6] bool read-write",
		"Serial peripheral enable",
		"mask 0x40, shift 6",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show field output missing %q:\n%s", want, out)
		}
	}

	out = runLine(t, s, buf, "show SPI1.CR")
	for _, want := range []string{
		"SPI1.CR @ 0x0 [read-write] reset 0x0",
		"always cleared on commit: 0x1",
		"fields:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show register output missing %q:\n%s", want, out)
		}
	}

	out = runLine(t, s, buf, "show spi2")
	if !strings.Contains(out, "derived from: SPI1") {
		t.Errorf("show peripheral output missing derivation:\n%s", out)
	}
}

func TestDispatchDecode(t *testing.T) {
	s, buf := newTestSession(t)
	out := runLine(t, s, buf, "decode SPI1.CR 0x42")

	wants := []string{
		"TC [0:0] = false",
		"PARITY [3:2] = 0x0 (NONE)",
		"SPE [6:6] = true",
		"FREQ [11:8] = 0x0",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("decode output missing %q:\n%s", want, out)
		}
	}
}

func TestDispatchCommitMerge(t *testing.T) {
	s, buf := newTestSession(t)
	out := runLine(t, s, buf, "commit SPI1.CR merge 0x81 SPE=1 FREQ=3")

	wants := []string{
		"mode: merge",
		"staged value 0x340, mask 0xf40",
		"always-cleared mask 0x1 applied",
		"current 0x81, written value 0x3c0",
		"hardware cost: 1 read(s), 1 write(s)",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("commit output missing %q:\n%s", want, out)
		}
	}
}

func TestDispatchCommitOverwrite(t *testing.T) {
	s, buf := newTestSession(t)
	out := runLine(t, s, buf, "commit spi1.cr overwrite 0xffffffff SPE=true")

	wants := []string{
		"mode: overwrite",
		"staged value 0x40, mask 0x40",
		"written value 0x40",
		"hardware cost: 0 read(s), 1 write(s)",
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("commit output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "current") {
		t.Errorf("overwrite report should not mention the current word:\n%s", out)
	}
}

func TestDispatchFind(t *testing.T) {
	s, buf := newTestSession(t)

	// The quoted phrase must survive argument splitting as one query.
	out := runLine(t, s, buf, `find "clock divider"`)
	if !strings.Contains(out, "SPI1.CR.FREQ (field): Clock divider select") {
		t.Errorf("quoted find missed FREQ:\n%s", out)
	}
	if strings.Contains(out, "SPE") {
		t.Errorf("quoted find matched too much:\n%s", out)
	}

	// Unquoted words join back into the same query.
	if joined := runLine(t, s, buf, "find clock divider"); joined != out {
		t.Errorf("unquoted find differs:\n%s\nvs\n%s", joined, out)
	}

	out = runLine(t, s, buf, "find nosuchthing")
	if out != "no matches\n" {
		t.Errorf("find without hits = %q", out)
	}
}

func TestDispatchErrorsContinue(t *testing.T) {
	s, buf := newTestSession(t)

	tests := []struct {
		line string
		want string
	}{
		{"show NOPE", "peripheral not found"},
		{"show SPI1.CR.SPE.X", "Error:"},
		{"decode SPI1.CR zz", "Invalid word"},
		{"decode SPI1 0x0", "names a peripheral"},
		{"commit SPI1.SR merge 0x0 BUSY=1", "not writable"},
		{"commit SPI1.CR sideways 0x0 SPE=1", `Mode "sideways"`},
		{"commit SPI1.CR merge 0x0 FREQ=0x10", "does not fit"},
		{"blargh", "Unknown command: blargh"},
	}
	for _, tt := range tests {
		out := runLine(t, s, buf, tt.line)
		if !strings.Contains(out, tt.want) {
			t.Errorf("dispatch(%q) = %q, want substring %q", tt.line, out, tt.want)
		}
	}
}

func TestDispatchUsage(t *testing.T) {
	s, buf := newTestSession(t)

	tests := []struct {
		line string
		want string
	}{
		{"show", "Usage: show"},
		{"decode SPI1.CR", "Usage: decode"},
		{"commit SPI1.CR merge 0x0", "Usage: commit"},
		{"find", "Usage: find"},
	}
	for _, tt := range tests {
		out := runLine(t, s, buf, tt.line)
		if !strings.Contains(out, tt.want) {
			t.Errorf("dispatch(%q) = %q, want substring %q", tt.line, out, tt.want)
		}
	}
}

func TestDispatchQuit(t *testing.T) {
	s, buf := newTestSession(t)

	for _, line := range []string{"exit", "quit", "q"} {
		if !s.dispatch(line) {
			t.Errorf("dispatch(%q) should request exit", line)
		}
	}
	if s.dispatch("tree") {
		t.Error("dispatch(tree) should not request exit")
	}

	buf.Reset()
	if s.dispatch("   ") {
		t.Error("blank line should not request exit")
	}
	if buf.Len() != 0 {
		t.Errorf("blank line produced output %q", buf.String())
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.svd")
	if err := os.WriteFile(path, []byte(sampleSVD), 0o644); err != nil {
		t.Fatal(err)
	}

	insp, err := load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := insp.Device().Name; got != "MYDEV" {
		t.Errorf("device name = %q, want MYDEV", got)
	}

	if _, err := load(filepath.Join(dir, "missing.svd")); err == nil {
		t.Error("load of missing file should fail")
	}
}
