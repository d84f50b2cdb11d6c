package inspect

import (
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Path
		wantErr bool
	}{
		{
			name:  "field path",
			input: "SPI1.CR.SPE",
			want: &Path{
				Peripheral: "SPI1",
				Register:   "CR",
				Field:      "SPE",
			},
		},
		{
			name:  "register path",
			input: "SPI1.CR",
			want: &Path{
				Peripheral: "SPI1",
				Register:   "CR",
			},
		},
		{
			name:  "peripheral only",
			input: "SPI1",
			want: &Path{
				Peripheral: "SPI1",
			},
		},
		{
			name:  "surrounding whitespace",
			input: "  wdt.key  ",
			want: &Path{
				Peripheral: "wdt",
				Register:   "key",
			},
		},
		{
			name:    "empty path",
			input:   "",
			wantErr: true,
		},
		{
			name:    "too many segments",
			input:   "a.b.c.d",
			wantErr: true,
		},
		{
			name:    "leading dot",
			input:   ".CR",
			wantErr: true,
		},
		{
			name:    "empty segment",
			input:   "SPI1..SPE",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got.Peripheral != tt.want.Peripheral {
				t.Errorf("Peripheral = %q, want %q", got.Peripheral, tt.want.Peripheral)
			}
			if got.Register != tt.want.Register {
				t.Errorf("Register = %q, want %q", got.Register, tt.want.Register)
			}
			if got.Field != tt.want.Field {
				t.Errorf("Field = %q, want %q", got.Field, tt.want.Field)
			}
		})
	}
}

func TestPathDepth(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"SPI1", 1},
		{"SPI1.CR", 2},
		{"SPI1.CR.SPE", 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePath(tt.input)
			if err != nil {
				t.Fatalf("ParsePath(%q) failed: %v", tt.input, err)
			}
			if got := p.Depth(); got != tt.want {
				t.Errorf("Depth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPathString(t *testing.T) {
	tests := []struct {
		name string
		path *Path
		want string
	}{
		{
			name: "field path",
			path: &Path{Peripheral: "SPI1", Register: "CR", Field: "SPE"},
			want: "SPI1.CR.SPE",
		},
		{
			name: "register path",
			path: &Path{Peripheral: "SPI1", Register: "CR"},
			want: "SPI1.CR",
		},
		{
			name: "peripheral only",
			path: &Path{Peripheral: "SPI1"},
			want: "SPI1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.path.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
