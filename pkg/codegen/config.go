package codegen

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHwioImport is the runtime package emitted accessor code loads
// and stores registers through.
const DefaultHwioImport = "github.com/svdmap/svdmap-go/pkg/hwio"

// Config steers emission. The zero value generates everything with the
// default runtime import; a YAML file and command line flags layer on
// top of it.
type Config struct {
	// ImportRoot is the import path the emitted device tree lives
	// under. Accessor packages import the mmap package relative to it.
	ImportRoot string `yaml:"importRoot"`

	// OutDir is where the rendered tree is written. Emission itself
	// never reads it; it is carried here so file and flag handling
	// share one struct.
	OutDir string `yaml:"outDir"`

	// HwioImport overrides the runtime import path.
	HwioImport string `yaml:"hwioImport"`

	// Include restricts emission to the named peripherals. Empty means
	// all. A derived peripheral follows its base: it is emitted only
	// when the base peripheral is.
	Include []string `yaml:"include"`

	// Exclude drops the named peripherals. Applied after Include.
	Exclude []string `yaml:"exclude"`

	// Source is the display name of the input description and Sum its
	// BLAKE2b-256 fingerprint, both stamped into every emitted file
	// header. Filled by the caller, not the config file.
	Source string `yaml:"-"`
	Sum    string `yaml:"-"`
}

// ParseConfig parses a generation config from YAML bytes.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads and parses a generation config from a file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseConfig(data)
}

// hwioImport returns the configured runtime import path or the default.
func (c Config) hwioImport() string {
	if c.HwioImport != "" {
		return c.HwioImport
	}
	return DefaultHwioImport
}

// allows reports whether the named peripheral passes the include and
// exclude filters. Names match case-insensitively, like everywhere
// else names from descriptions are compared.
func (c Config) allows(name string) bool {
	if len(c.Include) > 0 && !containsFold(c.Include, name) {
		return false
	}
	return !containsFold(c.Exclude, name)
}

func containsFold(list []string, name string) bool {
	for _, s := range list {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}
