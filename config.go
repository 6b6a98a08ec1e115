package dx7fm

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/cbegin/dx7fm-go/internal/effects"
)

// DefaultBankFile is looked up in ModuleDir when no bank path is configured.
const DefaultBankFile = "patches.syx"

// Config holds startup defaults. Hosts usually pass them as a small JSON
// object, which parses as YAML flow syntax.
type Config struct {
	SyxPath         string `yaml:"syx_path"`
	ModuleDir       string `yaml:"module_dir"`
	Preset          *int   `yaml:"preset"`
	OctaveTranspose int    `yaml:"octave_transpose"`
	OutputLevel     *int   `yaml:"output_level"`

	Effects effects.Settings `yaml:"effects"`
}

// ParseConfig decodes a YAML or JSON defaults blob. An empty blob yields the
// zero Config.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	return c, nil
}

// LoadConfig reads and parses a config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	c, err := ParseConfig(data)
	if err != nil {
		return Config{}, errors.WithMessage(err, path)
	}
	return c, nil
}

// BankPath returns SyxPath, else DefaultBankFile inside ModuleDir, else "".
func (c Config) BankPath() string {
	if c.SyxPath != "" {
		return c.SyxPath
	}
	if c.ModuleDir != "" {
		return filepath.Join(c.ModuleDir, DefaultBankFile)
	}
	return ""
}
