package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/rig"
)

// Config holds the civctl settings. It is filled from an optional YAML
// file first; flags given on the command line override it.
type Config struct {
	Model        string        `yaml:"model"`
	Port         string        `yaml:"port"`
	Rate         int           `yaml:"rate"`
	Address      string        `yaml:"address"`
	Transceive   string        `yaml:"transceive"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	Retry        int           `yaml:"retry"`
	OpenAttempts int           `yaml:"open_attempts"`
	ProtocolLog  string        `yaml:"protocol_log"`
	StateFile    string        `yaml:"state_file"`
	LogLevel     string        `yaml:"log_level"`

	// Not read from the config file.
	ConfigFile  string `yaml:"-"`
	Interactive bool   `yaml:"-"`
	Simulate    bool   `yaml:"-"`
}

// DefaultConfig returns the settings used when neither file nor flags say
// otherwise.
func DefaultConfig() Config {
	return Config{
		Model:      "ICR-8500",
		Port:       "/dev/ttyUSB0",
		Transceive: "off",
		LogLevel:   "info",
	}
}

// LoadConfigFile merges the YAML file at path into cfg. Keys absent from
// the file keep their current value.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Descriptor resolves the configured model in the default registry.
func (c *Config) Descriptor() (*caps.Descriptor, error) {
	d, ok := caps.Default().LookupName(c.Model)
	if !ok {
		return nil, fmt.Errorf("unknown model %q (see 'civctl models')", c.Model)
	}
	return d, nil
}

// ParseAddress parses a CI-V address in hex ("4a", "0x4a"). An empty
// string returns 0, which selects the model default.
func ParseAddress(s string) (byte, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 8)
	if err != nil || v == 0 || v > 0xdf {
		return 0, fmt.Errorf("invalid CI-V address %q (hex 01..df)", s)
	}
	return byte(v), nil
}

// Validate checks the settings that can be checked before opening the rig.
func (c *Config) Validate() error {
	if _, err := c.Descriptor(); err != nil {
		return err
	}
	if _, err := ParseAddress(c.Address); err != nil {
		return err
	}
	if _, err := rig.ParseTransceivePolicy(c.Transceive); err != nil {
		return err
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %d", c.Rate)
	}
	if c.Retry < 0 {
		return fmt.Errorf("retry must not be negative, got %d", c.Retry)
	}
	if !c.Simulate && c.Port == "" {
		return fmt.Errorf("port is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// RigOptions converts the settings into rig options. Loggers, openers and
// callbacks are left to the caller.
func (c *Config) RigOptions() (rig.Options, error) {
	addr, err := ParseAddress(c.Address)
	if err != nil {
		return rig.Options{}, err
	}
	policy, err := rig.ParseTransceivePolicy(c.Transceive)
	if err != nil {
		return rig.Options{}, err
	}
	return rig.Options{
		Path:         c.Port,
		Rate:         c.Rate,
		Address:      addr,
		Timeout:      c.Timeout,
		Retry:        c.Retry,
		Transceive:   policy,
		PollInterval: c.PollInterval,
		OpenAttempts: c.OpenAttempts,
	}, nil
}
