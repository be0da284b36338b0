package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/pulse/internal/sampler"
	"github.com/Dicklesworthstone/pulse/internal/store"
)

// Config carries runtime options for pulse.
type Config struct {
	Interval          time.Duration `yaml:"interval"`
	StatePath         string        `yaml:"state_path"`
	Namespace         string        `yaml:"namespace"`
	Volume            string        `yaml:"volume"`
	InterfacePrefixes []string      `yaml:"interface_prefixes"`
	PowerSupplyDir    string        `yaml:"power_supply_dir"`
	EnableBattery     bool          `yaml:"battery"`
	EnableApps        bool          `yaml:"apps"`
	LogLevel          string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Interval:          time.Second,
		StatePath:         defaultStatePath(),
		Namespace:         store.DefaultNamespace,
		Volume:            "/",
		InterfacePrefixes: append([]string(nil), sampler.DefaultInterfacePrefixes...),
		PowerSupplyDir:    sampler.DefaultPowerSupplyDir,
		EnableBattery:     true,
		EnableApps:        true,
		LogLevel:          "warn",
	}
}

// DefaultPath is where Load looks when no --config is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pulse.yaml"
	}
	return filepath.Join(home, ".config", "pulse", "config.yaml")
}

func defaultStatePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "pulse", "state.db")
	}
	return filepath.Join(os.TempDir(), "pulse-state.db")
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PULSE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			c.Interval = parsed
		}
	}
	if v := os.Getenv("PULSE_STATE"); v != "" {
		c.StatePath = v
	}
	if v := os.Getenv("PULSE_BATTERY"); v == "0" {
		c.EnableBattery = false
	}
	if v := os.Getenv("PULSE_APPS"); v == "0" {
		c.EnableApps = false
	}
	if v := os.Getenv("PULSE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// BindFlags registers the command-line overrides on fs.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Duration("interval", d.Interval, "refresh interval")
	fs.String("state", d.StatePath, "sqlite file holding the network baseline")
	fs.String("volume", d.Volume, "volume whose capacity is reported")
	fs.StringSlice("interfaces", d.InterfacePrefixes, "interface name prefixes counted for throughput")
	fs.Bool("battery", d.EnableBattery, "enable battery sampling")
	fs.Bool("apps", d.EnableApps, "enable application list sampling")
	fs.String("log-level", d.LogLevel, "debug|info|warn|error")
}

// ApplyFlags copies only the flags the user set, so flags win over the file
// and the environment without clobbering them with defaults.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("interval") {
		if c.Interval, err = fs.GetDuration("interval"); err != nil {
			return err
		}
	}
	if fs.Changed("state") {
		if c.StatePath, err = fs.GetString("state"); err != nil {
			return err
		}
	}
	if fs.Changed("volume") {
		if c.Volume, err = fs.GetString("volume"); err != nil {
			return err
		}
	}
	if fs.Changed("interfaces") {
		if c.InterfacePrefixes, err = fs.GetStringSlice("interfaces"); err != nil {
			return err
		}
	}
	if fs.Changed("battery") {
		if c.EnableBattery, err = fs.GetBool("battery"); err != nil {
			return err
		}
	}
	if fs.Changed("apps") {
		if c.EnableApps, err = fs.GetBool("apps"); err != nil {
			return err
		}
	}
	if fs.Changed("log-level") {
		if c.LogLevel, err = fs.GetString("log-level"); err != nil {
			return err
		}
	}
	return c.Validate()
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if strings.TrimSpace(c.StatePath) == "" {
		return fmt.Errorf("state path is empty")
	}
	if len(c.InterfacePrefixes) == 0 {
		return fmt.Errorf("at least one interface prefix is required")
	}
	return nil
}
