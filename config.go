package main

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"
)

// config.go - optional YAML conversion options, loaded the same way
// davejbax/pixie's cmd/pixie/config.go loads its own config: viper reads
// the file, creasty/defaults fills in zero-value fields first, then
// viper.Unmarshal overlays whatever the file actually set.

// Config holds the conversion options a caller may override via
// --config. Absent a config file, the defaults tag values apply.
type Config struct {
	OutputSectionName   string `mapstructure:"output_section_name" default:"soda"`
	EnableInitFiniArray bool   `mapstructure:"enable_init_fini_array" default:"true"`
	Verbosity           int    `mapstructure:"verbosity" default:"0"`
}

// LoadConfig returns the default Config if path is empty, or the config
// read from path with defaults filled in for anything the file omits.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("setting config defaults: %w", err)
	}

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config from %q: %w", path, err)
	}

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %q: %w", path, err)
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}
