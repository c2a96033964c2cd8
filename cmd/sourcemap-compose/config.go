package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the shape of an optional --config TOML file: named chains of
// source map paths a caller can invoke by name instead of listing every
// file on the command line each time.
type Config struct {
	Chains map[string][]string `toml:"chains"`
}

// LoadConfig reads and decodes a TOML config file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return &cfg, nil
}

// Resolve returns the ordered list of map paths for a named chain.
func (c *Config) Resolve(name string) ([]string, error) {
	paths, ok := c.Chains[name]
	if !ok {
		return nil, fmt.Errorf("no chain named %q in config", name)
	}
	return paths, nil
}
