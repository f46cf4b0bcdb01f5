// cmd/cfstore/config.go
package main

import (
	"fmt"

	"github.com/spf13/viper"
)

// fileConfig holds the subset of store options that can be set from an
// optional YAML config file (--config), layered under whatever flags the
// invoked subcommand also accepts.
type fileConfig struct {
	Backend      string `mapstructure:"backend"`
	VerifyOnRead bool   `mapstructure:"verify_on_read"`
	FlushAtWrite bool   `mapstructure:"flush_at_write"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &fileConfig{Backend: "file"}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
