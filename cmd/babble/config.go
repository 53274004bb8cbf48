package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the babble configuration file (~/.config/babble/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	CorporaDir string `yaml:"corpora_dir"`

	// Generation defaults
	Length            *int64 `yaml:"length"`
	Seed              *int64 `yaml:"seed"`
	RetainOnReadError *bool  `yaml:"retain_on_read_error"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxLength     *int64 `yaml:"max_length"`
}

// fileConfig is loaded once by the root command's Before hook.
var fileConfig Config

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "babble", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// applyLoggingConfig fills logging variables the user did not set on the
// command line.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applySessionConfig applies config file defaults to the session flags of
// run and serve.
func applySessionConfig(c *cli.Command, cfg Config) {
	if cfg.CorporaDir != "" && !c.IsSet("corpora-dir") {
		corporaDirFlag = cfg.CorporaDir
	}
	if cfg.Length != nil && !c.IsSet("length") {
		length = *cfg.Length
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		seed = *cfg.Seed
	}
	if cfg.RetainOnReadError != nil && !c.IsSet("retain-on-read-error") {
		retainOnReadError = *cfg.RetainOnReadError
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxLength *int64) {
	applySessionConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxLength != nil && !c.IsSet("max-length") {
		*maxLength = *cfg.MaxLength
	}
}
