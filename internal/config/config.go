// Package config handles loading and parsing application configuration.
// It supports three sources (in priority order):
//  1. A command-line flag:      --config=/path/to/config.yaml
//  2. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  3. No file at all — every value then comes from the environment or
//     from its env-default.
//
// Individual values can always be overridden by their own environment
// variable (STORAGE_PATH, STORAGE_BACKEND, ...), even when a file is used.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev" validate:"oneof=dev staging prod"`

	// Storage is embedded (not a pointer) so cfg.Storage.Path is always
	// safe to read.
	Storage Storage `yaml:"storage"`

	// ConfirmWord is what the user must type to confirm a deletion.
	ConfirmWord string `yaml:"confirm_word" env:"CONFIRM_WORD" env-default:"YES" validate:"required"`
}

// Storage holds settings for the persisted student table.
// Nested under storage: in the YAML file.
type Storage struct {
	// Backend selects the file format: "csv" (default) or "sqlite".
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"csv" validate:"oneof=csv sqlite"`

	// Path is the filesystem path of the table file.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"dados_alunos.csv" validate:"required"`
}

// Load reads, validates, and returns the application config.
//
// An empty path means "no config file": cleanenv then fills the struct
// from environment variables and env-default tags only.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
	} else {
		// Verify the file exists before trying to read it, for a clearer
		// message than a bare "open: no such file".
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		// cleanenv.ReadConfig reads the YAML file, then applies env
		// overrides and env-default values.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %w", path, err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
