// Copyright 2025 readrum Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the optional readrum.yaml tool configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"readrum/internal/extract"
	"readrum/internal/patch"
	"readrum/internal/rpl"
)

// EnvConfigPath overrides the config file location; --config wins over it.
const EnvConfigPath = "READRUM_CONFIG"

// DefaultFileName is looked for in the working directory when nothing else
// is specified.
const DefaultFileName = "readrum.yaml"

// Config tunes the extraction heuristics and the write path.
type Config struct {
	MinTokenLength int      `yaml:"min-token-length"` // default: 20
	Extensions     []string `yaml:"extensions"`       // default: wav aif aiff aifc flac ogg mp3 sfz
	BackupSuffix   string   `yaml:"backup-suffix"`    // default: ".bak"
	Logging        string   `yaml:"logging"`          // none, error, warn, info, debug (case insensitive)
}

// ApplyDefaults fills zero-value fields with their defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.MinTokenLength <= 0 {
		cfg.MinTokenLength = rpl.DefaultMinTokenLen
	}
	if cfg.Extensions == nil {
		cfg.Extensions = extract.DefaultExtensions
	}
	if cfg.BackupSuffix == "" {
		cfg.BackupSuffix = patch.DefaultBackupSuffix
	}
	if cfg.Logging == "" {
		cfg.Logging = "warn"
	}
}

// ExtractOptions maps the config onto extraction options.
func (cfg *Config) ExtractOptions() extract.Options {
	return extract.Options{
		Extensions:  cfg.Extensions,
		MinTokenLen: cfg.MinTokenLength,
	}
}

// Load reads the config file. Resolution order: explicit path, then
// READRUM_CONFIG, then ./readrum.yaml if present, then pure defaults. A
// missing explicit path is an error; a missing default path is not.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultFileName
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
