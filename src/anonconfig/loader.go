/*
Copyright (c) YugabyteDB, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package anonconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/errs"
)

const (
	FORMAT_YAML = "yaml"
	FORMAT_TOML = "toml"
)

// LoadFile reads an anonymization configuration from a YAML or TOML file.
// BasePath defaults to the directory of the file; pack paths are resolved
// against it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read anonymization config %q: %w", path, err)
	}
	format, err := formatFromPath(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(data, format)
	if err != nil {
		return nil, fmt.Errorf("load anonymization config %q: %w", path, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}
	cfg.BasePath = filepath.Dir(absPath)
	for i, p := range cfg.Packs {
		if !filepath.IsAbs(p) {
			cfg.Packs[i] = filepath.Join(cfg.BasePath, p)
		}
	}
	log.Infof("loaded anonymization config %q: %d table(s), %d target(s)", path, len(cfg.Tables()), cfg.Count())
	return cfg, nil
}

func Load(data []byte, format string) (*Config, error) {
	switch format {
	case FORMAT_YAML:
		return loadYAML(data)
	case FORMAT_TOML:
		return loadTOML(data)
	default:
		return nil, errs.NewConfigurationError("unsupported configuration format %q", format)
	}
}

func formatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FORMAT_YAML, nil
	case ".toml":
		return FORMAT_TOML, nil
	}
	return "", errs.NewConfigurationError("cannot guess configuration format of %q, use .yaml, .yml or .toml", path)
}

type rawTarget struct {
	Anonymizer string                 `yaml:"anonymizer" toml:"anonymizer"`
	Options    map[string]interface{} `yaml:"options" toml:"options"`
}
