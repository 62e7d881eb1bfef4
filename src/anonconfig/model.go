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
	"github.com/yugabyte/db-anonymizer/src/errs"
)

// AnonymizerConfig binds one anonymizer to one target of a table. Target is
// a column name for column anonymizers and a free label for table-level ones.
type AnonymizerConfig struct {
	Table      string
	Target     string
	Anonymizer string
	Options    Options
}

// Config maps tables to their ordered anonymizer targets. Table and target
// order follow the declaration order of the source.
type Config struct {
	// BasePath is used to resolve relative sample file paths.
	BasePath string
	// Packs lists extension pack files declared by the configuration.
	Packs []string

	tables  []string
	targets map[string][]AnonymizerConfig
}

func NewConfig() *Config {
	return &Config{targets: make(map[string][]AnonymizerConfig)}
}

func (c *Config) Add(ac AnonymizerConfig) error {
	if ac.Table == "" {
		return errs.NewConfigurationError("table name is empty")
	}
	if ac.Target == "" {
		return errs.NewConfigurationError("target name is empty").WithTarget(ac.Table, "", "")
	}
	if ac.Anonymizer == "" {
		return errs.NewConfigurationError("anonymizer is not set").WithTarget(ac.Table, ac.Target, "")
	}
	if _, exists := c.Get(ac.Table, ac.Target); exists {
		return errs.NewConfigurationError("target is declared twice").WithTarget(ac.Table, ac.Target, "")
	}
	if _, ok := c.targets[ac.Table]; !ok {
		c.tables = append(c.tables, ac.Table)
	}
	c.targets[ac.Table] = append(c.targets[ac.Table], ac)
	return nil
}

func (c *Config) Tables() []string {
	return append([]string(nil), c.tables...)
}

func (c *Config) HasTable(table string) bool {
	_, ok := c.targets[table]
	return ok
}

func (c *Config) Targets(table string) []AnonymizerConfig {
	return append([]AnonymizerConfig(nil), c.targets[table]...)
}

func (c *Config) Get(table, target string) (AnonymizerConfig, bool) {
	for _, ac := range c.targets[table] {
		if ac.Target == target {
			return ac, true
		}
	}
	return AnonymizerConfig{}, false
}

// Count returns the number of targets over all tables.
func (c *Config) Count() int {
	n := 0
	for _, t := range c.targets {
		n += len(t)
	}
	return n
}
