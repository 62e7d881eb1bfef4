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
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/yugabyte/db-anonymizer/src/errs"
)

type tomlDocument struct {
	Packs  []string                        `toml:"packs"`
	Tables map[string]map[string]rawTarget `toml:"tables"`
}

// loadTOML reads
//
//	packs = ["packs/acme.yaml"]
//	[tables.users.email]
//	anonymizer = "email"
//	options = { domain = "example.org" }
//
// Declaration order comes from the decoder metadata.
func loadTOML(data []byte) (*Config, error) {
	var doc tomlDocument
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, errs.NewConfigurationError("invalid TOML: %s", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errs.NewConfigurationError("unknown key %q", undecoded[0].String())
	}

	var tableOrder []string
	targetOrder := make(map[string][]string)
	optionOrder := make(map[[2]string][]string)
	seenTables := make(map[string]bool)
	seenTargets := make(map[[2]string]bool)
	for _, key := range md.Keys() {
		// implicit parents such as [tables.users] are not always reported,
		// so order is taken from the first key mentioning each name
		if len(key) < 2 || key[0] != "tables" {
			continue
		}
		if !seenTables[key[1]] {
			seenTables[key[1]] = true
			tableOrder = append(tableOrder, key[1])
		}
		if len(key) < 3 {
			continue
		}
		target := [2]string{key[1], key[2]}
		if !seenTargets[target] {
			seenTargets[target] = true
			targetOrder[key[1]] = append(targetOrder[key[1]], key[2])
		}
		if len(key) == 5 && key[3] == "options" {
			optionOrder[target] = append(optionOrder[target], key[4])
		}
	}

	cfg := NewConfig()
	cfg.Packs = doc.Packs
	for _, table := range orderedKeys(doc.Tables, tableOrder) {
		targets := doc.Tables[table]
		for _, target := range orderedKeys(targets, targetOrder[table]) {
			raw := targets[target]
			err = cfg.Add(AnonymizerConfig{
				Table:      table,
				Target:     target,
				Anonymizer: raw.Anonymizer,
				Options:    NewOptions(normalize(raw.Options).(map[string]interface{}), optionOrder[[2]string{table, target}]...),
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

// orderedKeys returns the keys of m following order first, then any key the
// metadata did not report, sorted.
func orderedKeys[V any](m map[string]V, order []string) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range order {
		if _, ok := m[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
