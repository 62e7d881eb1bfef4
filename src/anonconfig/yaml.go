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

	"gopkg.in/yaml.v3"

	"github.com/yugabyte/db-anonymizer/src/errs"
)

// loadYAML walks the document node by node: plain map decoding would lose
// the declaration order of tables and targets.
//
//	packs: [packs/acme.yaml]
//	tables:
//	  users:
//	    email: {anonymizer: email, options: {domain: example.org}}
func loadYAML(data []byte) (*Config, error) {
	var doc yaml.Node
	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, errs.NewConfigurationError("invalid YAML: %s", err)
	}
	cfg := NewConfig()
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errs.NewConfigurationError("top level must be a mapping, line %d", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		switch key {
		case "packs":
			err = value.Decode(&cfg.Packs)
			if err != nil {
				return nil, errs.NewConfigurationError("packs: %s", err)
			}
		case "tables":
			err = loadYAMLTables(cfg, value)
			if err != nil {
				return nil, err
			}
		default:
			return nil, errs.NewConfigurationError("unknown top level key %q, line %d", key, root.Content[i].Line)
		}
	}
	return cfg, nil
}

func loadYAMLTables(cfg *Config, tables *yaml.Node) error {
	if tables.Kind != yaml.MappingNode {
		return errs.NewConfigurationError("tables must be a mapping, line %d", tables.Line)
	}
	for i := 0; i+1 < len(tables.Content); i += 2 {
		table, targets := tables.Content[i].Value, tables.Content[i+1]
		if targets.Kind != yaml.MappingNode {
			return errs.NewConfigurationError("targets must be a mapping, line %d", targets.Line).WithTarget(table, "", "")
		}
		for j := 0; j+1 < len(targets.Content); j += 2 {
			target, node := targets.Content[j].Value, targets.Content[j+1]
			var raw rawTarget
			err := node.Decode(&raw)
			if err != nil {
				return errs.NewConfigurationError("line %d: %s", node.Line, err).WithTarget(table, target, "")
			}
			err = cfg.Add(AnonymizerConfig{
				Table:      table,
				Target:     target,
				Anonymizer: raw.Anonymizer,
				Options:    NewOptions(normalize(raw.Options).(map[string]interface{}), yamlOptionOrder(node)...),
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func yamlOptionOrder(target *yaml.Node) []string {
	if target.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(target.Content); i += 2 {
		if target.Content[i].Value != "options" || target.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		var order []string
		options := target.Content[i+1]
		for j := 0; j < len(options.Content); j += 2 {
			order = append(order, options.Content[j].Value)
		}
		return order
	}
	return nil
}

// normalize converts nested maps produced by the decoders into
// map[string]interface{} so that Options.Sub can read them.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			if item == nil {
				out[k] = nil
				continue
			}
			out[k] = normalizeValue(item)
		}
		return out
	}
	return v
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return normalize(val)
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
