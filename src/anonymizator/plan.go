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
package anonymizator

import (
	"strings"

	"github.com/samber/lo"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/errs"
)

// Selection restricts a run to part of the configuration. Entries are either
// "<table>" or "<table>.<target>". Excluded and Only are mutually exclusive.
type Selection struct {
	Excluded []string
	Only     []string
	// AtOnce runs all targets of a table in one UPDATE instead of one
	// UPDATE per target.
	AtOnce bool
}

// TablePlan lists the targets of one table, in configuration order.
type TablePlan struct {
	Table   string
	Targets []anonconfig.AnonymizerConfig
}

func (tp TablePlan) TargetNames() []string {
	return lo.Map(tp.Targets, func(t anonconfig.AnonymizerConfig, _ int) string { return t.Target })
}

type selector struct {
	table  string
	target string // empty for the whole table
}

func (s selector) matches(ac anonconfig.AnonymizerConfig) bool {
	return s.table == ac.Table && (s.target == "" || s.target == ac.Target)
}

// parseSelector resolves entry against cfg. Table names may themselves be
// schema qualified, so an exact table match wins over a table.target split.
func parseSelector(cfg *anonconfig.Config, entry string) (selector, error) {
	if cfg.HasTable(entry) {
		return selector{table: entry}, nil
	}
	if i := strings.LastIndex(entry, "."); i > 0 {
		table, target := entry[:i], entry[i+1:]
		if _, ok := cfg.Get(table, target); ok {
			return selector{table: table, target: target}, nil
		}
	}
	return selector{}, errs.NewSelectionError("%q is neither a configured table nor a configured <table>.<target>", entry)
}

func parseSelectors(cfg *anonconfig.Config, entries []string) ([]selector, error) {
	var selectors []selector
	for _, entry := range entries {
		s, err := parseSelector(cfg, entry)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, s)
	}
	return selectors, nil
}

// Plan resolves sel against cfg into the ordered list of tables to process.
// Tables without any selected target are left out.
func Plan(cfg *anonconfig.Config, sel Selection) ([]TablePlan, error) {
	if len(sel.Excluded) > 0 && len(sel.Only) > 0 {
		return nil, errs.NewSelectionError("excluded and only targets cannot be combined")
	}
	excluded, err := parseSelectors(cfg, sel.Excluded)
	if err != nil {
		return nil, err
	}
	only, err := parseSelectors(cfg, sel.Only)
	if err != nil {
		return nil, err
	}

	selected := func(ac anonconfig.AnonymizerConfig) bool {
		if len(only) > 0 {
			return lo.SomeBy(only, func(s selector) bool { return s.matches(ac) })
		}
		return !lo.SomeBy(excluded, func(s selector) bool { return s.matches(ac) })
	}

	var plan []TablePlan
	for _, table := range cfg.Tables() {
		targets := lo.Filter(cfg.Targets(table), func(ac anonconfig.AnonymizerConfig, _ int) bool {
			return selected(ac)
		})
		if len(targets) == 0 {
			continue
		}
		plan = append(plan, TablePlan{Table: table, Targets: targets})
	}
	return plan, nil
}
