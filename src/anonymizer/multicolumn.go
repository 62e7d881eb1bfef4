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
package anonymizer

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

type columnMapping struct {
	sample string
	target string
}

// multiColumnAnonymizer fills several columns of a row from the same sample
// row, keeping them consistent with each other.
type multiColumnAnonymizer struct {
	base
	sampler *Sampler
	mapping []columnMapping
}

func (a *multiColumnAnonymizer) Shape() Shape {
	return SHAPE_TABLE_LEVEL
}

func (a *multiColumnAnonymizer) Initialize(ctx context.Context) error {
	return a.sampler.Initialize(ctx)
}

func (a *multiColumnAnonymizer) Clean(ctx context.Context) error {
	return a.sampler.Clean(ctx)
}

func (a *multiColumnAnonymizer) SampleColumns() []string {
	return a.sampler.Columns()
}

func (a *multiColumnAnonymizer) JoinSample(ctx context.Context, u *sqlbuilder.Update, alias string) (JoinedSample, error) {
	return a.sampler.Join(ctx, u, alias)
}

func (a *multiColumnAnonymizer) Anonymize(ctx context.Context, u *sqlbuilder.Update) error {
	joined, err := a.JoinSample(ctx, u, alias(a.table, a.target))
	if err != nil {
		return err
	}
	for _, m := range a.mapping {
		err = setFromSample(u, m.target, joined, m.sample)
		if err != nil {
			return err
		}
	}
	return nil
}

// readMapping reads "<sample column>: <target column>" options for the
// given sample columns, skipping reserved keys.
func readMapping(o anonconfig.Options, columns []string, reserved ...string) ([]columnMapping, error) {
	var mapping []columnMapping
	targets := make(map[string]string)
	for _, key := range o.Keys() {
		if lo.Contains(reserved, key) {
			continue
		}
		if !lo.Contains(columns, key) {
			return nil, errs.NewConfigurationError("unknown sample column %q (expected one of: %s)", key, strings.Join(columns, ", "))
		}
		target, err := o.String(key, "", true)
		if err != nil {
			return nil, err
		}
		if other, ok := targets[target]; ok {
			return nil, errs.NewConfigurationError("sample columns %q and %q are both mapped to column %q", other, key, target)
		}
		targets[target] = key
		mapping = append(mapping, columnMapping{sample: key, target: target})
	}
	if len(mapping) == 0 {
		return nil, errs.NewConfigurationError("no sample column is mapped to a table column (sample columns: %s)", strings.Join(columns, ", "))
	}
	return mapping, nil
}

var addressColumns = []string{"street_address", "secondary_address", "postal_code", "locality", "region", "country"}

func newAddress(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	mapping, err := readMapping(t.Options, addressColumns)
	if err != nil {
		return nil, err
	}
	return &multiColumnAnonymizer{
		base:    newBase(conn, actx, t),
		mapping: mapping,
		sampler: NewSampler(conn, addressColumns, func() ([][]interface{}, error) {
			columns, records, err := readCSV(strings.NewReader(addressData), csvOptions{header: true})
			if err != nil {
				return nil, err
			}
			return toRowsOf(records, columnIndexes(columns, addressColumns)), nil
		}),
	}, nil
}

var fileColumnOptions = []string{"source", "separator", "header", "column_names"}

type fileColumnConfig struct {
	Source      string   `option:"source" validate:"required,file"`
	Separator   string   `option:"separator" validate:"len=1"`
	Header      bool     `option:"header"`
	ColumnNames []string `option:"column_names" validate:"required_if=Header false"`
}

func newFileColumn(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	o := t.Options
	var cfg fileColumnConfig
	var err error
	if cfg.Source, err = o.String("source", "", true); err != nil {
		return nil, err
	}
	if cfg.Separator, err = o.String("separator", ",", false); err != nil {
		return nil, err
	}
	if cfg.Header, err = o.Bool("header", true, false); err != nil {
		return nil, err
	}
	if cfg.ColumnNames, err = o.StringList("column_names", false); err != nil {
		return nil, err
	}
	cfg.Source = actx.ResolvePath(cfg.Source)
	if err = validateOptions(&cfg); err != nil {
		return nil, err
	}
	sep, _ := utf8.DecodeRuneInString(cfg.Separator)
	return newCSVColumns(conn, actx, t, cfg.Source, csvOptions{separator: sep, header: cfg.Header, columns: cfg.ColumnNames}, fileColumnOptions...)
}

// newCSVColumns builds a multi column anonymizer over a CSV file. The header
// is read eagerly so that the mapping is checked before any run.
func newCSVColumns(conn *dbconn.Conn, actx *Context, t Target, path string, opts csvOptions, reserved ...string) (Anonymizer, error) {
	columns := opts.columns
	if opts.header {
		var err error
		columns, _, err = readCSVFile(path, opts)
		if err != nil {
			return nil, errs.NewConfigurationError("read sample file: %s", err)
		}
	}
	mapping, err := readMapping(t.Options, columns, reserved...)
	if err != nil {
		return nil, err
	}
	return &multiColumnAnonymizer{
		base:    newBase(conn, actx, t),
		mapping: mapping,
		sampler: NewSampler(conn, columns, func() ([][]interface{}, error) {
			found, records, err := readCSVFile(path, opts)
			if err != nil {
				return nil, err
			}
			return toRowsOf(records, columnIndexes(found, columns)), nil
		}),
	}, nil
}

func columnIndexes(all, wanted []string) []int {
	return lo.Map(wanted, func(col string, _ int) int {
		return lo.IndexOf(all, col)
	})
}
