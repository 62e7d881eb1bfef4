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

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// ENUM_COLUMN is the single column of enum samples.
const ENUM_COLUMN = "value"

// enumAnonymizer replaces a column by values picked from a one column
// sample.
type enumAnonymizer struct {
	base
	sampler *Sampler
}

func newEnum(conn *dbconn.Conn, actx *Context, t Target, load SampleLoader) *enumAnonymizer {
	return &enumAnonymizer{
		base:    newBase(conn, actx, t),
		sampler: NewSampler(conn, []string{ENUM_COLUMN}, load),
	}
}

func (a *enumAnonymizer) Shape() Shape {
	return SHAPE_CORRELATED
}

func (a *enumAnonymizer) Initialize(ctx context.Context) error {
	return a.sampler.Initialize(ctx)
}

func (a *enumAnonymizer) Clean(ctx context.Context) error {
	return a.sampler.Clean(ctx)
}

func (a *enumAnonymizer) SampleColumns() []string {
	return a.sampler.Columns()
}

func (a *enumAnonymizer) JoinSample(ctx context.Context, u *sqlbuilder.Update, alias string) (JoinedSample, error) {
	return a.sampler.Join(ctx, u, alias)
}

func (a *enumAnonymizer) Anonymize(ctx context.Context, u *sqlbuilder.Update) error {
	joined, err := a.JoinSample(ctx, u, alias(a.table, a.target))
	if err != nil {
		return err
	}
	return setFromSample(u, a.target, joined, ENUM_COLUMN)
}

type stringEnumConfig struct {
	Sample []string `option:"sample" validate:"min=1"`
}

func newStringEnum(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	err := checkKnownOptions(t.Options, "sample")
	if err != nil {
		return nil, err
	}
	var cfg stringEnumConfig
	if cfg.Sample, err = t.Options.StringList("sample", true); err != nil {
		return nil, err
	}
	if err = validateOptions(&cfg); err != nil {
		return nil, err
	}
	return newEnum(conn, actx, t, func() ([][]interface{}, error) {
		return toRows(cfg.Sample), nil
	}), nil
}

func newEmbeddedEnum(data string) Factory {
	return func(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
		err := checkKnownOptions(t.Options)
		if err != nil {
			return nil, err
		}
		return newEnum(conn, actx, t, func() ([][]interface{}, error) {
			values, err := readLines(strings.NewReader(data))
			if err != nil {
				return nil, err
			}
			return toRows(values), nil
		}), nil
	}
}

type fileEnumConfig struct {
	Source string `option:"source" validate:"required,file"`
}

func newFileEnum(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	err := checkKnownOptions(t.Options, "source")
	if err != nil {
		return nil, err
	}
	source, err := t.Options.String("source", "", true)
	if err != nil {
		return nil, err
	}
	return newFileEnumFrom(conn, actx, t, actx.ResolvePath(source))
}

func newFileEnumFrom(conn *dbconn.Conn, actx *Context, t Target, path string) (Anonymizer, error) {
	cfg := fileEnumConfig{Source: path}
	err := validateOptions(&cfg)
	if err != nil {
		return nil, err
	}
	return newEnum(conn, actx, t, func() ([][]interface{}, error) {
		values, err := readLinesFile(cfg.Source)
		if err != nil {
			return nil, err
		}
		return toRows(values), nil
	}), nil
}
