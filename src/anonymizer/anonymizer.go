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
// Package anonymizer holds the anonymization strategies and the catalog
// resolving configuration ids to them. A strategy contributes SET clauses
// (and sample joins) to the UPDATE statement of its table.
package anonymizer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

type Shape int

const (
	// SHAPE_SINGLE anonymizers compute one value expression for their column.
	SHAPE_SINGLE Shape = iota
	// SHAPE_CORRELATED anonymizers pick values from a sample joined on the
	// join identity of the table.
	SHAPE_CORRELATED
	// SHAPE_TABLE_LEVEL anonymizers fill several columns from one sample row.
	// Their target is a label, not a column.
	SHAPE_TABLE_LEVEL
)

func (s Shape) String() string {
	switch s {
	case SHAPE_SINGLE:
		return "single"
	case SHAPE_CORRELATED:
		return "correlated"
	case SHAPE_TABLE_LEVEL:
		return "table-level"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// NeedsJoinIdentity reports whether the table must carry a join identity
// while anonymizers of this shape run.
func (s Shape) NeedsJoinIdentity() bool {
	return s != SHAPE_SINGLE
}

type Anonymizer interface {
	// Initialize prepares ephemeral state such as sample tables.
	Initialize(ctx context.Context) error
	// Anonymize adds the SET clauses (and joins) of the target to u.
	Anonymize(ctx context.Context, u *sqlbuilder.Update) error
	// Clean drops whatever Initialize created. It must succeed after a
	// partial Initialize.
	Clean(ctx context.Context) error
	Shape() Shape
	Target() (table string, target string)
}

// ValueProducer is implemented by single column anonymizers so that other
// anonymizers can embed their value.
type ValueProducer interface {
	ValueExpression(ctx context.Context) (sqlbuilder.Expr, error)
}

// ColumnSampler is implemented by anonymizers picking values from a sample.
type ColumnSampler interface {
	SampleColumns() []string
	// JoinSample joins a freshly shuffled copy of the sample to u under alias.
	JoinSample(ctx context.Context, u *sqlbuilder.Update, alias string) (JoinedSample, error)
}

// Context is shared by every anonymizer of one run and never mutated.
type Context struct {
	// Salt is mixed into hashes so that equal inputs hash equally within a
	// run, but differently across runs.
	Salt string
	// BasePath resolves relative sample file paths.
	BasePath string
}

// NewContext returns a run context. An empty salt is replaced by a random one.
func NewContext(salt, basePath string) *Context {
	if salt == "" {
		salt = utils.RandomSuffix()
	}
	return &Context{Salt: salt, BasePath: basePath}
}

func (c *Context) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.BasePath == "" {
		return path
	}
	return filepath.Join(c.BasePath, path)
}

// base carries what every built-in anonymizer is constructed with.
type base struct {
	conn   *dbconn.Conn
	actx   *Context
	table  string
	target string
}

func newBase(conn *dbconn.Conn, actx *Context, t Target) base {
	return base{conn: conn, actx: actx, table: t.Table, target: t.Name}
}

func (b *base) Target() (string, string) {
	return b.table, b.target
}

func (b *base) Initialize(context.Context) error {
	return nil
}

func (b *base) Clean(context.Context) error {
	return nil
}

// column is the target column as seen from inside the UPDATE.
func (b *base) column() sqlbuilder.Expr {
	return sqlbuilder.Col(sqlbuilder.TARGET_ALIAS, b.target)
}

// setIfNotNull assigns value to column except where column is NULL.
func setIfNotNull(u *sqlbuilder.Update, column string, value sqlbuilder.Expr) error {
	current := u.TargetColumn(column)
	return u.Set(column, sqlbuilder.Case(value, sqlbuilder.When{Cond: sqlbuilder.IsNull(current), Then: current}))
}

// setFromSample assigns a sample column to column where column is not NULL
// and the row found a sample match.
func setFromSample(u *sqlbuilder.Update, column string, sample JoinedSample, sampleColumn string) error {
	value, err := sample.Column(sampleColumn)
	if err != nil {
		return err
	}
	current := u.TargetColumn(column)
	return u.Set(column, sqlbuilder.Case(value,
		sqlbuilder.When{Cond: sqlbuilder.IsNull(current), Then: current},
		sqlbuilder.When{Cond: sample.Missing(), Then: current},
	))
}

// alias derives a join alias unique to parts and short enough for every
// vendor.
func alias(parts ...string) string {
	h := ""
	for _, p := range parts {
		h += p + "\x00"
	}
	return "_s_" + utils.ShortHash(h, 12)
}
