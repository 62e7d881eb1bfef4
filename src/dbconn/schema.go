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
package dbconn

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

type ColumnDef struct {
	Name string
	Type sqlbuilder.Type
}

func (c *Conn) p(n int) string {
	return c.dialect.Placeholder(n)
}

// ListTables returns the base tables of the connection schema, sorted by name.
func (c *Conn) ListTables(ctx context.Context) ([]string, error) {
	var query string
	switch c.Vendor() {
	case sqlbuilder.SQLITE:
		return c.QueryStrings(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\\_%' ESCAPE '\\' ORDER BY name")
	case sqlbuilder.SQLSERVER:
		query = "SELECT t.name FROM sys.tables t WHERE SCHEMA_NAME(t.schema_id) = @p1 ORDER BY t.name"
	default:
		query = fmt.Sprintf("SELECT table_name FROM information_schema.tables WHERE table_schema = %s AND table_type = 'BASE TABLE' ORDER BY table_name", c.p(1))
	}
	return c.QueryStrings(ctx, query, c.schema)
}

// ListSequences returns the sequences of the connection schema. Only SQL
// Server creates standalone sequences, other vendors answer nil.
func (c *Conn) ListSequences(ctx context.Context) ([]string, error) {
	if c.Vendor() != sqlbuilder.SQLSERVER {
		return nil, nil
	}
	return c.QueryStrings(ctx, "SELECT s.name FROM sys.sequences s WHERE SCHEMA_NAME(s.schema_id) = @p1 ORDER BY s.name", c.schema)
}

// ListColumns returns the column names of table in ordinal order. A missing
// table yields an empty list or an error satisfying IsUndefinedTable.
func (c *Conn) ListColumns(ctx context.Context, table string) ([]string, error) {
	schema, name := c.SplitName(table)
	switch c.Vendor() {
	case sqlbuilder.SQLITE:
		return c.QueryStrings(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", name)
	case sqlbuilder.SQLSERVER:
		return c.QueryStrings(ctx, "SELECT c.name FROM sys.columns c WHERE c.object_id = OBJECT_ID(@p1) ORDER BY c.column_id",
			c.dialect.QuoteTable(schema+"."+name))
	}
	query := fmt.Sprintf("SELECT column_name FROM information_schema.columns WHERE table_schema = %s AND table_name = %s ORDER BY ordinal_position", c.p(1), c.p(2))
	return c.QueryStrings(ctx, query, schema, name)
}

// ListIndexes returns the names of the indexes defined on table.
func (c *Conn) ListIndexes(ctx context.Context, table string) ([]string, error) {
	schema, name := c.SplitName(table)
	switch c.Vendor() {
	case sqlbuilder.POSTGRESQL:
		return c.QueryStrings(ctx, "SELECT indexname FROM pg_indexes WHERE schemaname = $1 AND tablename = $2 ORDER BY indexname", schema, name)
	case sqlbuilder.MYSQL, sqlbuilder.MARIADB:
		return c.QueryStrings(ctx, "SELECT DISTINCT index_name FROM information_schema.statistics WHERE table_schema = ? AND table_name = ? ORDER BY index_name", schema, name)
	case sqlbuilder.SQLSERVER:
		return c.QueryStrings(ctx, "SELECT i.name FROM sys.indexes i WHERE i.object_id = OBJECT_ID(@p1) AND i.name IS NOT NULL ORDER BY i.name",
			c.dialect.QuoteTable(schema+"."+name))
	default:
		return c.QueryStrings(ctx, "SELECT name FROM pragma_index_list(?) ORDER BY name", name)
	}
}

func (c *Conn) HasColumn(ctx context.Context, table, column string) (bool, error) {
	columns, err := c.ListColumns(ctx, table)
	if err != nil {
		return false, err
	}
	return lo.ContainsBy(columns, func(name string) bool {
		return strings.EqualFold(name, column)
	}), nil
}

// AddColumn adds column with a raw vendor column definition, e.g. "BIGSERIAL".
func (c *Conn) AddColumn(ctx context.Context, table, column, definition string) error {
	keyword := " ADD COLUMN "
	if c.Vendor() == sqlbuilder.SQLSERVER {
		keyword = " ADD "
	}
	_, err := c.Exec(ctx, "ALTER TABLE "+c.dialect.QuoteTable(table)+keyword+c.dialect.QuoteIdentifier(column)+" "+definition)
	return err
}

func (c *Conn) DropColumn(ctx context.Context, table, column string) error {
	_, err := c.Exec(ctx, "ALTER TABLE "+c.dialect.QuoteTable(table)+" DROP COLUMN "+c.dialect.QuoteIdentifier(column))
	return err
}

func (c *Conn) CreateIndex(ctx context.Context, table, index string, columns ...string) error {
	quoted := lo.Map(columns, func(col string, _ int) string {
		return c.dialect.QuoteIdentifier(col)
	})
	_, err := c.Exec(ctx, fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		c.dialect.QuoteIdentifier(index), c.dialect.QuoteTable(table), strings.Join(quoted, ", ")))
	return err
}

func (c *Conn) DropIndex(ctx context.Context, table, index string) error {
	var query string
	switch c.Vendor() {
	case sqlbuilder.POSTGRESQL:
		schema, _ := c.SplitName(table)
		query = "DROP INDEX IF EXISTS " + c.dialect.QuoteTable(schema+"."+index)
	case sqlbuilder.SQLITE:
		query = "DROP INDEX IF EXISTS " + c.dialect.QuoteIdentifier(index)
	default:
		query = "DROP INDEX " + c.dialect.QuoteIdentifier(index) + " ON " + c.dialect.QuoteTable(table)
	}
	_, err := c.Exec(ctx, query)
	return err
}

func (c *Conn) CreateTable(ctx context.Context, table string, columns []ColumnDef) error {
	defs := lo.Map(columns, func(col ColumnDef, _ int) string {
		return c.dialect.QuoteIdentifier(col.Name) + " " + c.dialect.TypeName(col.Type)
	})
	_, err := c.Exec(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", c.dialect.QuoteTable(table), strings.Join(defs, ", ")))
	return err
}

func (c *Conn) DropTable(ctx context.Context, table string) error {
	_, err := c.Exec(ctx, "DROP TABLE IF EXISTS "+c.dialect.QuoteTable(table))
	return err
}

func (c *Conn) CreateSequence(ctx context.Context, name string) error {
	_, err := c.Exec(ctx, "CREATE SEQUENCE "+c.dialect.QuoteTable(name)+" AS bigint START WITH 1 INCREMENT BY 1")
	return err
}

func (c *Conn) DropSequence(ctx context.Context, name string) error {
	_, err := c.Exec(ctx, "DROP SEQUENCE IF EXISTS "+c.dialect.QuoteTable(name))
	return err
}

func (c *Conn) DropFunction(ctx context.Context, name string) error {
	_, err := c.Exec(ctx, "DROP FUNCTION IF EXISTS "+c.dialect.QuoteTable(name))
	return err
}

// InsertRows inserts rows into table, flushing a new INSERT statement
// whenever the next row would push it past MaxParametersPerStatement.
func (c *Conn) InsertRows(ctx context.Context, table string, columns []string, rows [][]interface{}) (int64, error) {
	if len(columns) == 0 || len(rows) == 0 {
		return 0, nil
	}
	perStatement := MaxParametersPerStatement / len(columns)
	if perStatement == 0 {
		return 0, fmt.Errorf("table %q has too many columns (%d) for a single insert", table, len(columns))
	}

	var inserted int64
	for _, chunk := range lo.Chunk(rows, perStatement) {
		insert := &insertStatement{table: table, columns: columns, rows: chunk}
		n, err := c.ExecExpr(ctx, insert)
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	log.Debugf("inserted %d rows into %q", inserted, table)
	return inserted, nil
}

type insertStatement struct {
	table   string
	columns []string
	rows    [][]interface{}
}

func (s *insertStatement) WriteSQL(w *sqlbuilder.Writer) {
	w.Raw("INSERT INTO ")
	w.Table(s.table)
	w.Raw(" (")
	for i, col := range s.columns {
		if i > 0 {
			w.Raw(", ")
		}
		w.Ident(col)
	}
	w.Raw(") VALUES ")
	for i, row := range s.rows {
		if i > 0 {
			w.Raw(", ")
		}
		w.Raw("(")
		for j := range s.columns {
			if j > 0 {
				w.Raw(", ")
			}
			var v interface{}
			if j < len(row) {
				v = row[j]
			}
			w.Arg(v)
		}
		w.Raw(")")
	}
}
