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
// Package joinid manufactures a temporary per-row integer key on a table so
// that its rows can be joined against a shuffled sample.
package joinid

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

const (
	COLUMN       = "_db_tools_id"
	INDEX_PREFIX = "_db_tools_idx_"
	// SEQUENCE_PREFIX names the out-of-band counters (tables, sequences,
	// functions) some vendors need while the column is filled.
	SEQUENCE_PREFIX = "_db_tools_seq_"
	// COUNTER_FUNCTION_SUFFIX names the MySQL function incrementing a
	// counter table.
	COUNTER_FUNCTION_SUFFIX = "_next"

	DEPRECATED_COLUMN       = "_anonymizer_id"
	DEPRECATED_INDEX_PREFIX = "_anonymizer_idx"
)

type Manager interface {
	// Ensure makes sure table has a join identity. It is a no-op when the
	// column already exists.
	Ensure(ctx context.Context, table string) error
	// Remove drops whatever Ensure created. It is safe to call after a failed
	// or skipped Ensure.
	Remove(ctx context.Context, table string) error
	// Column is the join key of table, or of the alias it is bound to in a
	// statement.
	Column(tableOrAlias string) sqlbuilder.Expr
}

func New(conn *dbconn.Conn) Manager {
	switch conn.Vendor() {
	case sqlbuilder.POSTGRESQL:
		return &serialColumn{conn: conn}
	case sqlbuilder.SQLITE:
		return rowAddress{}
	case sqlbuilder.MYSQL, sqlbuilder.MARIADB:
		return &counterFunction{conn: conn}
	case sqlbuilder.SQLSERVER:
		return &nativeSequence{conn: conn}
	default:
		panic(fmt.Sprintf("unknown database vendor %q", conn.Vendor()))
	}
}

// IndexName is the name of the index supporting the join identity of table.
func IndexName(conn *dbconn.Conn, table string) string {
	_, name := conn.SplitName(table)
	return utils.TruncateIdentifier(INDEX_PREFIX+name, conn.Dialect().MaxIdentifierLength())
}

func column(tableOrAlias string) sqlbuilder.Expr {
	return sqlbuilder.Col(tableOrAlias, COLUMN)
}

func exists(ctx context.Context, conn *dbconn.Conn, table string) (bool, error) {
	found, err := conn.HasColumn(ctx, table, COLUMN)
	if err != nil {
		return false, fmt.Errorf("look up join identity of table %q: %w", table, err)
	}
	if found {
		log.Infof("table %q already has join identity column %q", table, COLUMN)
	}
	return found, nil
}

// sequenceName returns a fresh counter name in the schema of table.
func sequenceName(conn *dbconn.Conn, table string) string {
	schema, _ := conn.SplitName(table)
	name := SEQUENCE_PREFIX + utils.RandomSuffix()
	if schema == "" || conn.Vendor() == sqlbuilder.MYSQL || conn.Vendor() == sqlbuilder.MARIADB {
		return name
	}
	return schema + "." + name
}

func createIndex(ctx context.Context, conn *dbconn.Conn, table string) error {
	err := conn.CreateIndex(ctx, table, IndexName(conn, table), COLUMN)
	if err != nil {
		return fmt.Errorf("index join identity of table %q: %w", table, err)
	}
	return nil
}

// removeColumn drops the index, calls beforeDrop, then drops the column.
// Missing objects are skipped.
func removeColumn(ctx context.Context, conn *dbconn.Conn, table string, beforeDrop func() error) error {
	indexes, err := conn.ListIndexes(ctx, table)
	if err != nil {
		return fmt.Errorf("list indexes of table %q: %w", table, err)
	}
	index := IndexName(conn, table)
	for _, name := range indexes {
		if name != index {
			continue
		}
		err = conn.DropIndex(ctx, table, index)
		if err != nil {
			return fmt.Errorf("drop join identity index of table %q: %w", table, err)
		}
	}

	found, err := conn.HasColumn(ctx, table, COLUMN)
	if err != nil {
		return fmt.Errorf("look up join identity of table %q: %w", table, err)
	}
	if !found {
		return nil
	}
	if beforeDrop != nil {
		err = beforeDrop()
		if err != nil {
			return err
		}
	}
	err = conn.DropColumn(ctx, table, COLUMN)
	if err != nil {
		return fmt.Errorf("drop join identity column of table %q: %w", table, err)
	}
	log.Infof("removed join identity of table %q", table)
	return nil
}

// DropColumn drops a join identity column left over by an interrupted run,
// together with the default constraint SQL Server keeps on it.
func DropColumn(ctx context.Context, conn *dbconn.Conn, table, column string) error {
	if conn.Vendor() == sqlbuilder.SQLSERVER {
		err := dropDefaultConstraint(ctx, conn, table, column)
		if err != nil {
			return err
		}
	}
	return conn.DropColumn(ctx, table, column)
}
