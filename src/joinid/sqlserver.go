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
package joinid

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// nativeSequence fills the column through a DEFAULT (NEXT VALUE FOR seq).
// The generated default constraint must go before the sequence and the
// column can be dropped.
type nativeSequence struct {
	conn *dbconn.Conn
}

func (m *nativeSequence) Ensure(ctx context.Context, table string) (err error) {
	found, err := exists(ctx, m.conn, table)
	if err != nil || found {
		return err
	}

	d := m.conn.Dialect()
	sequence := sequenceName(m.conn, table)
	log.Infof("adding join identity column to table %q using sequence %q", table, sequence)

	err = m.conn.CreateSequence(ctx, sequence)
	if err != nil {
		return fmt.Errorf("create join identity sequence for table %q: %w", table, err)
	}
	defer func() {
		dropErr := m.conn.DropSequence(context.WithoutCancel(ctx), sequence)
		if dropErr != nil {
			log.Errorf("drop join identity sequence of table %q: %v", table, dropErr)
			err = errors.Join(err, dropErr)
		}
	}()

	err = m.conn.AddColumn(ctx, table, COLUMN, "bigint NOT NULL DEFAULT (NEXT VALUE FOR "+d.QuoteTable(sequence)+")")
	if err != nil {
		return fmt.Errorf("add join identity column to table %q: %w", table, err)
	}
	err = dropDefaultConstraint(ctx, m.conn, table, COLUMN)
	if err != nil {
		return err
	}
	return createIndex(ctx, m.conn, table)
}

func dropDefaultConstraint(ctx context.Context, conn *dbconn.Conn, table, column string) error {
	names, err := conn.QueryStrings(ctx,
		"SELECT dc.name FROM sys.default_constraints dc "+
			"JOIN sys.columns c ON c.object_id = dc.parent_object_id AND c.column_id = dc.parent_column_id "+
			"WHERE dc.parent_object_id = OBJECT_ID(@p1) AND c.name = @p2",
		conn.Dialect().QuoteTable(table), column)
	if err != nil {
		return fmt.Errorf("look up default constraint of column %q of table %q: %w", column, table, err)
	}
	for _, name := range names {
		_, err = conn.Exec(ctx, "ALTER TABLE "+conn.Dialect().QuoteTable(table)+" DROP CONSTRAINT "+conn.Dialect().QuoteIdentifier(name))
		if err != nil {
			return fmt.Errorf("drop default constraint %q of table %q: %w", name, table, err)
		}
	}
	return nil
}

func (m *nativeSequence) Remove(ctx context.Context, table string) error {
	return removeColumn(ctx, m.conn, table, func() error {
		return dropDefaultConstraint(ctx, m.conn, table, COLUMN)
	})
}

func (m *nativeSequence) Column(tableOrAlias string) sqlbuilder.Expr {
	return column(tableOrAlias)
}
