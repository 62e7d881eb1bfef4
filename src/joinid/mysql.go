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

// counterFunction fills the column from a one-row counter table through a
// stored function, as a table may only have one AUTO_INCREMENT column. The
// function is evaluated once per updated row.
type counterFunction struct {
	conn *dbconn.Conn
}

func (m *counterFunction) Ensure(ctx context.Context, table string) (err error) {
	found, err := exists(ctx, m.conn, table)
	if err != nil || found {
		return err
	}

	d := m.conn.Dialect()
	counter := sequenceName(m.conn, table)
	function := counter + COUNTER_FUNCTION_SUFFIX
	log.Infof("adding join identity column to table %q using counter %q", table, counter)

	defer func() {
		cleanCtx := context.WithoutCancel(ctx)
		cleanupErr := errors.Join(m.conn.DropFunction(cleanCtx, function), m.conn.DropTable(cleanCtx, counter))
		if cleanupErr != nil {
			log.Errorf("drop join identity counter of table %q: %v", table, cleanupErr)
			err = errors.Join(err, cleanupErr)
		}
	}()

	_, err = m.conn.Exec(ctx, "CREATE TABLE "+d.QuoteTable(counter)+" (value bigint NOT NULL)")
	if err != nil {
		return fmt.Errorf("create join identity counter for table %q: %w", table, err)
	}
	_, err = m.conn.Exec(ctx, "INSERT INTO "+d.QuoteTable(counter)+" (value) VALUES (0)")
	if err != nil {
		return fmt.Errorf("initialize join identity counter for table %q: %w", table, err)
	}
	_, err = m.conn.Exec(ctx, fmt.Sprintf("CREATE FUNCTION %s() RETURNS bigint NOT DETERMINISTIC MODIFIES SQL DATA "+
		"BEGIN UPDATE %s SET value = LAST_INSERT_ID(value + 1); RETURN LAST_INSERT_ID(); END",
		d.QuoteTable(function), d.QuoteTable(counter)))
	if err != nil {
		return fmt.Errorf("create join identity function for table %q: %w", table, err)
	}

	err = m.conn.AddColumn(ctx, table, COLUMN, "bigint NULL")
	if err != nil {
		return fmt.Errorf("add join identity column to table %q: %w", table, err)
	}
	_, err = m.conn.Exec(ctx, fmt.Sprintf("UPDATE %s SET %s = %s()",
		d.QuoteTable(table), d.QuoteIdentifier(COLUMN), d.QuoteTable(function)))
	if err != nil {
		return fmt.Errorf("fill join identity column of table %q: %w", table, err)
	}
	return createIndex(ctx, m.conn, table)
}

func (m *counterFunction) Remove(ctx context.Context, table string) error {
	return removeColumn(ctx, m.conn, table, nil)
}

func (m *counterFunction) Column(tableOrAlias string) sqlbuilder.Expr {
	return column(tableOrAlias)
}
