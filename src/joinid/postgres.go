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
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// serialColumn adds a BIGSERIAL column. The server backfills existing rows
// from the column's own sequence, which is dropped together with it.
type serialColumn struct {
	conn *dbconn.Conn
}

func (s *serialColumn) Ensure(ctx context.Context, table string) error {
	found, err := exists(ctx, s.conn, table)
	if err != nil || found {
		return err
	}
	log.Infof("adding join identity column to table %q", table)
	err = s.conn.AddColumn(ctx, table, COLUMN, "BIGSERIAL")
	if err != nil {
		return fmt.Errorf("add join identity column to table %q: %w", table, err)
	}
	return createIndex(ctx, s.conn, table)
}

func (s *serialColumn) Remove(ctx context.Context, table string) error {
	return removeColumn(ctx, s.conn, table, nil)
}

func (s *serialColumn) Column(tableOrAlias string) sqlbuilder.Expr {
	return column(tableOrAlias)
}
