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
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

const (
	SAMPLE_TABLE_PREFIX            = "_db_tools_sample_"
	DEPRECATED_SAMPLE_TABLE_PREFIX = "_anonymizer_"
)

// SampleLoader produces the raw sample rows, one value per sample column.
type SampleLoader func() ([][]interface{}, error)

// Sampler keeps a sample in a temporary table and joins a shuffled copy of
// it to target tables.
type Sampler struct {
	conn    *dbconn.Conn
	columns []string
	load    SampleLoader
	table   string
}

func NewSampler(conn *dbconn.Conn, columns []string, load SampleLoader) *Sampler {
	return &Sampler{conn: conn, columns: columns, load: load}
}

func (s *Sampler) Columns() []string {
	return s.columns
}

// Table is the sample table name, empty outside Initialize/Clean.
func (s *Sampler) Table() string {
	return s.table
}

func (s *Sampler) Initialize(ctx context.Context) error {
	if s.table != "" {
		return nil
	}
	rows, err := s.load()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errs.NewConfigurationError("sample is empty")
	}

	// named before creation so that Clean covers a failed CREATE or INSERT
	s.table = SAMPLE_TABLE_PREFIX + utils.RandomSuffix()
	defs := make([]dbconn.ColumnDef, 0, len(s.columns))
	for _, col := range s.columns {
		defs = append(defs, dbconn.ColumnDef{Name: col, Type: sqlbuilder.TEXT})
	}
	err = s.conn.CreateTable(ctx, s.table, defs)
	if err != nil {
		return fmt.Errorf("create sample table: %w", err)
	}
	_, err = s.conn.InsertRows(ctx, s.table, s.columns, rows)
	if err != nil {
		return fmt.Errorf("fill sample table %q: %w", s.table, err)
	}
	log.Infof("created sample table %q with %d rows", s.table, len(rows))
	return nil
}

// Join left joins the sample to u under alias. Target rows get sample rows
// by (join_id % M) + 1 = rank with M = min(target rows, sample rows): rows
// are distinct while the sample is large enough, and repeat evenly
// otherwise.
func (s *Sampler) Join(ctx context.Context, u *sqlbuilder.Update, alias string) (JoinedSample, error) {
	if s.table == "" {
		return JoinedSample{}, fmt.Errorf("sample of table %q is used before initialization", u.Table())
	}
	targetCount, err := s.conn.CountRows(ctx, u.Table())
	if err != nil {
		return JoinedSample{}, err
	}
	sampleCount, err := s.conn.CountRows(ctx, s.table)
	if err != nil {
		return JoinedSample{}, err
	}
	modulo := min(targetCount, sampleCount)
	if modulo < 1 {
		// empty target: the statement updates nothing
		modulo = 1
	}
	log.Debugf("joining sample %q (%d rows) to %q (%d rows) as %q", s.table, sampleCount, u.Table(), targetCount, alias)

	ranked := &sqlbuilder.RankedSample{Table: s.table, Columns: s.columns, Limit: modulo}
	on := sqlbuilder.Eq(
		sqlbuilder.Add(sqlbuilder.Mod(u.JoinKey(), sqlbuilder.Int(modulo)), sqlbuilder.Int(1)),
		sqlbuilder.Col(alias, sqlbuilder.ROWNUM_COLUMN),
	)
	err = u.LeftJoin(ranked, alias, on)
	if err != nil {
		return JoinedSample{}, err
	}
	return JoinedSample{Alias: alias, columns: s.columns}, nil
}

func (s *Sampler) Clean(ctx context.Context) error {
	if s.table == "" {
		return nil
	}
	err := s.conn.DropTable(ctx, s.table)
	if err != nil {
		return fmt.Errorf("drop sample table %q: %w", s.table, err)
	}
	log.Infof("dropped sample table %q", s.table)
	s.table = ""
	return nil
}

// JoinedSample is a sample joined to an UPDATE under Alias.
type JoinedSample struct {
	Alias   string
	columns []string
}

func (j JoinedSample) Column(name string) (sqlbuilder.Expr, error) {
	for _, col := range j.columns {
		if col == name {
			return sqlbuilder.Col(j.Alias, name), nil
		}
	}
	return nil, errs.NewConfigurationError("sample has no column %q", name)
}

// Missing holds for target rows that found no sample row.
func (j JoinedSample) Missing() sqlbuilder.Expr {
	return sqlbuilder.IsNull(sqlbuilder.Col(j.Alias, sqlbuilder.ROWNUM_COLUMN))
}
