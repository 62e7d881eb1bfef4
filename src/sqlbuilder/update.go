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
package sqlbuilder

import (
	"fmt"
)

const (
	// TARGET_ALIAS is the alias of the anonymized table inside an Update.
	// Expressions referencing target columns must use it.
	TARGET_ALIAS = "_target_table"
	// ROWNUM_COLUMN is the rank column exposed by a RankedSample.
	ROWNUM_COLUMN = "_rownum"
)

// JoinKey returns the per-row correlation key of the anonymized table seen
// through tableOrAlias.
type JoinKey func(tableOrAlias string) Expr

type assignment struct {
	column string
	value  Expr
}

type join struct {
	source Expr
	alias  string
	on     Expr
}

// Update is an UPDATE of one table, optionally LEFT JOINed to sample
// sub-selects. PostgreSQL and SQLite render it as a self join of the table
// on its join key; MySQL and SQL Server use their multi-table UPDATE forms.
type Update struct {
	table   string
	joinKey JoinKey
	sets    []assignment
	joins   []join
}

func NewUpdate(table string, joinKey JoinKey) *Update {
	return &Update{table: table, joinKey: joinKey}
}

func (u *Update) Table() string {
	return u.table
}

// JoinKey returns the correlation key of the target row.
func (u *Update) JoinKey() Expr {
	return u.joinKey(TARGET_ALIAS)
}

// TargetColumn references column of the row being updated.
func (u *Update) TargetColumn(column string) Expr {
	return Col(TARGET_ALIAS, column)
}

// Set assigns value to column. A column can be set only once per statement.
func (u *Update) Set(column string, value Expr) error {
	for _, a := range u.sets {
		if a.column == column {
			return fmt.Errorf("column %q of table %q is set twice in the same statement", column, u.table)
		}
	}
	u.sets = append(u.sets, assignment{column: column, value: value})
	return nil
}

// LeftJoin joins source under alias. Aliases must be unique.
func (u *Update) LeftJoin(source Expr, alias string, on Expr) error {
	if u.HasJoin(alias) {
		return fmt.Errorf("join alias %q is used twice on table %q", alias, u.table)
	}
	u.joins = append(u.joins, join{source: source, alias: alias, on: on})
	return nil
}

func (u *Update) HasJoin(alias string) bool {
	for _, j := range u.joins {
		if j.alias == alias {
			return true
		}
	}
	return false
}

// Columns returns the assigned columns in order.
func (u *Update) Columns() []string {
	cols := make([]string, 0, len(u.sets))
	for _, a := range u.sets {
		cols = append(cols, a.column)
	}
	return cols
}

func (u *Update) IsEmpty() bool {
	return len(u.sets) == 0
}

func (u *Update) WriteSQL(w *Writer) {
	w.dialect.writeUpdate(w, u)
}

func (u *Update) writeSets(w *Writer, qualifier string) {
	for i, a := range u.sets {
		if i > 0 {
			w.Raw(", ")
		}
		if qualifier != "" {
			w.Ident(qualifier)
			w.Raw(".")
		}
		w.Ident(a.column)
		w.Raw(" = ")
		a.value.WriteSQL(w)
	}
}

func (u *Update) writeJoins(w *Writer) {
	for _, j := range u.joins {
		w.Raw(" LEFT JOIN ")
		j.source.WriteSQL(w)
		w.Raw(" AS ")
		w.Ident(j.alias)
		w.Raw(" ON ")
		j.on.WriteSQL(w)
	}
}

// RankedSample selects Columns of Table with a random rank in
// ROWNUM_COLUMN, keeping ranks 1..Limit.
type RankedSample struct {
	Table   string
	Columns []string
	Limit   int64
}

func (s *RankedSample) WriteSQL(w *Writer) {
	w.dialect.writeRankedSample(w, s)
}

func (s *RankedSample) writeColumns(w *Writer, randomOrder string) {
	for _, c := range s.Columns {
		w.Ident(c)
		w.Raw(", ")
	}
	w.Raw("row_number() OVER (ORDER BY " + randomOrder + ") AS ")
	w.Ident(ROWNUM_COLUMN)
	w.Raw(" FROM ")
	w.Table(s.Table)
}
