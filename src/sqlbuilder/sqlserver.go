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
	"strconv"
)

type sqlserverDialect struct{}

func (sqlserverDialect) Vendor() Vendor { return SQLSERVER }

func (sqlserverDialect) QuoteIdentifier(name string) string { return quoteWith(name, "[", "]") }

func (d sqlserverDialect) QuoteTable(name string) string { return quoteQualified(d, name) }

func (sqlserverDialect) Placeholder(position int) string { return "@p" + strconv.Itoa(position) }

func (sqlserverDialect) MaxIdentifierLength() int { return 128 }

func (sqlserverDialect) TypeName(t Type) string {
	switch t {
	case TEXT:
		return "nvarchar(max)"
	case BIGINT:
		return "bigint"
	case FLOAT:
		return "float"
	case DATE:
		return "date"
	case DATETIME:
		return "datetime2"
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (d sqlserverDialect) writeCast(w *Writer, e Expr, t Type) {
	writeCastAs(w, e, d.TypeName(t))
}

func (sqlserverDialect) writeConcat(w *Writer, parts []Expr) {
	Func("concat", parts...).WriteSQL(w)
}

// rand() alone is evaluated once per statement; seeding it from newid()
// makes it per row.
const sqlserverRandom = "rand(checksum(newid()))"

func (sqlserverDialect) writeRandomFloat(w *Writer) {
	w.Raw(sqlserverRandom)
}

func (sqlserverDialect) writeRandomInt(w *Writer, min, max int64) {
	w.Raw("(CAST(floor(" + sqlserverRandom + " * ")
	w.Int(max - min + 1)
	w.Raw(") AS bigint) + ")
	w.Int(min)
	w.Raw(")")
}

func (sqlserverDialect) writeDateAdd(w *Writer, date, amount Expr, unit string) {
	w.Raw("dateadd(" + unitKeyword(unit) + ", ")
	amount.WriteSQL(w)
	w.Raw(", ")
	date.WriteSQL(w)
	w.Raw(")")
}

func (d sqlserverDialect) writeMD5(w *Writer, e Expr) {
	w.Raw("lower(convert(varchar(32), hashbytes('MD5', ")
	d.writeCast(w, e, TEXT)
	w.Raw("), 2))")
}

func (sqlserverDialect) writeRound(w *Writer, e Expr, precision int) {
	Func("round", e, Int(int64(precision))).WriteSQL(w)
}

// writeUpdate renders
//
//	UPDATE _target_table SET c = ... FROM t AS _target_table LEFT JOIN ...
func (sqlserverDialect) writeUpdate(w *Writer, u *Update) {
	w.Raw("UPDATE ")
	w.Ident(TARGET_ALIAS)
	w.Raw(" SET ")
	u.writeSets(w, "")
	w.Raw(" FROM ")
	w.Table(u.table)
	w.Raw(" AS ")
	w.Ident(TARGET_ALIAS)
	u.writeJoins(w)
}

func (sqlserverDialect) writeRankedSample(w *Writer, s *RankedSample) {
	w.Raw("(SELECT TOP (")
	w.Int(s.Limit)
	w.Raw(") ")
	s.writeColumns(w, "newid()")
	w.Raw(" ORDER BY ")
	w.Ident(ROWNUM_COLUMN)
	w.Raw(")")
}
