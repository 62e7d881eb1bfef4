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
	"strings"
)

// mysqlDialect serves both MySQL (8.0+) and MariaDB (10.2+), the first
// releases with window functions.
type mysqlDialect struct {
	vendor Vendor
}

func (d mysqlDialect) Vendor() Vendor { return d.vendor }

func (mysqlDialect) QuoteIdentifier(name string) string { return quoteWith(name, "`", "`") }

func (d mysqlDialect) QuoteTable(name string) string { return quoteQualified(d, name) }

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) MaxIdentifierLength() int { return 64 }

func (mysqlDialect) TypeName(t Type) string {
	switch t {
	case TEXT:
		return "text"
	case BIGINT:
		return "bigint"
	case FLOAT:
		return "double"
	case DATE:
		return "date"
	case DATETIME:
		return "datetime"
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (mysqlDialect) writeCast(w *Writer, e Expr, t Type) {
	// CAST only accepts a subset of the column types
	switch t {
	case TEXT:
		writeCastAs(w, e, "char")
	case BIGINT:
		writeCastAs(w, e, "signed")
	case FLOAT:
		writeCastAs(w, e, "decimal(65, 15)")
	case DATE:
		writeCastAs(w, e, "date")
	case DATETIME:
		writeCastAs(w, e, "datetime")
	default:
		panic(fmt.Sprintf("unknown type %d", t))
	}
}

func (mysqlDialect) writeConcat(w *Writer, parts []Expr) {
	Func("concat", parts...).WriteSQL(w)
}

func (mysqlDialect) writeRandomFloat(w *Writer) {
	w.Raw("rand()")
}

func (mysqlDialect) writeRandomInt(w *Writer, min, max int64) {
	w.Raw("(CAST(floor(rand() * ")
	w.Int(max - min + 1)
	w.Raw(") AS signed) + ")
	w.Int(min)
	w.Raw(")")
}

func (mysqlDialect) writeDateAdd(w *Writer, date, amount Expr, unit string) {
	w.Raw("date_add(")
	date.WriteSQL(w)
	w.Raw(", INTERVAL ")
	amount.WriteSQL(w)
	w.Raw(" " + strings.ToUpper(unitKeyword(unit)) + ")")
}

func (mysqlDialect) writeMD5(w *Writer, e Expr) {
	Func("md5", e).WriteSQL(w)
}

func (mysqlDialect) writeRound(w *Writer, e Expr, precision int) {
	Func("round", e, Int(int64(precision))).WriteSQL(w)
}

// writeUpdate renders the multi-table form:
//
//	UPDATE t AS _target_table LEFT JOIN ... SET _target_table.c = ...
func (mysqlDialect) writeUpdate(w *Writer, u *Update) {
	w.Raw("UPDATE ")
	w.Table(u.table)
	w.Raw(" AS ")
	w.Ident(TARGET_ALIAS)
	u.writeJoins(w)
	w.Raw(" SET ")
	u.writeSets(w, TARGET_ALIAS)
}

func (mysqlDialect) writeRankedSample(w *Writer, s *RankedSample) {
	writeLimitedSample(w, s, "rand()")
}
