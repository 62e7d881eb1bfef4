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

// sqliteDialect needs SQLite 3.33+ for UPDATE ... FROM. md5() is not
// built in; dbconn registers it on every connection.
type sqliteDialect struct{}

func (sqliteDialect) Vendor() Vendor { return SQLITE }

func (sqliteDialect) QuoteIdentifier(name string) string { return quoteWith(name, `"`, `"`) }

func (d sqliteDialect) QuoteTable(name string) string { return quoteQualified(d, name) }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) MaxIdentifierLength() int { return 1024 }

func (sqliteDialect) TypeName(t Type) string {
	switch t {
	case TEXT, DATE, DATETIME:
		return "text"
	case BIGINT:
		return "integer"
	case FLOAT:
		return "real"
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (d sqliteDialect) writeCast(w *Writer, e Expr, t Type) {
	switch t {
	case DATE:
		Func("date", e).WriteSQL(w)
	case DATETIME:
		Func("datetime", e).WriteSQL(w)
	default:
		writeCastAs(w, e, d.TypeName(t))
	}
}

func (sqliteDialect) writeConcat(w *Writer, parts []Expr) {
	writePipeConcat(w, parts)
}

// random() is a signed 64 bit integer; folding it modulo 10^9 keeps the
// arithmetic clear of the abs(-2^63) overflow.
func (sqliteDialect) writeRandomFloat(w *Writer) {
	w.Raw("((((random() % 1000000000) + 1000000000) % 1000000000) / 1000000000.0)")
}

func (sqliteDialect) writeRandomInt(w *Writer, min, max int64) {
	w.Raw("(abs(random() % ")
	w.Int(max - min + 1)
	w.Raw(") + ")
	w.Int(min)
	w.Raw(")")
}

func (sqliteDialect) writeDateAdd(w *Writer, date, amount Expr, unit string) {
	w.Raw("datetime(")
	date.WriteSQL(w)
	w.Raw(", CAST(")
	amount.WriteSQL(w)
	w.Raw(" AS text) || ' " + unitKeyword(unit) + "s')")
}

func (d sqliteDialect) writeMD5(w *Writer, e Expr) {
	w.Raw("md5(")
	d.writeCast(w, e, TEXT)
	w.Raw(")")
}

func (sqliteDialect) writeRound(w *Writer, e Expr, precision int) {
	Func("round", e, Int(int64(precision))).WriteSQL(w)
}

func (sqliteDialect) writeUpdate(w *Writer, u *Update) {
	writeSelfJoinUpdate(w, u)
}

func (sqliteDialect) writeRankedSample(w *Writer, s *RankedSample) {
	writeLimitedSample(w, s, "random()")
}
