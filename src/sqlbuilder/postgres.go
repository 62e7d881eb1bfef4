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

type postgresDialect struct{}

func (postgresDialect) Vendor() Vendor { return POSTGRESQL }

func (postgresDialect) QuoteIdentifier(name string) string { return quoteWith(name, `"`, `"`) }

func (d postgresDialect) QuoteTable(name string) string { return quoteQualified(d, name) }

func (postgresDialect) Placeholder(position int) string { return "$" + strconv.Itoa(position) }

func (postgresDialect) MaxIdentifierLength() int { return 63 }

func (postgresDialect) TypeName(t Type) string {
	switch t {
	case TEXT:
		return "text"
	case BIGINT:
		return "bigint"
	case FLOAT:
		return "double precision"
	case DATE:
		return "date"
	case DATETIME:
		return "timestamp"
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (d postgresDialect) writeCast(w *Writer, e Expr, t Type) {
	writeCastAs(w, e, d.TypeName(t))
}

func (postgresDialect) writeConcat(w *Writer, parts []Expr) {
	writePipeConcat(w, parts)
}

func (postgresDialect) writeRandomFloat(w *Writer) {
	w.Raw("random()")
}

func (postgresDialect) writeRandomInt(w *Writer, min, max int64) {
	w.Raw("(CAST(floor(random() * ")
	w.Int(max - min + 1)
	w.Raw(") AS bigint) + ")
	w.Int(min)
	w.Raw(")")
}

func (postgresDialect) writeDateAdd(w *Writer, date, amount Expr, unit string) {
	w.Raw("(")
	date.WriteSQL(w)
	w.Raw(" + ")
	amount.WriteSQL(w)
	w.Raw(" * INTERVAL '1 " + unitKeyword(unit) + "')")
}

func (d postgresDialect) writeMD5(w *Writer, e Expr) {
	w.Raw("md5(")
	d.writeCast(w, e, TEXT)
	w.Raw(")")
}

func (postgresDialect) writeRound(w *Writer, e Expr, precision int) {
	w.Raw("round(")
	writeCastAs(w, e, "numeric")
	w.Raw(", ")
	w.Int(int64(precision))
	w.Raw(")")
}

func (postgresDialect) writeUpdate(w *Writer, u *Update) {
	writeSelfJoinUpdate(w, u)
}

func (postgresDialect) writeRankedSample(w *Writer, s *RankedSample) {
	writeLimitedSample(w, s, "random()")
}

var unitKeywords = map[string]string{
	"second": "second",
	"minute": "minute",
	"hour":   "hour",
	"day":    "day",
	"month":  "month",
	"year":   "year",
}

func unitKeyword(unit string) string {
	k, ok := unitKeywords[unit]
	if !ok {
		panic(fmt.Sprintf("unknown interval unit %q", unit))
	}
	return k
}
