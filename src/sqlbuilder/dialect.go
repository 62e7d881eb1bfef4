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

type Vendor string

const (
	POSTGRESQL Vendor = "postgresql"
	MYSQL      Vendor = "mysql"
	MARIADB    Vendor = "mariadb"
	SQLSERVER  Vendor = "sqlserver"
	SQLITE     Vendor = "sqlite"
)

var AllVendors = []Vendor{POSTGRESQL, MYSQL, MARIADB, SQLSERVER, SQLITE}

// ParseVendor accepts the vendor names and their usual aliases.
func ParseVendor(name string) (Vendor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgresql", "postgres", "pgsql", "pg":
		return POSTGRESQL, nil
	case "mysql":
		return MYSQL, nil
	case "mariadb":
		return MARIADB, nil
	case "sqlserver", "mssql":
		return SQLSERVER, nil
	case "sqlite", "sqlite3":
		return SQLITE, nil
	}
	return "", fmt.Errorf("unknown database vendor %q", name)
}

// Dialect renders vendor specific SQL. Implementations live in this package.
type Dialect interface {
	Vendor() Vendor
	QuoteIdentifier(name string) string
	// QuoteTable quotes each dot separated part of a possibly qualified name.
	QuoteTable(name string) string
	Placeholder(position int) string
	TypeName(t Type) string
	// MaxIdentifierLength is the longest identifier the vendor accepts.
	MaxIdentifierLength() int

	writeCast(w *Writer, e Expr, t Type)
	writeConcat(w *Writer, parts []Expr)
	writeRandomFloat(w *Writer)
	writeRandomInt(w *Writer, min, max int64)
	writeDateAdd(w *Writer, date, amount Expr, unit string)
	writeMD5(w *Writer, e Expr)
	writeRound(w *Writer, e Expr, precision int)
	writeUpdate(w *Writer, u *Update)
	writeRankedSample(w *Writer, s *RankedSample)
}

func NewDialect(v Vendor) (Dialect, error) {
	switch v {
	case POSTGRESQL:
		return postgresDialect{}, nil
	case MYSQL, MARIADB:
		return mysqlDialect{vendor: v}, nil
	case SQLSERVER:
		return sqlserverDialect{}, nil
	case SQLITE:
		return sqliteDialect{}, nil
	}
	return nil, fmt.Errorf("no SQL dialect for vendor %q", v)
}

func quoteWith(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

func quoteQualified(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func writeCastAs(w *Writer, e Expr, typeName string) {
	w.Raw("CAST(")
	e.WriteSQL(w)
	w.Raw(" AS " + typeName + ")")
}

// writePipeConcat renders a || b || c with every part cast to text.
func writePipeConcat(w *Writer, parts []Expr) {
	w.Raw("(")
	for i, p := range parts {
		if i > 0 {
			w.Raw(" || ")
		}
		w.dialect.writeCast(w, p, TEXT)
	}
	w.Raw(")")
}

// writeSelfJoinUpdate is the PostgreSQL and SQLite form:
//
//	UPDATE t SET c = ... FROM t AS _target_table LEFT JOIN ... WHERE key(t) = key(_target_table)
//
// Without joins the table is simply aliased and no join key is needed.
func writeSelfJoinUpdate(w *Writer, u *Update) {
	if len(u.joins) == 0 {
		w.Raw("UPDATE ")
		w.Table(u.table)
		w.Raw(" AS ")
		w.Ident(TARGET_ALIAS)
		w.Raw(" SET ")
		u.writeSets(w, "")
		return
	}
	w.Raw("UPDATE ")
	w.Table(u.table)
	w.Raw(" SET ")
	u.writeSets(w, "")
	w.Raw(" FROM ")
	w.Table(u.table)
	w.Raw(" AS ")
	w.Ident(TARGET_ALIAS)
	u.writeJoins(w)
	w.Raw(" WHERE ")
	Eq(u.joinKey(u.table), u.joinKey(TARGET_ALIAS)).WriteSQL(w)
}

// writeLimitedSample is the LIMIT form shared by all vendors but SQL Server.
func writeLimitedSample(w *Writer, s *RankedSample, randomOrder string) {
	w.Raw("(SELECT ")
	s.writeColumns(w, randomOrder)
	w.Raw(" ORDER BY ")
	w.Ident(ROWNUM_COLUMN)
	w.Raw(" LIMIT ")
	w.Int(s.Limit)
	w.Raw(")")
}
