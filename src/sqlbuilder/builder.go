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

// Package sqlbuilder renders the handful of statements the anonymizer needs
// for PostgreSQL, MySQL/MariaDB, SQL Server and SQLite. Identifiers are
// always quoted by the dialect and values are always bound as arguments;
// nothing is concatenated into SQL as an untyped string.
package sqlbuilder

import (
	"strconv"
	"strings"
)

// Type is a vendor neutral SQL type used by casts and DDL.
type Type int

const (
	TEXT Type = iota
	BIGINT
	FLOAT
	DATE
	DATETIME
)

// Expr is any SQL fragment that can be rendered by a Writer.
type Expr interface {
	WriteSQL(w *Writer)
}

// Writer accumulates SQL text and bound arguments for one statement.
type Writer struct {
	dialect Dialect
	b       strings.Builder
	args    []interface{}
}

func NewWriter(d Dialect) *Writer {
	return &Writer{dialect: d}
}

func (w *Writer) Dialect() Dialect {
	return w.dialect
}

func (w *Writer) Raw(s string) {
	w.b.WriteString(s)
}

func (w *Writer) Ident(name string) {
	w.b.WriteString(w.dialect.QuoteIdentifier(name))
}

func (w *Writer) Table(name string) {
	w.b.WriteString(w.dialect.QuoteTable(name))
}

// Arg binds v and writes its placeholder.
func (w *Writer) Arg(v interface{}) {
	w.args = append(w.args, v)
	w.b.WriteString(w.dialect.Placeholder(len(w.args)))
}

func (w *Writer) Int(n int64) {
	if n < 0 {
		w.b.WriteString("(" + strconv.FormatInt(n, 10) + ")")
		return
	}
	w.b.WriteString(strconv.FormatInt(n, 10))
}

func (w *Writer) Float(f float64) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	if f < 0 {
		s = "(" + s + ")"
	}
	w.b.WriteString(s)
}

func (w *Writer) Expr(e Expr) {
	e.WriteSQL(w)
}

// List writes exprs separated by sep.
func (w *Writer) List(sep string, exprs ...Expr) {
	for i, e := range exprs {
		if i > 0 {
			w.b.WriteString(sep)
		}
		e.WriteSQL(w)
	}
}

func (w *Writer) String() string {
	return w.b.String()
}

func (w *Writer) Args() []interface{} {
	return w.args
}

// Build renders e for dialect d.
func Build(d Dialect, e Expr) (string, []interface{}) {
	w := NewWriter(d)
	e.WriteSQL(w)
	return w.String(), w.Args()
}
