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

import "math"

type column struct {
	table string
	name  string
}

// Col references table.name, or name alone when table is empty.
func Col(table, name string) Expr {
	return column{table: table, name: name}
}

func (c column) WriteSQL(w *Writer) {
	if c.table != "" {
		w.Table(c.table)
		w.Raw(".")
	}
	w.Ident(c.name)
}

type value struct {
	v interface{}
}

// Value binds v as a statement argument.
func Value(v interface{}) Expr {
	return value{v: v}
}

func (v value) WriteSQL(w *Writer) {
	w.Arg(v.v)
}

type intLiteral int64

// Int writes n inline.
func Int(n int64) Expr {
	return intLiteral(n)
}

func (i intLiteral) WriteSQL(w *Writer) {
	w.Int(int64(i))
}

type floatLiteral float64

// Float writes f inline.
func Float(f float64) Expr {
	return floatLiteral(f)
}

func (f floatLiteral) WriteSQL(w *Writer) {
	w.Float(float64(f))
}

type raw string

// Raw writes sql verbatim. Never pass user input.
func Raw(sql string) Expr {
	return raw(sql)
}

func (r raw) WriteSQL(w *Writer) {
	w.Raw(string(r))
}

// Null is the SQL NULL literal.
func Null() Expr {
	return raw("NULL")
}

type function struct {
	name string
	args []Expr
}

// Func calls the SQL function name, which must be a trusted constant.
func Func(name string, args ...Expr) Expr {
	return function{name: name, args: args}
}

func (f function) WriteSQL(w *Writer) {
	w.Raw(f.name)
	w.Raw("(")
	w.List(", ", f.args...)
	w.Raw(")")
}

type binary struct {
	op          string
	left, right Expr
}

func (b binary) WriteSQL(w *Writer) {
	w.Raw("(")
	b.left.WriteSQL(w)
	w.Raw(" " + b.op + " ")
	b.right.WriteSQL(w)
	w.Raw(")")
}

func Add(a, b Expr) Expr { return binary{op: "+", left: a, right: b} }
func Sub(a, b Expr) Expr { return binary{op: "-", left: a, right: b} }
func Mul(a, b Expr) Expr { return binary{op: "*", left: a, right: b} }
func Mod(a, b Expr) Expr { return binary{op: "%", left: a, right: b} }
func Eq(a, b Expr) Expr  { return binary{op: "=", left: a, right: b} }

type conjunction struct {
	parts []Expr
}

func And(parts ...Expr) Expr {
	return conjunction{parts: parts}
}

func (c conjunction) WriteSQL(w *Writer) {
	w.Raw("(")
	w.List(" AND ", c.parts...)
	w.Raw(")")
}

type nullTest struct {
	e   Expr
	not bool
}

func IsNull(e Expr) Expr    { return nullTest{e: e} }
func IsNotNull(e Expr) Expr { return nullTest{e: e, not: true} }

func (n nullTest) WriteSQL(w *Writer) {
	n.e.WriteSQL(w)
	if n.not {
		w.Raw(" IS NOT NULL")
	} else {
		w.Raw(" IS NULL")
	}
}

// When is one WHEN ... THEN ... branch of a Case.
type When struct {
	Cond Expr
	Then Expr
}

type caseExpr struct {
	whens []When
	els   Expr
}

// Case renders CASE WHEN ... END. els may be nil.
func Case(els Expr, whens ...When) Expr {
	return caseExpr{whens: whens, els: els}
}

func (c caseExpr) WriteSQL(w *Writer) {
	w.Raw("CASE")
	for _, when := range c.whens {
		w.Raw(" WHEN ")
		when.Cond.WriteSQL(w)
		w.Raw(" THEN ")
		when.Then.WriteSQL(w)
	}
	if c.els != nil {
		w.Raw(" ELSE ")
		c.els.WriteSQL(w)
	}
	w.Raw(" END")
}

func Coalesce(exprs ...Expr) Expr {
	return Func("COALESCE", exprs...)
}

// The expressions below differ per vendor and are rendered by the dialect.

type cast struct {
	e Expr
	t Type
}

func Cast(e Expr, t Type) Expr {
	return cast{e: e, t: t}
}

func (c cast) WriteSQL(w *Writer) {
	w.dialect.writeCast(w, c.e, c.t)
}

type concat struct {
	parts []Expr
}

// Concat joins parts as text.
func Concat(parts ...Expr) Expr {
	return concat{parts: parts}
}

func (c concat) WriteSQL(w *Writer) {
	if len(c.parts) == 0 {
		w.Arg("")
		return
	}
	if len(c.parts) == 1 {
		w.dialect.writeCast(w, c.parts[0], TEXT)
		return
	}
	w.dialect.writeConcat(w, c.parts)
}

type randomFloat struct{}

// RandomFloat is a float in [0, 1), evaluated once per row.
func RandomFloat() Expr {
	return randomFloat{}
}

func (randomFloat) WriteSQL(w *Writer) {
	w.dialect.writeRandomFloat(w)
}

type randomInt struct {
	min, max int64
}

// RandomInt is an integer in [min, max], evaluated once per row.
func RandomInt(min, max int64) Expr {
	return randomInt{min: min, max: max}
}

// IntRangeFits reports whether the width max - min + 1 of a RandomInt range
// is a positive int64, which every dialect computes the value with.
func IntRangeFits(min, max int64) bool {
	return min <= max && uint64(max)-uint64(min) < math.MaxInt64
}

func (r randomInt) WriteSQL(w *Writer) {
	w.dialect.writeRandomInt(w, r.min, r.max)
}

type dateAdd struct {
	date   Expr
	amount Expr
	unit   string
}

// DateAdd adds amount units to date. unit is one of the anonconfig UNIT_*
// names: second, minute, hour, day, month, year.
func DateAdd(date, amount Expr, unit string) Expr {
	return dateAdd{date: date, amount: amount, unit: unit}
}

func (d dateAdd) WriteSQL(w *Writer) {
	w.dialect.writeDateAdd(w, d.date, d.amount, d.unit)
}

type md5 struct {
	e Expr
}

// MD5 is the lowercase hex md5 of e as text.
func MD5(e Expr) Expr {
	return md5{e: e}
}

func (m md5) WriteSQL(w *Writer) {
	w.dialect.writeMD5(w, m.e)
}

type round struct {
	e         Expr
	precision int
}

func Round(e Expr, precision int) Expr {
	return round{e: e, precision: precision}
}

func (r round) WriteSQL(w *Writer) {
	w.dialect.writeRound(w, r.e, r.precision)
}
