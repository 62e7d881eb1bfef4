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

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// singleColumn computes its value from an expression of the current column
// value.
type singleColumn struct {
	base
	value func(current sqlbuilder.Expr) sqlbuilder.Expr
	// nullAgnostic anonymizers also overwrite NULL cells.
	nullAgnostic bool
}

func (a *singleColumn) Shape() Shape {
	return SHAPE_SINGLE
}

func (a *singleColumn) ValueExpression(context.Context) (sqlbuilder.Expr, error) {
	return a.value(a.column()), nil
}

func (a *singleColumn) Anonymize(_ context.Context, u *sqlbuilder.Update) error {
	v := a.value(u.TargetColumn(a.target))
	if a.nullAgnostic {
		return u.Set(a.target, v)
	}
	return setIfNotNull(u, a.target, v)
}

func newNull(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	err := checkKnownOptions(t.Options)
	if err != nil {
		return nil, err
	}
	return &singleColumn{
		base:         newBase(conn, actx, t),
		value:        func(sqlbuilder.Expr) sqlbuilder.Expr { return sqlbuilder.Null() },
		nullAgnostic: true,
	}, nil
}

type constantConfig struct {
	Value        string `option:"value" validate:"required"`
	Type         string `option:"type" validate:"omitempty,oneof=text integer float date datetime"`
	NullAgnostic bool   `option:"null_agnostic"`
}

var constantTypes = map[string]sqlbuilder.Type{
	"text":     sqlbuilder.TEXT,
	"integer":  sqlbuilder.BIGINT,
	"float":    sqlbuilder.FLOAT,
	"date":     sqlbuilder.DATE,
	"datetime": sqlbuilder.DATETIME,
}

func newConstant(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	o := t.Options
	err := checkKnownOptions(o, "value", "type", "null_agnostic")
	if err != nil {
		return nil, err
	}
	var cfg constantConfig
	if cfg.Value, err = o.String("value", "", true); err != nil {
		return nil, err
	}
	if cfg.Type, err = o.String("type", "", false); err != nil {
		return nil, err
	}
	if cfg.NullAgnostic, err = o.Bool("null_agnostic", false, false); err != nil {
		return nil, err
	}
	if err = validateOptions(&cfg); err != nil {
		return nil, err
	}

	raw, _ := o.Raw("value")
	value := sqlbuilder.Value(raw)
	if cfg.Type != "" {
		value = sqlbuilder.Cast(sqlbuilder.Value(cfg.Value), constantTypes[cfg.Type])
	}
	return &singleColumn{
		base:         newBase(conn, actx, t),
		value:        func(sqlbuilder.Expr) sqlbuilder.Expr { return value },
		nullAgnostic: cfg.NullAgnostic,
	}, nil
}

type md5Config struct {
	UseSalt bool `option:"use_salt"`
}

func newMD5(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	err := checkKnownOptions(t.Options, "use_salt")
	if err != nil {
		return nil, err
	}
	var cfg md5Config
	if cfg.UseSalt, err = t.Options.Bool("use_salt", true, false); err != nil {
		return nil, err
	}
	salt := actx.Salt
	return &singleColumn{
		base: newBase(conn, actx, t),
		value: func(current sqlbuilder.Expr) sqlbuilder.Expr {
			if !cfg.UseSalt {
				return sqlbuilder.MD5(current)
			}
			return sqlbuilder.MD5(sqlbuilder.Concat(current, sqlbuilder.Value(salt)))
		},
	}, nil
}

type emailConfig struct {
	Domain  string `option:"domain" validate:"required,hostname_rfc1123"`
	UseSalt bool   `option:"use_salt"`
}

func newEmail(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	err := checkKnownOptions(t.Options, "domain", "use_salt")
	if err != nil {
		return nil, err
	}
	var cfg emailConfig
	if cfg.Domain, err = t.Options.String("domain", "example.com", false); err != nil {
		return nil, err
	}
	if cfg.UseSalt, err = t.Options.Bool("use_salt", true, false); err != nil {
		return nil, err
	}
	if err = validateOptions(&cfg); err != nil {
		return nil, err
	}
	salt := actx.Salt
	return &singleColumn{
		base: newBase(conn, actx, t),
		value: func(current sqlbuilder.Expr) sqlbuilder.Expr {
			hashed := current
			if cfg.UseSalt {
				hashed = sqlbuilder.Concat(current, sqlbuilder.Value(salt))
			}
			return sqlbuilder.Concat(sqlbuilder.MD5(hashed), sqlbuilder.Value("@"+cfg.Domain))
		},
	}, nil
}
