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
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// The three modes are exclusive: min+max draws a fresh value, delta and
// percent move the current one.
type integerConfig struct {
	Min     *int64 `option:"min" validate:"required_without_all=Delta Percent,required_with=Max,excluded_with=Delta Percent"`
	Max     *int64 `option:"max" validate:"required_with=Min,excluded_with=Delta Percent"`
	Delta   *int64 `option:"delta" validate:"omitempty,gt=0,excluded_with=Percent"`
	Percent *int64 `option:"percent" validate:"omitempty,gt=0"`
}

func newInteger(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	o := t.Options
	err := checkKnownOptions(o, "min", "max", "delta", "percent")
	if err != nil {
		return nil, err
	}
	var cfg integerConfig
	if cfg.Min, err = optionalInt(o, "min"); err != nil {
		return nil, err
	}
	if cfg.Max, err = optionalInt(o, "max"); err != nil {
		return nil, err
	}
	if cfg.Delta, err = optionalInt(o, "delta"); err != nil {
		return nil, err
	}
	if cfg.Percent, err = optionalInt(o, "percent"); err != nil {
		return nil, err
	}
	if err = validateOptions(&cfg); err != nil {
		return nil, err
	}
	if cfg.Min != nil && *cfg.Min > *cfg.Max {
		return nil, errs.NewConfigurationError("option \"min\" (%d) is greater than option \"max\" (%d)", *cfg.Min, *cfg.Max)
	}
	if cfg.Min != nil && !sqlbuilder.IntRangeFits(*cfg.Min, *cfg.Max) {
		return nil, errs.NewConfigurationError("range [%d, %d] is too wide", *cfg.Min, *cfg.Max)
	}
	if cfg.Delta != nil && !sqlbuilder.IntRangeFits(-*cfg.Delta, *cfg.Delta) {
		return nil, errs.NewConfigurationError("option \"delta\" (%d) is too large", *cfg.Delta)
	}

	var value func(sqlbuilder.Expr) sqlbuilder.Expr
	switch {
	case cfg.Min != nil:
		value = func(sqlbuilder.Expr) sqlbuilder.Expr {
			return sqlbuilder.RandomInt(*cfg.Min, *cfg.Max)
		}
	case cfg.Delta != nil:
		value = func(current sqlbuilder.Expr) sqlbuilder.Expr {
			return sqlbuilder.Add(current, sqlbuilder.RandomInt(-*cfg.Delta, *cfg.Delta))
		}
	default:
		value = func(current sqlbuilder.Expr) sqlbuilder.Expr {
			return sqlbuilder.Cast(sqlbuilder.Round(percentOf(current, float64(*cfg.Percent)), 0), sqlbuilder.BIGINT)
		}
	}
	return &singleColumn{base: newBase(conn, actx, t), value: value}, nil
}

type floatConfig struct {
	Min       *float64 `option:"min" validate:"required_without_all=Delta Percent,required_with=Max,excluded_with=Delta Percent"`
	Max       *float64 `option:"max" validate:"required_with=Min,excluded_with=Delta Percent"`
	Delta     *float64 `option:"delta" validate:"omitempty,gt=0,excluded_with=Percent"`
	Percent   *float64 `option:"percent" validate:"omitempty,gt=0"`
	Precision int64    `option:"precision" validate:"gte=0,lte=15"`
}

func newFloat(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	o := t.Options
	err := checkKnownOptions(o, "min", "max", "delta", "percent", "precision")
	if err != nil {
		return nil, err
	}
	var cfg floatConfig
	if cfg.Min, err = optionalFloat(o, "min"); err != nil {
		return nil, err
	}
	if cfg.Max, err = optionalFloat(o, "max"); err != nil {
		return nil, err
	}
	if cfg.Delta, err = optionalFloat(o, "delta"); err != nil {
		return nil, err
	}
	if cfg.Percent, err = optionalFloat(o, "percent"); err != nil {
		return nil, err
	}
	if cfg.Precision, err = o.Int("precision", 2, false); err != nil {
		return nil, err
	}
	if err = validateOptions(&cfg); err != nil {
		return nil, err
	}
	if cfg.Min != nil && *cfg.Min > *cfg.Max {
		return nil, errs.NewConfigurationError("option \"min\" (%g) is greater than option \"max\" (%g)", *cfg.Min, *cfg.Max)
	}

	precision := int(cfg.Precision)
	var value func(sqlbuilder.Expr) sqlbuilder.Expr
	switch {
	case cfg.Min != nil:
		value = func(sqlbuilder.Expr) sqlbuilder.Expr {
			span := sqlbuilder.Mul(sqlbuilder.RandomFloat(), sqlbuilder.Float(*cfg.Max-*cfg.Min))
			return sqlbuilder.Round(sqlbuilder.Add(sqlbuilder.Float(*cfg.Min), span), precision)
		}
	case cfg.Delta != nil:
		value = func(current sqlbuilder.Expr) sqlbuilder.Expr {
			return sqlbuilder.Round(sqlbuilder.Add(current, sqlbuilder.Mul(randomSign(), sqlbuilder.Float(*cfg.Delta))), precision)
		}
	default:
		value = func(current sqlbuilder.Expr) sqlbuilder.Expr {
			return sqlbuilder.Round(percentOf(current, *cfg.Percent), precision)
		}
	}
	return &singleColumn{base: newBase(conn, actx, t), value: value}, nil
}

// randomSign is uniform in [-1, 1].
func randomSign() sqlbuilder.Expr {
	return sqlbuilder.Sub(sqlbuilder.Mul(sqlbuilder.RandomFloat(), sqlbuilder.Float(2)), sqlbuilder.Float(1))
}

// percentOf moves current by up to percent of its value in either direction.
func percentOf(current sqlbuilder.Expr, percent float64) sqlbuilder.Expr {
	factor := sqlbuilder.Add(sqlbuilder.Float(1), sqlbuilder.Mul(randomSign(), sqlbuilder.Float(percent/100)))
	return sqlbuilder.Mul(current, factor)
}
