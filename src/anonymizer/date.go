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
	"math"
	"time"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

const (
	DATE_FORMAT_DATE     = "date"
	DATE_FORMAT_DATETIME = "datetime"
)

type dateConfig struct {
	Min    *time.Time           `option:"min" validate:"required_with=Max"`
	Max    *time.Time           `option:"max" validate:"required_with=Min"`
	Delta  *anonconfig.Interval `option:"delta" validate:"-"`
	Format string               `option:"format" validate:"omitempty,oneof=date datetime"`
}

func newDate(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
	o := t.Options
	err := checkKnownOptions(o, "min", "max", "delta", "format")
	if err != nil {
		return nil, err
	}
	var cfg dateConfig
	for key, dst := range map[string]**time.Time{"min": &cfg.Min, "max": &cfg.Max} {
		if !o.Has(key) {
			continue
		}
		d, err := o.Date(key, time.Time{}, true)
		if err != nil {
			return nil, err
		}
		*dst = &d
	}
	if o.Has("delta") {
		delta, err := o.Interval("delta", anonconfig.Interval{}, true)
		if err != nil {
			return nil, err
		}
		cfg.Delta = &delta
	}
	if cfg.Format, err = o.String("format", "", false); err != nil {
		return nil, err
	}
	if err = validateOptions(&cfg); err != nil {
		return nil, err
	}

	switch {
	case cfg.Min != nil && cfg.Delta != nil:
		return nil, errs.NewConfigurationError(`options "min" and "max" cannot be combined with "delta"`)
	case cfg.Min == nil && cfg.Delta == nil:
		return nil, errs.NewConfigurationError(`either options "min" and "max", or option "delta" is required`)
	case cfg.Min != nil && cfg.Min.After(*cfg.Max):
		return nil, errs.NewConfigurationError(`option "min" (%s) is after option "max" (%s)`, cfg.Min.Format(time.RFC3339), cfg.Max.Format(time.RFC3339))
	case cfg.Delta != nil && cfg.Delta.Amount <= 0:
		return nil, errs.NewConfigurationError(`option "delta" must be a positive interval, got %q`, cfg.Delta.String())
	}

	var value func(sqlbuilder.Expr) sqlbuilder.Expr
	if cfg.Min != nil {
		value = dateRange(*cfg.Min, *cfg.Max, cfg.Format)
	} else {
		delta := *cfg.Delta
		value = func(current sqlbuilder.Expr) sqlbuilder.Expr {
			shifted := sqlbuilder.DateAdd(current, sqlbuilder.RandomInt(-delta.Amount, delta.Amount), delta.Unit)
			return castDate(shifted, cfg.Format)
		}
	}
	return &singleColumn{base: newBase(conn, actx, t), value: value}, nil
}

// dateRange draws uniformly between min and max: by day for dates, by
// second (or minute for spans over int32 seconds) for datetimes.
func dateRange(min, max time.Time, format string) func(sqlbuilder.Expr) sqlbuilder.Expr {
	if format == "" {
		format = DATE_FORMAT_DATETIME
	}
	span := max.Sub(min)
	if format == DATE_FORMAT_DATE {
		start := sqlbuilder.Cast(sqlbuilder.Value(min.Format("2006-01-02")), sqlbuilder.DATE)
		days := int64(span / (24 * time.Hour))
		return func(sqlbuilder.Expr) sqlbuilder.Expr {
			return castDate(sqlbuilder.DateAdd(start, sqlbuilder.RandomInt(0, days), anonconfig.UNIT_DAY), format)
		}
	}

	start := sqlbuilder.Cast(sqlbuilder.Value(min.Format("2006-01-02 15:04:05")), sqlbuilder.DATETIME)
	unit, amount := anonconfig.UNIT_SECOND, int64(span/time.Second)
	if amount > math.MaxInt32 {
		unit, amount = anonconfig.UNIT_MINUTE, int64(span/time.Minute)
	}
	return func(sqlbuilder.Expr) sqlbuilder.Expr {
		return castDate(sqlbuilder.DateAdd(start, sqlbuilder.RandomInt(0, amount), unit), format)
	}
}

func castDate(e sqlbuilder.Expr, format string) sqlbuilder.Expr {
	switch format {
	case DATE_FORMAT_DATE:
		return sqlbuilder.Cast(e, sqlbuilder.DATE)
	case DATE_FORMAT_DATETIME:
		return sqlbuilder.Cast(e, sqlbuilder.DATETIME)
	}
	return e
}
