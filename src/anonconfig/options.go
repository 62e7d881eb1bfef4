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
package anonconfig

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yugabyte/db-anonymizer/src/errs"
)

// Options is a read-only, ordered key/value bag attached to one anonymizer
// target. Accessors take a default and a required flag; a missing required
// key or a value of the wrong type yields a *errs.ConfigurationError.
type Options struct {
	keys   []string
	values map[string]interface{}
}

// NewOptions copies values. order gives the key order; keys of values not in
// order are appended sorted.
func NewOptions(values map[string]interface{}, order ...string) Options {
	o := Options{values: make(map[string]interface{}, len(values))}
	seen := make(map[string]bool, len(values))
	for _, k := range order {
		if v, ok := values[k]; ok && !seen[k] {
			o.keys = append(o.keys, k)
			o.values[k] = v
			seen[k] = true
		}
	}
	var rest []string
	for k := range values {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		o.keys = append(o.keys, k)
		o.values[k] = values[k]
	}
	return o
}

func (o Options) Keys() []string {
	return append([]string(nil), o.keys...)
}

func (o Options) Len() int {
	return len(o.keys)
}

func (o Options) Has(key string) bool {
	v, ok := o.values[key]
	return ok && v != nil
}

func (o Options) Raw(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok && v != nil
}

// ToMap returns a copy of the underlying values.
func (o Options) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(o.values))
	for k, v := range o.values {
		m[k] = v
	}
	return m
}

// WithAdditional returns a copy of o with extra merged in. Keys in extra
// override existing ones but keep their original position.
func (o Options) WithAdditional(extra map[string]interface{}) Options {
	merged := o.ToMap()
	order := o.Keys()
	var added []string
	for k, v := range extra {
		if _, ok := merged[k]; !ok {
			added = append(added, k)
		}
		merged[k] = v
	}
	sort.Strings(added)
	return NewOptions(merged, append(order, added...)...)
}

func missing(key string) error {
	return errs.NewConfigurationError("option %q is required", key)
}

func invalid(key string, value interface{}, expected string) error {
	return errs.NewConfigurationError("option %q: expected %s, got %T (%v)", key, expected, value, value)
}

func (o Options) String(key string, def string, required bool) (string, error) {
	v, ok := o.Raw(key)
	if !ok {
		if required {
			return "", missing(key)
		}
		return def, nil
	}
	switch val := v.(type) {
	case string:
		if required && val == "" {
			return "", errs.NewConfigurationError("option %q must not be empty", key)
		}
		return val, nil
	case int, int64, float64, bool:
		return fmt.Sprint(val), nil
	case time.Time:
		return val.Format(time.RFC3339), nil
	}
	return "", invalid(key, v, "a string")
}

func (o Options) Int(key string, def int64, required bool) (int64, error) {
	v, ok := o.Raw(key)
	if !ok {
		if required {
			return 0, missing(key)
		}
		return def, nil
	}
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		if val > math.MaxInt64 {
			return 0, invalid(key, v, "an integer")
		}
		return int64(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, invalid(key, v, "an integer")
		}
		return int64(val), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, invalid(key, v, "an integer")
		}
		return i, nil
	}
	return 0, invalid(key, v, "an integer")
}

func (o Options) Float(key string, def float64, required bool) (float64, error) {
	v, ok := o.Raw(key)
	if !ok {
		if required {
			return 0, missing(key)
		}
		return def, nil
	}
	switch val := v.(type) {
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, invalid(key, v, "a number")
		}
		return f, nil
	}
	return 0, invalid(key, v, "a number")
}

func (o Options) Bool(key string, def bool, required bool) (bool, error) {
	v, ok := o.Raw(key)
	if !ok {
		if required {
			return false, missing(key)
		}
		return def, nil
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case int:
		return val != 0, nil
	case int64:
		return val != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off", "":
			return false, nil
		}
	}
	return false, invalid(key, v, "a boolean")
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func (o Options) Date(key string, def time.Time, required bool) (time.Time, error) {
	v, ok := o.Raw(key)
	if !ok {
		if required {
			return time.Time{}, missing(key)
		}
		return def, nil
	}
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		for _, layout := range dateLayouts {
			d, err := time.Parse(layout, strings.TrimSpace(val))
			if err == nil {
				return d, nil
			}
		}
	}
	return time.Time{}, invalid(key, v, "a date (YYYY-MM-DD or RFC3339)")
}

func (o Options) Interval(key string, def Interval, required bool) (Interval, error) {
	v, ok := o.Raw(key)
	if !ok {
		if required {
			return Interval{}, missing(key)
		}
		return def, nil
	}
	s, isString := v.(string)
	if !isString {
		return Interval{}, invalid(key, v, `an interval such as "3 days"`)
	}
	i, err := ParseInterval(s)
	if err != nil {
		return Interval{}, errs.NewConfigurationError("option %q: %s", key, err)
	}
	return i, nil
}

// StringList accepts either a list or a single scalar.
func (o Options) StringList(key string, required bool) ([]string, error) {
	v, ok := o.Raw(key)
	if !ok {
		if required {
			return nil, missing(key)
		}
		return nil, nil
	}
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...), nil
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if item == nil {
				return nil, invalid(key, v, "a list of strings")
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		return []string{val}, nil
	}
	return nil, invalid(key, v, "a list of strings")
}

// Sub returns the nested option map stored under key, or empty options.
func (o Options) Sub(key string) (Options, error) {
	v, ok := o.Raw(key)
	if !ok {
		return Options{}, nil
	}
	switch val := v.(type) {
	case Options:
		return val, nil
	case map[string]interface{}:
		return NewOptions(val), nil
	}
	return Options{}, invalid(key, v, "a map of options")
}
