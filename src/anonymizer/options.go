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
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/errs"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report option (or pack file) names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("option")
		if name == "" {
			name, _, _ = strings.Cut(f.Tag.Get("yaml"), ",")
		}
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateOptions checks the validate tags of a typed option struct.
func validateOptions(cfg interface{}) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.NewConfigurationError("invalid options: %s", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(cfg, fe))
	}
	return errs.NewConfigurationError("%s", strings.Join(msgs, "; "))
}

func describeFieldError(cfg interface{}, fe validator.FieldError) string {
	name := fe.Field()
	param := optionNames(cfg, fe.Param())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("option %q is required", name)
	case "required_with":
		return fmt.Sprintf("option %q is required together with %s", name, param)
	case "required_without_all":
		return fmt.Sprintf("one of option %q or %s is required", name, param)
	case "excluded_with":
		return fmt.Sprintf("option %q cannot be combined with %s", name, param)
	case "required_if":
		return fmt.Sprintf("option %q is required when %s", name, requiredIfCondition(cfg, fe.Param()))
	case "excluded_unless":
		return fmt.Sprintf("option %q is only allowed when %s", name, requiredIfCondition(cfg, fe.Param()))
	case "ne":
		return fmt.Sprintf("option %q cannot be %q", name, fe.Param())
	case "excludesall":
		return fmt.Sprintf("option %q cannot contain any of %q", name, fe.Param())
	case "file":
		return fmt.Sprintf("option %q: no such file %q", name, fe.Value())
	case "len":
		return fmt.Sprintf("option %q must be exactly %s characters long", name, fe.Param())
	case "hostname_rfc1123":
		return fmt.Sprintf("option %q: %q is not a valid domain name", name, fe.Value())
	case "oneof":
		return fmt.Sprintf("option %q must be one of [%s]", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("option %q needs at least %s entries", name, fe.Param())
		}
		return fmt.Sprintf("option %q must be at least %s", name, fe.Param())
	case "gt":
		return fmt.Sprintf("option %q must be greater than %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("option %q must be greater than or equal to %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("option %q must be less than or equal to %s", name, fe.Param())
	}
	return fmt.Sprintf("option %q fails rule %q", name, fe.Tag())
}

// optionNames maps the space separated Go field names of a cross-field rule
// parameter to quoted option names.
func optionNames(cfg interface{}, param string) string {
	t := reflect.TypeOf(cfg)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var names []string
	for _, field := range strings.Fields(param) {
		name := field
		if f, ok := t.FieldByName(field); ok && f.Tag.Get("option") != "" {
			name = f.Tag.Get("option")
		}
		names = append(names, fmt.Sprintf("%q", name))
	}
	return strings.Join(names, " or ")
}

// requiredIfCondition renders a "Field value" rule parameter.
func requiredIfCondition(cfg interface{}, param string) string {
	fields := strings.Fields(param)
	if len(fields) != 2 {
		return param
	}
	return fmt.Sprintf("%s is %s", optionNames(cfg, fields[0]), fields[1])
}

// checkKnownOptions rejects option keys a strategy does not read, which are
// almost always typos.
func checkKnownOptions(o anonconfig.Options, known ...string) error {
	for _, key := range o.Keys() {
		if !lo.Contains(known, key) {
			return errs.NewConfigurationError("unknown option %q (expected one of: %s)", key, strings.Join(known, ", "))
		}
	}
	return nil
}

func optionalInt(o anonconfig.Options, key string) (*int64, error) {
	if !o.Has(key) {
		return nil, nil
	}
	v, err := o.Int(key, 0, true)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalFloat(o anonconfig.Options, key string) (*float64, error) {
	if !o.Has(key) {
		return nil, nil
	}
	v, err := o.Float(key, 0, true)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
