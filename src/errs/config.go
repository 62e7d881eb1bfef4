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

package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError is raised while building anonymizers: unknown
// anonymizer id, missing or invalid option, malformed pattern. It is never
// raised once data mutation has started.
type ConfigurationError struct {
	Table      string
	Target     string
	Anonymizer string
	Msg        string
	Err        error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration")
	if e.Table != "" {
		fmt.Fprintf(&b, ": table %q", e.Table)
	}
	if e.Target != "" {
		fmt.Fprintf(&b, ": target %q", e.Target)
	}
	if e.Anonymizer != "" {
		fmt.Fprintf(&b, ": anonymizer %q", e.Anonymizer)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// WithTarget returns a copy of e located at table/target/anonymizer. Fields
// already set are kept.
func (e *ConfigurationError) WithTarget(table, target, anonymizer string) *ConfigurationError {
	c := *e
	if c.Table == "" {
		c.Table = table
	}
	if c.Target == "" {
		c.Target = target
	}
	if c.Anonymizer == "" {
		c.Anonymizer = anonymizer
	}
	return &c
}

// AsConfigurationError locates err at table/target, wrapping it into a
// ConfigurationError if it is not one already.
func AsConfigurationError(err error, table, target, anonymizer string) *ConfigurationError {
	var cerr *ConfigurationError
	if errors.As(err, &cerr) {
		return cerr.WithTarget(table, target, anonymizer)
	}
	return &ConfigurationError{
		Table:      table,
		Target:     target,
		Anonymizer: anonymizer,
		Msg:        "invalid configuration",
		Err:        err,
	}
}

func IsConfigurationError(err error) bool {
	var cerr *ConfigurationError
	return errors.As(err, &cerr)
}

// SelectionError reports conflicting or unknown table/target selections
// passed to a run. It is raised before planning begins.
type SelectionError struct {
	Msg string
}

func (e *SelectionError) Error() string {
	return "selection: " + e.Msg
}

func NewSelectionError(format string, args ...interface{}) *SelectionError {
	return &SelectionError{Msg: fmt.Sprintf(format, args...)}
}

func IsSelectionError(err error) bool {
	var serr *SelectionError
	return errors.As(err, &serr)
}
