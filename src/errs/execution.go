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

const (
	// steps
	STEP_INITIALIZE      = "initialize"
	STEP_ENSURE_JOIN_ID  = "ensure_join_id"
	STEP_ANONYMIZE       = "anonymize"
	STEP_EXECUTE         = "execute"
	STEP_CLEAN           = "clean"
	STEP_REMOVE_JOIN_ID  = "remove_join_id"
	STEP_COLLECT_GARBAGE = "collect_garbage"
)

// ExecutionError wraps an underlying SQL failure with the table, the
// target(s) and the step it happened in.
type ExecutionError struct {
	Table   string
	Targets []string
	Step    string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("anonymize table %q: targets=[%s]: step=%s: %s",
		e.Table, strings.Join(e.Targets, ", "), e.Step, e.Err.Error())
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func NewExecutionError(table string, targets []string, step string, err error) *ExecutionError {
	return &ExecutionError{
		Table:   table,
		Targets: targets,
		Step:    step,
		Err:     err,
	}
}

func IsExecutionError(err error) bool {
	var eerr *ExecutionError
	return errors.As(err, &eerr)
}
