//go:build unit

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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationErrorNamesTableAndTarget(t *testing.T) {
	err := NewConfigurationError("option %q is required", "value")
	located := AsConfigurationError(fmt.Errorf("building: %w", err), "users", "email", "constant")

	assert.Equal(t, `configuration: table "users": target "email": anonymizer "constant": option "value" is required`, located.Error())
	assert.True(t, IsConfigurationError(located))
	// the original is left untouched
	assert.Empty(t, err.Table)
}

func TestAsConfigurationErrorWrapsForeignErrors(t *testing.T) {
	cause := errors.New("boom")
	located := AsConfigurationError(cause, "users", "", "")

	assert.ErrorIs(t, located, cause)
	assert.Contains(t, located.Error(), `table "users"`)
}

func TestExecutionErrorUnwrap(t *testing.T) {
	cause := errors.New("syntax error")
	err := fmt.Errorf("run: %w", NewExecutionError("users", []string{"email", "name"}, STEP_EXECUTE, cause))

	assert.True(t, IsExecutionError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `anonymize table "users": targets=[email, name]: step=execute`)
	assert.False(t, IsSelectionError(err))
}
