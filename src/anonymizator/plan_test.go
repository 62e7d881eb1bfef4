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
package anonymizator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/errs"
)

const planConfig = `
tables:
  users:
    email: {anonymizer: email}
    name: {anonymizer: firstname}
  public.orders:
    total: {anonymizer: integer, options: {delta: 10}}
  public:
    note: {anonymizer: "null"}
`

func loadConfig(t *testing.T, data string) *anonconfig.Config {
	cfg, err := anonconfig.Load([]byte(data), anonconfig.FORMAT_YAML)
	require.NoError(t, err)
	return cfg
}

func summary(plan []TablePlan) map[string][]string {
	out := make(map[string][]string)
	for _, tp := range plan {
		out[tp.Table] = tp.TargetNames()
	}
	return out
}

func TestPlanEverything(t *testing.T) {
	plan, err := Plan(loadConfig(t, planConfig), Selection{})
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, "users", plan[0].Table)
	assert.Equal(t, "public.orders", plan[1].Table)
	assert.Equal(t, "public", plan[2].Table)
	assert.Equal(t, []string{"email", "name"}, plan[0].TargetNames())
}

func TestPlanSelections(t *testing.T) {
	cfg := loadConfig(t, planConfig)
	for _, tc := range []struct {
		sel      Selection
		expected map[string][]string
	}{
		{Selection{Only: []string{"users.name"}}, map[string][]string{"users": {"name"}}},
		{Selection{Only: []string{"public.orders"}}, map[string][]string{"public.orders": {"total"}}},
		{Selection{Only: []string{"public.orders.total", "users"}}, map[string][]string{
			"users": {"email", "name"}, "public.orders": {"total"},
		}},
		{Selection{Excluded: []string{"users.email", "public"}}, map[string][]string{
			"users": {"name"}, "public.orders": {"total"},
		}},
		{Selection{Excluded: []string{"users.email", "users.name"}}, map[string][]string{
			"public.orders": {"total"}, "public": {"note"},
		}},
		{Selection{Only: []string{"public.note"}}, map[string][]string{"public": {"note"}}},
	} {
		plan, err := Plan(cfg, tc.sel)
		require.NoError(t, err, "%+v", tc.sel)
		assert.Equal(t, tc.expected, summary(plan), "%+v", tc.sel)
	}
}

func TestPlanSelectionErrors(t *testing.T) {
	cfg := loadConfig(t, planConfig)
	for _, sel := range []Selection{
		{Only: []string{"users"}, Excluded: []string{"users.email"}},
		{Only: []string{"customers"}},
		{Excluded: []string{"users.phone"}},
	} {
		_, err := Plan(cfg, sel)
		assert.True(t, errs.IsSelectionError(err), "%+v: %v", sel, err)
	}
}
