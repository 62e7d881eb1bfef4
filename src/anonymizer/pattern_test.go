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
package anonymizer

import (
	"context"
	"regexp"
	"strings"
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/joinid"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

func TestPatternOfSingleColumnAnonymizers(t *testing.T) {
	conn := openTestSQLite(t)
	createUsers(t, conn, 6)
	r := NewRegistry()
	a := create(t, r, conn, "users", "email", "pattern", map[string]interface{}{
		"pattern": "Range [1-1000] for {email}",
		"email":   map[string]interface{}{"domain": "example.org"},
	})
	assert.Equal(t, SHAPE_SINGLE, a.Shape())
	run(t, conn, "users", a)

	re := regexp.MustCompile(`^Range (\d+) for [0-9a-f]{32}@example\.org$`)
	for i, email := range queryColumn(t, conn, `SELECT email FROM users ORDER BY id`) {
		if (i+1)%3 == 0 {
			assert.False(t, email.Valid)
			continue
		}
		require.Regexp(t, re, email.String)
	}
}

func TestPatternOfSampledAnonymizers(t *testing.T) {
	conn := openTestSQLite(t)
	createUsers(t, conn, 4)
	r := NewRegistry()
	a := create(t, r, conn, "users", "name", "pattern", map[string]interface{}{
		"pattern": `{string} \{and\} {string} from {address:locality}`,
		"string":  map[string]interface{}{"sample": []interface{}{"x", "y", "z", "w"}},
	})
	assert.Equal(t, SHAPE_CORRELATED, a.Shape())
	run(t, conn, "users", a)

	re := regexp.MustCompile(`^([xyzw]) \{and\} ([xyzw]) from [A-Z][A-Za-z .'-]+$`)
	for _, name := range queryColumn(t, conn, `SELECT name FROM users`) {
		m := re.FindStringSubmatch(name.String)
		require.NotNil(t, m, name.String)
	}
	assertNoSampleTables(t, conn)
}

func TestPatternJoinsOncePerReferenceOccurrence(t *testing.T) {
	conn := openTestSQLite(t)
	createUsers(t, conn, 3)
	ctx := context.Background()
	r := NewRegistry()
	a := create(t, r, conn, "users", "name", "pattern", map[string]interface{}{
		"pattern": "{firstname} {firstname} {lastname} [0,9]",
	})
	assert.Equal(t, []string{"firstname", "lastname"}, a.(*patternAnonymizer).order)

	u := sqlbuilder.NewUpdate("users", joinid.New(conn).Column)
	assert.ErrorContains(t, a.Anonymize(ctx, u), "before initialization")

	require.NoError(t, a.Initialize(ctx))
	defer func() { require.NoError(t, a.Clean(ctx)) }()
	u = sqlbuilder.NewUpdate("users", joinid.New(conn).Column)
	require.NoError(t, a.Anonymize(ctx, u))
	query, _ := sqlbuilder.Build(conn.Dialect(), u)
	assert.Equal(t, 3, strings.Count(query, " LEFT JOIN "))
	assert.True(t, u.HasJoin(alias("users", "name", "firstname", "0")))
	assert.True(t, u.HasJoin(alias("users", "name", "firstname", "1")))
	assert.True(t, u.HasJoin(alias("users", "name", "lastname", "0")))
}

func TestPatternValueExpression(t *testing.T) {
	conn := newPostgresConn(t)
	r := NewRegistry()
	a := create(t, r, conn, "users", "code", "pattern", map[string]interface{}{
		"pattern": `ID-[100,999]-{md5}`,
		"md5":     map[string]interface{}{"use_salt": false},
	})
	e, err := a.(ValueProducer).ValueExpression(context.Background())
	require.NoError(t, err)
	query, args := sqlbuilder.Build(conn.Dialect(), e)
	assert.Equal(t, `(CAST($1 AS text) || CAST((CAST(floor(random() * 900) AS bigint) + 100) AS text) || `+
		`CAST($2 AS text) || CAST(md5(CAST("_target_table"."code" AS text)) AS text))`, query)
	assert.Equal(t, []interface{}{"ID-", "-"}, args)
	_, err = pg_query.Parse("SELECT " + query + ` FROM users AS "_target_table"`)
	assert.NoError(t, err)

	sampled := create(t, r, conn, "users", "code", "pattern", map[string]interface{}{"pattern": "{lastname}"})
	_, err = sampled.(ValueProducer).ValueExpression(context.Background())
	assert.Error(t, err)
}

func TestPatternErrors(t *testing.T) {
	r := NewRegistry()
	conn := newPostgresConn(t)
	for pattern, msg := range map[string]string{
		"":                        "empty",
		"[1,2":                    "",
		"{nope}":                  `unknown anonymizer "nope"`,
		"{pattern}":               "cannot reference another pattern",
		"{address}":               "use {address:<column>}",
		"{email:domain}":          `"email" has no columns`,
		"{address:planet}":        `unknown sample column "planet"`,
		"{firstname} {email:foo}": `"email" has no columns`,
	} {
		_, err := r.Create(conn, NewContext("", ""), anonconfig.AnonymizerConfig{
			Table: "users", Target: "name", Anonymizer: "pattern",
			Options: anonconfig.NewOptions(map[string]interface{}{"pattern": pattern}),
		})
		require.Error(t, err, pattern)
		assert.True(t, errs.IsConfigurationError(err), pattern)
		assert.Contains(t, err.Error(), msg, pattern)
	}

	_, err := r.Create(conn, NewContext("", ""), anonconfig.AnonymizerConfig{
		Table: "users", Target: "name", Anonymizer: "pattern",
		Options: anonconfig.NewOptions(map[string]interface{}{"pattern": "{email}", "emial": map[string]interface{}{}}),
	})
	assert.ErrorContains(t, err, `unknown option "emial"`)

	_, err = r.Create(conn, NewContext("", ""), anonconfig.AnonymizerConfig{
		Table: "users", Target: "name", Anonymizer: "pattern",
		Options: anonconfig.NewOptions(map[string]interface{}{"pattern": "{email}", "email": map[string]interface{}{"domain": "bad domain"}}),
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "reference {email}"), err.Error())
}

type failingAnonymizer struct {
	base
	cleaned *[]string
	fail    bool
}

func (a *failingAnonymizer) Shape() Shape { return SHAPE_SINGLE }

func (a *failingAnonymizer) Anonymize(context.Context, *sqlbuilder.Update) error { return nil }

func (a *failingAnonymizer) ValueExpression(context.Context) (sqlbuilder.Expr, error) {
	return sqlbuilder.Value(a.target), nil
}

func (a *failingAnonymizer) Clean(context.Context) error {
	*a.cleaned = append(*a.cleaned, a.target)
	if a.fail {
		return errs.NewConfigurationError("cannot clean")
	}
	return nil
}

func TestPatternCleansEveryChild(t *testing.T) {
	var cleaned []string
	p := &patternAnonymizer{
		children: map[string]Anonymizer{
			"a": &failingAnonymizer{base: base{target: "a"}, cleaned: &cleaned, fail: true},
			"b": &failingAnonymizer{base: base{target: "b"}, cleaned: &cleaned},
			"c": &failingAnonymizer{base: base{target: "c"}, cleaned: &cleaned, fail: true},
		},
		order: []string{"a", "b", "c"},
	}
	err := p.Clean(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cleaned)
	assert.Contains(t, err.Error(), "clean {a}")
	assert.Contains(t, err.Error(), "clean {c}")
}
