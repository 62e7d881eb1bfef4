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
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	pg_query "github.com/pganalyze/pg_query_go/v5"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/joinid"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

func openTestSQLite(t *testing.T) *dbconn.Conn {
	conn, err := dbconn.Open(context.Background(), &dbconn.Source{
		Vendor: sqlbuilder.SQLITE,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// newPostgresConn returns a connection that is only used to render SQL.
func newPostgresConn(t *testing.T) *dbconn.Conn {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	conn, err := dbconn.New(context.Background(), db, sqlbuilder.POSTGRESQL, "public")
	require.NoError(t, err)
	return conn
}

func mustExec(t *testing.T, conn *dbconn.Conn, query string, args ...interface{}) {
	_, err := conn.Exec(context.Background(), query, args...)
	require.NoError(t, err)
}

// createUsers creates users(id, email, age, name) with n rows. Every third
// row has NULL email and age.
func createUsers(t *testing.T, conn *dbconn.Conn, n int) {
	mustExec(t, conn, `CREATE TABLE users (id integer PRIMARY KEY, email text, age integer, name text)`)
	for i := 1; i <= n; i++ {
		if i%3 == 0 {
			mustExec(t, conn, `INSERT INTO users VALUES (?, NULL, NULL, ?)`, i, fmt.Sprintf("user%d", i))
			continue
		}
		mustExec(t, conn, `INSERT INTO users VALUES (?, ?, ?, ?)`, i, fmt.Sprintf("user%d@corp.com", i), 20+i, fmt.Sprintf("user%d", i))
	}
}

func create(t *testing.T, r *Registry, conn *dbconn.Conn, table, target, id string, options map[string]interface{}) Anonymizer {
	a, err := r.Create(conn, NewContext("salt", ""), anonconfig.AnonymizerConfig{
		Table:      table,
		Target:     target,
		Anonymizer: id,
		Options:    anonconfig.NewOptions(options),
	})
	require.NoError(t, err)
	return a
}

// run applies anonymizers to table in one statement, the way a run does.
func run(t *testing.T, conn *dbconn.Conn, table string, anonymizers ...Anonymizer) {
	ctx := context.Background()
	m := joinid.New(conn)
	require.NoError(t, m.Ensure(ctx, table))
	u := sqlbuilder.NewUpdate(table, m.Column)
	for _, a := range anonymizers {
		require.NoError(t, a.Initialize(ctx))
		require.NoError(t, a.Anonymize(ctx, u))
	}
	_, err := conn.ExecExpr(ctx, u)
	require.NoError(t, err)
	for _, a := range anonymizers {
		require.NoError(t, a.Clean(ctx))
	}
	require.NoError(t, m.Remove(ctx, table))
}

func queryColumn(t *testing.T, conn *dbconn.Conn, query string) []sql.NullString {
	rows, err := conn.DB().Query(query)
	require.NoError(t, err)
	defer rows.Close()
	var values []sql.NullString
	for rows.Next() {
		var v sql.NullString
		require.NoError(t, rows.Scan(&v))
		values = append(values, v)
	}
	require.NoError(t, rows.Err())
	return values
}

func assertNoSampleTables(t *testing.T, conn *dbconn.Conn) {
	tables, err := conn.ListTables(context.Background())
	require.NoError(t, err)
	for _, table := range tables {
		assert.False(t, strings.HasPrefix(table, SAMPLE_TABLE_PREFIX), table)
	}
}

func TestNewContext(t *testing.T) {
	actx := NewContext("", "/etc/anonymizer")
	assert.NotEmpty(t, actx.Salt)
	assert.NotEqual(t, actx.Salt, NewContext("", "").Salt)
	assert.Equal(t, "fixed", NewContext("fixed", "").Salt)

	assert.Equal(t, "/etc/anonymizer/names.txt", actx.ResolvePath("names.txt"))
	assert.Equal(t, "/data/names.txt", actx.ResolvePath("/data/names.txt"))
	assert.Equal(t, "names.txt", NewContext("", "").ResolvePath("names.txt"))
}

func TestShapes(t *testing.T) {
	assert.False(t, SHAPE_SINGLE.NeedsJoinIdentity())
	assert.True(t, SHAPE_CORRELATED.NeedsJoinIdentity())
	assert.True(t, SHAPE_TABLE_LEVEL.NeedsJoinIdentity())
	assert.Equal(t, "table-level", SHAPE_TABLE_LEVEL.String())
}

func TestSingleColumnSQL(t *testing.T) {
	r := NewRegistry()
	conn := newPostgresConn(t)
	for _, tc := range []struct {
		id       string
		options  map[string]interface{}
		contains []string
	}{
		{id: "null", contains: []string{`"email" = NULL`}},
		{id: "constant", options: map[string]interface{}{"value": "redacted"}, contains: []string{
			`CASE WHEN "_target_table"."email" IS NULL THEN "_target_table"."email" ELSE $1 END`,
		}},
		{id: "constant", options: map[string]interface{}{"value": "n/a", "null_agnostic": true}, contains: []string{`SET "email" = $1`}},
		{id: "md5", contains: []string{`md5(CAST((CAST("_target_table"."email" AS text) || CAST($1 AS text)) AS text))`}},
		{id: "md5", options: map[string]interface{}{"use_salt": false}, contains: []string{`md5(CAST("_target_table"."email" AS text))`}},
		{id: "email", options: map[string]interface{}{"domain": "example.org"}, contains: []string{"md5(", " || CAST($2 AS text)"}},
		{id: "integer", options: map[string]interface{}{"min": 200, "max": 556}, contains: []string{"(CAST(floor(random() * 357) AS bigint) + 200)"}},
		{id: "integer", options: map[string]interface{}{"delta": 10}, contains: []string{`("_target_table"."email" + (CAST(floor(random() * 21) AS bigint) + (-10)))`}},
		{id: "float", options: map[string]interface{}{"min": 0, "max": 1, "precision": 3}, contains: []string{"round(", ", 3)"}},
		{id: "date", options: map[string]interface{}{"delta": "2 weeks"}, contains: []string{"INTERVAL '1 day'"}},
	} {
		t.Run(tc.id, func(t *testing.T) {
			a := create(t, r, conn, "users", "email", tc.id, tc.options)
			assert.Equal(t, SHAPE_SINGLE, a.Shape())
			u := sqlbuilder.NewUpdate("users", func(alias string) sqlbuilder.Expr { return sqlbuilder.Col(alias, "id") })
			require.NoError(t, a.Anonymize(context.Background(), u))
			query, _ := sqlbuilder.Build(conn.Dialect(), u)
			for _, fragment := range tc.contains {
				assert.Contains(t, query, fragment)
			}
			_, err := pg_query.Parse(query)
			assert.NoError(t, err, query)
		})
	}
}

func TestOptionValidation(t *testing.T) {
	r := NewRegistry()
	conn := newPostgresConn(t)
	for _, tc := range []struct {
		id      string
		options map[string]interface{}
		msg     string
	}{
		{"integer", map[string]interface{}{}, `one of option "min" or "delta" or "percent" is required`},
		{"integer", map[string]interface{}{"min": 1}, `option "max" is required together with "min"`},
		{"integer", map[string]interface{}{"min": 1, "max": 2, "delta": 3}, `option "min" cannot be combined with "delta" or "percent"`},
		{"integer", map[string]interface{}{"min": 10, "max": 2}, "greater than"},
		{"integer", map[string]interface{}{"delta": -3}, `option "delta" must be greater than 0`},
		{"integer", map[string]interface{}{"min": int64(math.MinInt64), "max": int64(math.MaxInt64)}, "is too wide"},
		{"integer", map[string]interface{}{"min": int64(-1), "max": int64(math.MaxInt64)}, "is too wide"},
		{"integer", map[string]interface{}{"delta": int64(math.MaxInt64/2 + 1)}, `option "delta" (4611686018427387904) is too large`},
		{"float", map[string]interface{}{"min": 0, "max": 1, "precision": 16}, `option "precision" must be less than or equal to 15`},
		{"constant", map[string]interface{}{"value": "x", "type": "blob"}, `option "type" must be one of`},
		{"constant", map[string]interface{}{}, `option "value" is required`},
		{"email", map[string]interface{}{"domain": "not a domain"}, "is not a valid domain name"},
		{"md5", map[string]interface{}{"salt": true}, `unknown option "salt"`},
		{"integer", map[string]interface{}{"min": 1, "max": 2, "maxx": 3}, `unknown option "maxx" (expected one of: min, max, delta, percent)`},
		{"string", map[string]interface{}{"sample": []interface{}{}}, `option "sample" needs at least 1 entries`},
		{"file-enum", map[string]interface{}{"source": "/nonexistent/names.txt"}, "no such file"},
		{"date", map[string]interface{}{"min": "2020-01-01", "max": "2020-12-31", "delta": "1 day"}, "cannot be combined"},
		{"address", map[string]interface{}{"town": "city"}, `unknown sample column "town"`},
		{"address", map[string]interface{}{"locality": "city", "region": "city"}, `both mapped to column "city"`},
		{"address", map[string]interface{}{}, "no sample column is mapped"},
		{"unknown", map[string]interface{}{}, `unknown anonymizer "unknown"`},
	} {
		_, err := r.Create(conn, NewContext("", ""), anonconfig.AnonymizerConfig{
			Table: "users", Target: "email", Anonymizer: tc.id, Options: anonconfig.NewOptions(tc.options),
		})
		require.Error(t, err, "%s %v", tc.id, tc.options)
		var cerr *errs.ConfigurationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "users", cerr.Table)
		assert.Equal(t, "email", cerr.Target)
		assert.Equal(t, tc.id, cerr.Anonymizer)
		assert.Contains(t, err.Error(), tc.msg)
	}
}

func TestNullPreservation(t *testing.T) {
	conn := openTestSQLite(t)
	createUsers(t, conn, 9)
	r := NewRegistry()
	run(t, conn, "users",
		create(t, r, conn, "users", "email", "email", nil),
		create(t, r, conn, "users", "age", "integer", map[string]interface{}{"min": 200, "max": 556}),
	)

	emails := queryColumn(t, conn, `SELECT email FROM users ORDER BY id`)
	ages := queryColumn(t, conn, `SELECT age FROM users ORDER BY id`)
	pattern := regexp.MustCompile(`^[0-9a-f]{32}@example\.com$`)
	for i := range emails {
		if (i+1)%3 == 0 {
			assert.False(t, emails[i].Valid)
			assert.False(t, ages[i].Valid)
			continue
		}
		assert.Regexp(t, pattern, emails[i].String)
		assert.True(t, ages[i].Valid)
	}

	// null is the only strategy writing NULLs
	run(t, conn, "users", create(t, r, conn, "users", "name", "null", nil))
	for _, name := range queryColumn(t, conn, `SELECT name FROM users`) {
		assert.False(t, name.Valid)
	}
}

func TestSaltedHashesAreConsistent(t *testing.T) {
	conn := openTestSQLite(t)
	mustExec(t, conn, `CREATE TABLE t (a text, b text)`)
	mustExec(t, conn, `INSERT INTO t VALUES ('x', 'x'), ('y', 'x')`)
	r := NewRegistry()
	run(t, conn, "t",
		create(t, r, conn, "t", "a", "md5", nil),
		create(t, r, conn, "t", "b", "md5", nil),
	)
	a := queryColumn(t, conn, `SELECT a FROM t ORDER BY rowid`)
	b := queryColumn(t, conn, `SELECT b FROM t ORDER BY rowid`)
	assert.Equal(t, a[0], b[0])
	assert.Equal(t, b[0], b[1])
	assert.NotEqual(t, a[0], a[1])
	assert.NotEqual(t, "9dd4e461268c8034f5c8564e155c67a6", a[0].String, "md5 of x is salted")
}

func TestIntegerRange(t *testing.T) {
	conn := openTestSQLite(t)
	createUsers(t, conn, 50)
	r := NewRegistry()
	run(t, conn, "users", create(t, r, conn, "users", "age", "integer", map[string]interface{}{"min": 200, "max": 556}))

	var n int64
	err := conn.DB().QueryRow(`SELECT count(*) FROM users WHERE age IS NOT NULL AND (age < 200 OR age > 556)`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDateRange(t *testing.T) {
	conn := openTestSQLite(t)
	mustExec(t, conn, `CREATE TABLE events (born text)`)
	for i := 0; i < 20; i++ {
		mustExec(t, conn, `INSERT INTO events VALUES ('1990-06-15')`)
	}
	r := NewRegistry()
	run(t, conn, "events", create(t, r, conn, "events", "born", "date", map[string]interface{}{
		"min": "2000-01-01", "max": "2000-12-31", "format": "date",
	}))
	for _, v := range queryColumn(t, conn, `SELECT born FROM events`) {
		require.True(t, v.Valid)
		assert.Regexp(t, `^2000-\d\d-\d\d$`, v.String)
	}
}

func TestEnumWithoutDuplicates(t *testing.T) {
	conn := openTestSQLite(t)
	createUsers(t, conn, 2)
	mustExec(t, conn, `INSERT INTO users VALUES (3, 'c@corp.com', 1, 'user3')`)
	sample := []interface{}{"alpha", "beta", "gamma", "delta", "epsilon"}
	r := NewRegistry()
	a := create(t, r, conn, "users", "name", "string", map[string]interface{}{"sample": sample})
	assert.Equal(t, SHAPE_CORRELATED, a.Shape())
	run(t, conn, "users", a)

	names := lo.Map(queryColumn(t, conn, `SELECT name FROM users`), func(v sql.NullString, _ int) string { return v.String })
	assert.Len(t, lo.Uniq(names), 3)
	for _, name := range names {
		assert.Contains(t, sample, name)
	}
	assertNoSampleTables(t, conn)
}

func TestEnumDegradesEvenly(t *testing.T) {
	conn := openTestSQLite(t)
	mustExec(t, conn, `CREATE TABLE t (v text)`)
	for i := 0; i < 10; i++ {
		mustExec(t, conn, `INSERT INTO t VALUES ('x')`)
	}
	r := NewRegistry()
	run(t, conn, "t", create(t, r, conn, "t", "v", "string", map[string]interface{}{"sample": []interface{}{"a", "b", "c"}}))

	counts := lo.CountValues(lo.Map(queryColumn(t, conn, `SELECT v FROM t`), func(v sql.NullString, _ int) string { return v.String }))
	assert.Len(t, counts, 3)
	assert.ElementsMatch(t, []int{3, 3, 4}, lo.Values(counts))
}

func TestEmbeddedEnums(t *testing.T) {
	conn := openTestSQLite(t)
	createUsers(t, conn, 6)
	r := NewRegistry()
	run(t, conn, "users", create(t, r, conn, "users", "name", "firstname", nil))

	firstnames, err := readLines(strings.NewReader(firstnameData))
	require.NoError(t, err)
	for _, name := range queryColumn(t, conn, `SELECT name FROM users`) {
		assert.Contains(t, firstnames, name.String)
	}
}

func TestFileEnumRelativeToBasePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cities.txt"), []byte("Paris\n\nLyon\n  Nantes  \n"), 0644))
	conn := openTestSQLite(t)
	createUsers(t, conn, 4)

	a, err := NewRegistry().Create(conn, NewContext("", dir), anonconfig.AnonymizerConfig{
		Table: "users", Target: "name", Anonymizer: "file-enum",
		Options: anonconfig.NewOptions(map[string]interface{}{"source": "cities.txt"}),
	})
	require.NoError(t, err)
	run(t, conn, "users", a)
	for _, name := range queryColumn(t, conn, `SELECT name FROM users`) {
		assert.Contains(t, []string{"Paris", "Lyon", "Nantes"}, name.String)
	}
}

func TestAddressKeepsColumnsConsistent(t *testing.T) {
	conn := openTestSQLite(t)
	mustExec(t, conn, `CREATE TABLE customers (street text, city text, zip text)`)
	for i := 0; i < 30; i++ {
		mustExec(t, conn, `INSERT INTO customers VALUES ('1 Main St', 'Springfield', '00000')`)
	}
	r := NewRegistry()
	a := create(t, r, conn, "customers", "address", "address", map[string]interface{}{
		"street_address": "street",
		"locality":       "city",
		"postal_code":    "zip",
	})
	assert.Equal(t, SHAPE_TABLE_LEVEL, a.Shape())
	run(t, conn, "customers", a)

	columns, records, err := readCSV(strings.NewReader(addressData), csvOptions{header: true})
	require.NoError(t, err)
	street, city, zip := lo.IndexOf(columns, "street_address"), lo.IndexOf(columns, "locality"), lo.IndexOf(columns, "postal_code")
	known := lo.SliceToMap(records, func(r []string) (string, bool) {
		return r[street] + "|" + r[city] + "|" + r[zip], true
	})

	rows, err := conn.DB().Query(`SELECT street, city, zip FROM customers`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var s, c, z string
		require.NoError(t, rows.Scan(&s, &c, &z))
		assert.True(t, known[s+"|"+c+"|"+z], "%s|%s|%s", s, c, z)
	}
	require.NoError(t, rows.Err())
}

func TestFileColumn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.csv"), []byte("Ada;Lovelace\nAlan;Turing\n"), 0644))
	conn := openTestSQLite(t)
	mustExec(t, conn, `CREATE TABLE people (first text, last text)`)
	mustExec(t, conn, `INSERT INTO people VALUES ('a', 'b'), ('c', NULL)`)

	a, err := NewRegistry().Create(conn, NewContext("", dir), anonconfig.AnonymizerConfig{
		Table: "people", Target: "names", Anonymizer: "file-column",
		Options: anonconfig.NewOptions(map[string]interface{}{
			"source":       "people.csv",
			"separator":    ";",
			"header":       false,
			"column_names": []interface{}{"given", "family"},
			"given":        "first",
			"family":       "last",
		}),
	})
	require.NoError(t, err)
	run(t, conn, "people", a)

	firsts := queryColumn(t, conn, `SELECT first FROM people ORDER BY rowid`)
	lasts := queryColumn(t, conn, `SELECT last FROM people ORDER BY rowid`)
	pairs := map[string]string{"Ada": "Lovelace", "Alan": "Turing"}
	assert.Equal(t, pairs[firsts[0].String], lasts[0].String)
	assert.Contains(t, pairs, firsts[1].String)
	assert.False(t, lasts[1].Valid)
}

func TestFileColumnNeedsColumnNamesWithoutHeader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.csv"), []byte("Ada,Lovelace\n"), 0644))
	_, err := NewRegistry().Create(newPostgresConn(t), NewContext("", dir), anonconfig.AnonymizerConfig{
		Table: "people", Target: "names", Anonymizer: "file-column",
		Options: anonconfig.NewOptions(map[string]interface{}{"source": "people.csv", "header": false}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `option "column_names" is required when "header" is false`)
}

func TestSamplerCleanAfterFailedInitialize(t *testing.T) {
	conn := openTestSQLite(t)
	ctx := context.Background()

	empty := NewSampler(conn, []string{ENUM_COLUMN}, func() ([][]interface{}, error) { return nil, nil })
	err := empty.Initialize(ctx)
	assert.True(t, errs.IsConfigurationError(err))
	assert.NoError(t, empty.Clean(ctx))

	// duplicate column names make the CREATE TABLE fail
	broken := NewSampler(conn, []string{"v", "v"}, func() ([][]interface{}, error) {
		return [][]interface{}{{"a", "b"}}, nil
	})
	require.Error(t, broken.Initialize(ctx))
	assert.NotEmpty(t, broken.Table())
	require.NoError(t, broken.Clean(ctx))
	assert.Empty(t, broken.Table())
	assertNoSampleTables(t, conn)
}

func TestCSVRecordLineNumbers(t *testing.T) {
	_, _, err := readCSV(strings.NewReader("name,siren\nacme,1\nbeta\n"), csvOptions{header: true})
	assert.EqualError(t, err, "CSV record at line 3 has 1 fields, expected 2")

	_, _, err = readCSV(strings.NewReader("acme,1\n\nbeta\n"), csvOptions{columns: []string{"name", "siren"}})
	assert.EqualError(t, err, "CSV record at line 3 has 1 fields, expected 2")
}
