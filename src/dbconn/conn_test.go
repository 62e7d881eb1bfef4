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
package dbconn

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

func createMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func openTestSQLite(t *testing.T) *Conn {
	conn, err := Open(context.Background(), &Source{
		Vendor: sqlbuilder.SQLITE,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestParseServerVersion(t *testing.T) {
	for banner, expected := range map[string]string{
		"15.3 (Debian 15.3-1.pgdg120+1)":        "15.3.0",
		"8.0.33":                                "8.0.33",
		"10.6.12-MariaDB-1:10.6.12+maria~ubu20": "10.6.12",
		"16.0.1000.6":                           "16.0.1000.6",
	} {
		v, err := ParseServerVersion(banner)
		require.NoError(t, err, banner)
		assert.Equal(t, expected, v.String(), banner)
	}
	_, err := ParseServerVersion("unknown")
	assert.Error(t, err)
}

func TestCheckVersionPostgres(t *testing.T) {
	ctx := context.Background()
	db, mock := createMockDB(t)
	mock.ExpectQuery("SELECT current_schema()").
		WillReturnRows(sqlmock.NewRows([]string{"current_schema"}).AddRow("public"))
	mock.ExpectQuery("SHOW server_version").
		WillReturnRows(sqlmock.NewRows([]string{"server_version"}).AddRow("9.6.24"))

	conn, err := New(ctx, db, sqlbuilder.POSTGRESQL, "")
	require.NoError(t, err)
	assert.Equal(t, "public", conn.Schema())

	err = conn.CheckVersion(ctx)
	assert.ErrorContains(t, err, "postgresql 9.6.24 is not supported")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckVersionDetectsMariaDB(t *testing.T) {
	ctx := context.Background()
	db, mock := createMockDB(t)
	mock.ExpectQuery("SELECT VERSION()").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("10.11.2-MariaDB"))

	conn, err := New(ctx, db, sqlbuilder.MYSQL, "shop")
	require.NoError(t, err)
	require.NoError(t, conn.CheckVersion(ctx))
	assert.Equal(t, sqlbuilder.MARIADB, conn.Vendor())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoCurrentSchema(t *testing.T) {
	db, mock := createMockDB(t)
	mock.ExpectQuery("SELECT DATABASE()").
		WillReturnRows(sqlmock.NewRows([]string{"database"}).AddRow(nil))

	_, err := New(context.Background(), db, sqlbuilder.MYSQL, "")
	assert.ErrorContains(t, err, "no current schema")
}

func TestPostgresIntrospectionQueries(t *testing.T) {
	ctx := context.Background()
	db, mock := createMockDB(t)
	conn, err := New(ctx, db, sqlbuilder.POSTGRESQL, "public")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name").
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))
	mock.ExpectQuery("SELECT indexname FROM pg_indexes WHERE schemaname = $1 AND tablename = $2 ORDER BY indexname").
		WithArgs("sales", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"indexname"}).AddRow("orders_pkey"))
	mock.ExpectExec(`DROP INDEX IF EXISTS "sales"."_db_tools_idx_orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	tables, err := conn.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, tables)

	indexes, err := conn.ListIndexes(ctx, "sales.orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"orders_pkey"}, indexes)

	require.NoError(t, conn.DropIndex(ctx, "sales.orders", "_db_tools_idx_orders"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowsIsBatched(t *testing.T) {
	ctx := context.Background()
	db, mock := createMockDB(t)
	mock.MatchExpectationsInOrder(true)
	conn, err := New(ctx, db, sqlbuilder.POSTGRESQL, "public")
	require.NoError(t, err)

	// 3 columns: 666 rows per statement
	rows := make([][]interface{}, 1000)
	for i := range rows {
		rows[i] = []interface{}{i, fmt.Sprintf("v%d", i), nil}
	}
	first, _ := sqlbuilder.Build(conn.Dialect(), &insertStatement{table: "s", columns: []string{"a", "b", "c"}, rows: rows[:666]})
	second, _ := sqlbuilder.Build(conn.Dialect(), &insertStatement{table: "s", columns: []string{"a", "b", "c"}, rows: rows[666:]})
	assert.Contains(t, second, "($1000, $1001, $1002)")

	mock.ExpectExec(first).WillReturnResult(sqlmock.NewResult(0, 666))
	mock.ExpectExec(second).WillReturnResult(sqlmock.NewResult(0, 334))

	n, err := conn.InsertRows(ctx, "s", []string{"a", "b", "c"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowsNothingToDo(t *testing.T) {
	db, _ := createMockDB(t)
	conn, err := New(context.Background(), db, sqlbuilder.SQLITE, "")
	require.NoError(t, err)
	n, err := conn.InsertRows(context.Background(), "s", []string{"a"}, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteSchemaOperations(t *testing.T) {
	ctx := context.Background()
	conn := openTestSQLite(t)
	assert.Equal(t, "main", conn.Schema())

	require.NoError(t, conn.CreateTable(ctx, "people", []ColumnDef{
		{Name: "name", Type: sqlbuilder.TEXT},
		{Name: "age", Type: sqlbuilder.BIGINT},
	}))
	_, err := conn.InsertRows(ctx, "people", []string{"name", "age"}, [][]interface{}{{"ann", 31}, {"bob", nil}})
	require.NoError(t, err)

	require.NoError(t, conn.AddColumn(ctx, "people", "extra", "INTEGER"))
	require.NoError(t, conn.CreateIndex(ctx, "people", "people_extra", "extra"))

	tables, err := conn.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"people"}, tables)

	columns, err := conn.ListColumns(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "extra"}, columns)

	has, err := conn.HasColumn(ctx, "people", "EXTRA")
	require.NoError(t, err)
	assert.True(t, has)

	indexes, err := conn.ListIndexes(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"people_extra"}, indexes)

	require.NoError(t, conn.DropIndex(ctx, "people", "people_extra"))
	require.NoError(t, conn.DropColumn(ctx, "people", "extra"))
	columns, err = conn.ListColumns(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, columns)

	count, err := conn.CountRows(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, conn.DropTable(ctx, "people"))
	require.NoError(t, conn.DropTable(ctx, "people"))
	columns, err = conn.ListColumns(ctx, "people")
	require.NoError(t, err)
	assert.Empty(t, columns)
}

func TestSQLiteMD5Function(t *testing.T) {
	ctx := context.Background()
	conn := openTestSQLite(t)

	var hash string
	require.NoError(t, conn.DB().QueryRowContext(ctx, "SELECT md5('hello')").Scan(&hash))
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", hash)

	var null sql.NullString
	require.NoError(t, conn.DB().QueryRowContext(ctx, "SELECT md5(NULL)").Scan(&null))
	assert.False(t, null.Valid)
}

func TestIsUndefinedTable(t *testing.T) {
	conn := openTestSQLite(t)
	_, err := conn.CountRows(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsUndefinedTable(err))

	assert.True(t, IsUndefinedTable(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: PG_UNDEFINED_TABLE})))
	assert.False(t, IsUndefinedTable(&pgconn.PgError{Code: "42703"}))
	assert.True(t, IsUndefinedTable(&mysql.MySQLError{Number: MYSQL_NO_SUCH_TABLE}))
	assert.True(t, IsUndefinedTable(mssql.Error{Number: MSSQL_INVALID_OBJECT_NAME}))
	assert.False(t, IsUndefinedTable(sql.ErrNoRows))
	assert.False(t, IsUndefinedTable(nil))
}
