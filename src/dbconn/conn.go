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
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// MaxParametersPerStatement bounds the bind parameters of one INSERT. The
// lowest vendor ceiling is SQL Server's 2100.
const MaxParametersPerStatement = 2000

type Source struct {
	Vendor sqlbuilder.Vendor
	// DSN is handed to the vendor driver unchanged.
	DSN string
	// Schema overrides the connection's default schema (PostgreSQL, SQL Server)
	// or database (MySQL). Ignored by SQLite.
	Schema string
}

// Conn is a single physical connection to the anonymized database. All
// engine statements go through it sequentially.
type Conn struct {
	db      *sql.DB
	dialect sqlbuilder.Dialect
	schema  string
	version string
}

func driverName(v sqlbuilder.Vendor) (string, error) {
	switch v {
	case sqlbuilder.POSTGRESQL:
		return "pgx", nil
	case sqlbuilder.MYSQL, sqlbuilder.MARIADB:
		return "mysql", nil
	case sqlbuilder.SQLSERVER:
		return "sqlserver", nil
	case sqlbuilder.SQLITE:
		return SQLITE_DRIVER, nil
	}
	return "", fmt.Errorf("unknown database vendor %q", v)
}

// Open connects to src, checks the server version and resolves the working
// schema.
func Open(ctx context.Context, src *Source) (*Conn, error) {
	driver, err := driverName(src.Vendor)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", src.Vendor, err)
	}
	// join identity columns and sample tables are only visible to a single
	// session in some vendors (temp objects, user variables)
	db.SetMaxOpenConns(1)
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to %s: %w", src.Vendor, err)
	}
	c, err := New(ctx, db, src.Vendor, src.Schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	err = c.CheckVersion(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	log.Infof("connected to %s %s (schema %q)", c.Vendor(), c.version, c.schema)
	return c, nil
}

// New wraps an already opened database. An empty schema is resolved from the
// server.
func New(ctx context.Context, db *sql.DB, vendor sqlbuilder.Vendor, schema string) (*Conn, error) {
	d, err := sqlbuilder.NewDialect(vendor)
	if err != nil {
		return nil, err
	}
	c := &Conn{db: db, dialect: d, schema: schema}
	if c.schema == "" {
		c.schema, err = c.currentSchema(ctx)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Conn) currentSchema(ctx context.Context) (string, error) {
	var query string
	switch c.Vendor() {
	case sqlbuilder.POSTGRESQL:
		query = "SELECT current_schema()"
	case sqlbuilder.MYSQL, sqlbuilder.MARIADB:
		query = "SELECT DATABASE()"
	case sqlbuilder.SQLSERVER:
		query = "SELECT SCHEMA_NAME()"
	default:
		return "main", nil
	}
	var schema sql.NullString
	err := c.db.QueryRowContext(ctx, query).Scan(&schema)
	if err != nil {
		return "", fmt.Errorf("query current schema: %w", err)
	}
	if !schema.Valid || schema.String == "" {
		return "", fmt.Errorf("no current schema selected on %s connection", c.Vendor())
	}
	return schema.String, nil
}

func (c *Conn) Close() error {
	return c.db.Close()
}

func (c *Conn) DB() *sql.DB {
	return c.db
}

func (c *Conn) Dialect() sqlbuilder.Dialect {
	return c.dialect
}

func (c *Conn) Vendor() sqlbuilder.Vendor {
	return c.dialect.Vendor()
}

func (c *Conn) Schema() string {
	return c.schema
}

func (c *Conn) Version() string {
	return c.version
}

// SplitName returns the schema and the bare name of a possibly qualified
// table name, defaulting to the connection schema.
func (c *Conn) SplitName(table string) (string, string) {
	if i := strings.LastIndex(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return c.schema, table
}

// Exec runs a statement and returns the number of affected rows.
func (c *Conn) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	log.Debugf("exec: %s %v", query, args)
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("run query %q: %w", query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// some drivers cannot report it for DDL
		return 0, nil
	}
	return n, nil
}

// ExecExpr renders e with the connection dialect and runs it.
func (c *Conn) ExecExpr(ctx context.Context, e sqlbuilder.Expr) (int64, error) {
	query, args := sqlbuilder.Build(c.dialect, e)
	return c.Exec(ctx, query, args...)
}

func (c *Conn) QueryInt64(ctx context.Context, query string, args ...interface{}) (int64, error) {
	log.Debugf("query: %s %v", query, args)
	var n sql.NullInt64
	err := c.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("run query %q: %w", query, err)
	}
	return n.Int64, nil
}

func (c *Conn) QueryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	log.Debugf("query: %s %v", query, args)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run query %q: %w", query, err)
	}
	defer rows.Close()
	var result []string
	for rows.Next() {
		var s string
		err = rows.Scan(&s)
		if err != nil {
			return nil, fmt.Errorf("scan rows of query %q: %w", query, err)
		}
		result = append(result, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows of query %q: %w", query, err)
	}
	return result, nil
}

func (c *Conn) CountRows(ctx context.Context, table string) (int64, error) {
	return c.QueryInt64(ctx, "SELECT COUNT(*) FROM "+c.dialect.QuoteTable(table))
}
