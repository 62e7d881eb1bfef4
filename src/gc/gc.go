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
// Package gc finds and drops the ephemeral objects an interrupted run can
// leave behind: sample and counter tables (with the MySQL counter function),
// SQL Server sequences, join identity columns and their indexes.
package gc

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/anonymizer"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/joinid"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

type ItemKind string

const (
	KIND_TABLE    ItemKind = "table"
	KIND_COLUMN   ItemKind = "column"
	KIND_INDEX    ItemKind = "index"
	// KIND_SEQUENCE is a SQL Server join identity sequence, named by Table.
	KIND_SEQUENCE ItemKind = "sequence"
)

// Item is one leftover object. Name is empty for tables and sequences.
type Item struct {
	Kind  ItemKind
	Table string
	Name  string
}

func (i Item) String() string {
	switch i.Kind {
	case KIND_TABLE, KIND_SEQUENCE:
		return fmt.Sprintf("%s %s", i.Kind, i.Table)
	}
	return fmt.Sprintf("%s %s of table %s", i.Kind, i.Name, i.Table)
}

var (
	tablePrefixes = []string{
		anonymizer.SAMPLE_TABLE_PREFIX,
		joinid.SEQUENCE_PREFIX,
		anonymizer.DEPRECATED_SAMPLE_TABLE_PREFIX,
	}
	indexPrefixes = []string{joinid.INDEX_PREFIX, joinid.DEPRECATED_INDEX_PREFIX}
	columnNames   = []string{joinid.COLUMN, joinid.DEPRECATED_COLUMN}
)

func hasAnyPrefix(name string, prefixes []string) bool {
	name = strings.ToLower(name)
	return lo.SomeBy(prefixes, func(p string) bool { return strings.HasPrefix(name, p) })
}

type Collector struct {
	conn *dbconn.Conn
}

func New(conn *dbconn.Conn) *Collector {
	return &Collector{conn: conn}
}

// Collect scans the schema of the connection. Within a table, indexes come
// before columns so that items can be deleted in order.
func (c *Collector) Collect(ctx context.Context) ([]Item, error) {
	tables, err := c.conn.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var items []Item
	for _, table := range tables {
		if hasAnyPrefix(table, tablePrefixes) {
			items = append(items, Item{Kind: KIND_TABLE, Table: table})
			continue
		}
		found, err := c.inspect(ctx, table)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}
	sequences, err := c.conn.ListSequences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	for _, sequence := range sequences {
		if hasAnyPrefix(sequence, []string{joinid.SEQUENCE_PREFIX}) {
			items = append(items, Item{Kind: KIND_SEQUENCE, Table: c.conn.Schema() + "." + sequence})
		}
	}
	log.Infof("garbage collection found %d leftover objects in schema %q", len(items), c.conn.Schema())
	return items, nil
}

func (c *Collector) inspect(ctx context.Context, table string) ([]Item, error) {
	indexes, err := c.conn.ListIndexes(ctx, table)
	if dbconn.IsUndefinedTable(err) {
		log.Infof("table %q vanished during garbage collection", table)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list indexes of table %q: %w", table, err)
	}
	columns, err := c.conn.ListColumns(ctx, table)
	if dbconn.IsUndefinedTable(err) {
		log.Infof("table %q vanished during garbage collection", table)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list columns of table %q: %w", table, err)
	}
	// catalogs of some vendors answer with an empty list instead of an error
	if len(columns) == 0 {
		return nil, nil
	}

	var items []Item
	for _, index := range indexes {
		if hasAnyPrefix(index, indexPrefixes) {
			items = append(items, Item{Kind: KIND_INDEX, Table: table, Name: index})
		}
	}
	for _, column := range columns {
		if lo.ContainsBy(columnNames, func(name string) bool { return strings.EqualFold(name, column) }) {
			items = append(items, Item{Kind: KIND_COLUMN, Table: table, Name: column})
		}
	}
	return items, nil
}

// Delete drops items in order. It stops at the first failure.
func (c *Collector) Delete(ctx context.Context, items []Item) error {
	for _, item := range items {
		var err error
		switch item.Kind {
		case KIND_TABLE:
			err = c.dropTable(ctx, item.Table)
		case KIND_SEQUENCE:
			err = c.conn.DropSequence(ctx, item.Table)
		case KIND_INDEX:
			err = c.conn.DropIndex(ctx, item.Table, item.Name)
		case KIND_COLUMN:
			err = joinid.DropColumn(ctx, c.conn, item.Table, item.Name)
		default:
			err = fmt.Errorf("unknown item kind %q", item.Kind)
		}
		if dbconn.IsUndefinedTable(err) {
			log.Infof("%s already gone", item)
			continue
		}
		if err != nil {
			return fmt.Errorf("delete %s: %w", item, err)
		}
		log.Infof("deleted %s", item)
	}
	return nil
}

// dropTable drops a leftover table. A MySQL counter table comes with the
// stored function that increments it.
func (c *Collector) dropTable(ctx context.Context, table string) error {
	vendor := c.conn.Vendor()
	if (vendor == sqlbuilder.MYSQL || vendor == sqlbuilder.MARIADB) && hasAnyPrefix(table, []string{joinid.SEQUENCE_PREFIX}) {
		err := c.conn.DropFunction(ctx, table+joinid.COUNTER_FUNCTION_SUFFIX)
		if err != nil {
			return err
		}
	}
	return c.conn.DropTable(ctx, table)
}
