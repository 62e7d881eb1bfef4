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
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()
	def, err := r.Get("email")
	require.NoError(t, err)
	assert.Equal(t, CORE_PACK, def.Pack)
	assert.Equal(t, "email", def.Name())

	def, err = r.Get("core.firstname")
	require.NoError(t, err)
	assert.Equal(t, "firstname", def.ID)

	_, err = r.Get("acme.firstname")
	assert.True(t, errs.IsConfigurationError(err))
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	custom := Definition{ID: "email", Pack: "acme", Shape: SHAPE_SINGLE, Factory: newNull}
	require.NoError(t, r.Register(custom))

	def, err := r.Get("acme.email")
	require.NoError(t, err)
	assert.Equal(t, "acme", def.Pack)
	def, err = r.Get("email")
	require.NoError(t, err)
	assert.Equal(t, CORE_PACK, def.Pack)

	assert.Error(t, r.Register(custom))
	assert.Error(t, r.Register(Definition{ID: "nofactory", Pack: "acme"}))
	assert.Error(t, r.Register(Definition{ID: "nopack", Factory: newNull}))
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{ID: "aaa", Pack: "acme", Factory: newNull}))
	names := lo.Map(r.List(), func(d Definition, _ int) string { return d.Name() })
	assert.Equal(t, "acme.aaa", names[len(names)-1])
	assert.Equal(t, "address", names[0])
	assert.Subset(t, names, []string{"null", "constant", "md5", "email", "integer", "float", "date",
		"string", "firstname", "lastname", "file-enum", "address", "file-column", "pattern"})
}

func TestUnsupportedVendor(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		ID: "pg-only", Pack: "acme", Factory: newNull,
		UnsupportedVendors: []sqlbuilder.Vendor{sqlbuilder.SQLITE},
	}))
	def, err := r.Get("acme.pg-only")
	require.NoError(t, err)
	assert.True(t, def.Supports(sqlbuilder.POSTGRESQL))
	assert.False(t, def.Supports(sqlbuilder.SQLITE))

	conn := openTestSQLite(t)
	_, err = r.Create(conn, NewContext("", ""), anonconfig.AnonymizerConfig{
		Table: "users", Target: "email", Anonymizer: "acme.pg-only",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported on sqlite")
}

func writePack(t *testing.T, content string) string {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "cities.txt"), []byte("Paris\nLyon\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "companies.csv"),
		[]byte("name;siren\nAcme;123\nGlobex;456\n"), 0644))
	path := filepath.Join(dir, "acme.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const acmePack = `
pack: acme
anonymizers:
  - id: city
    description: French cities
    type: enum
    source: data/cities.txt
  - id: company
    type: multi-column
    source: data/companies.csv
    separator: ";"
    unsupported_vendors: [sqlserver]
`

func TestLoadPack(t *testing.T) {
	r := NewRegistry()
	defs, err := LoadPack(r, writePack(t, acmePack))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	city, err := r.Get("acme.city")
	require.NoError(t, err)
	assert.Equal(t, "French cities", city.Description)
	assert.Equal(t, SHAPE_CORRELATED, city.Shape)

	company, err := r.Get("acme.company")
	require.NoError(t, err)
	assert.Equal(t, SHAPE_TABLE_LEVEL, company.Shape)
	assert.False(t, company.Supports(sqlbuilder.SQLSERVER))

	// a pack can be loaded once
	_, err = LoadPack(r, writePack(t, acmePack))
	assert.Error(t, err)
}

func TestPackAnonymizers(t *testing.T) {
	r := NewRegistry()
	_, err := LoadPack(r, writePack(t, acmePack))
	require.NoError(t, err)

	conn := openTestSQLite(t)
	mustExec(t, conn, `CREATE TABLE clients (city text, company text, siren text)`)
	mustExec(t, conn, `INSERT INTO clients VALUES ('a', 'b', 'c'), ('d', 'e', 'f')`)
	run(t, conn, "clients",
		create(t, r, conn, "clients", "city", "acme.city", nil),
		create(t, r, conn, "clients", "employer", "acme.company", map[string]interface{}{"name": "company", "siren": "siren"}),
	)

	cities := queryColumn(t, conn, `SELECT city FROM clients ORDER BY rowid`)
	companies := queryColumn(t, conn, `SELECT company FROM clients ORDER BY rowid`)
	sirens := queryColumn(t, conn, `SELECT siren FROM clients ORDER BY rowid`)
	expected := map[string]string{"Acme": "123", "Globex": "456"}
	for i := range cities {
		assert.Contains(t, []string{"Paris", "Lyon"}, cities[i].String)
		assert.Equal(t, expected[companies[i].String], sirens[i].String)
	}
	assert.NotEqual(t, cities[0], cities[1])
}

func TestInvalidPacks(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		msg     string
	}{
		{"core name", "pack: core\nanonymizers: [{id: x, type: enum, source: data/cities.txt}]", `option "pack" cannot be "core"`},
		{"no anonymizers", "pack: acme\nanonymizers: []", `option "anonymizers" needs at least 1 entries`},
		{"unknown type", "pack: acme\nanonymizers: [{id: x, type: list, source: data/cities.txt}]", `option "type" must be one of`},
		{"missing source", "pack: acme\nanonymizers: [{id: x, type: enum, source: data/nope.txt}]", "no such file"},
		{"dotted id", "pack: acme\nanonymizers: [{id: x.y, type: enum, source: data/cities.txt}]", `option "id" cannot contain`},
		{"enum separator", "pack: acme\nanonymizers: [{id: x, type: enum, source: data/cities.txt, separator: ';'}]", `option "separator" is only allowed`},
		{"twice", "pack: acme\nanonymizers: [{id: x, type: enum, source: data/cities.txt}, {id: x, type: enum, source: data/cities.txt}]", "declared twice"},
		{"unknown vendor", "pack: acme\nanonymizers: [{id: x, type: enum, source: data/cities.txt, unsupported_vendors: [db2]}]", "db2"},
		{"unknown field", "pack: acme\nanonymizers: [{id: x, kind: enum}]", "field kind not found"},
		{"no header", "pack: acme\nanonymizers: [{id: x, type: multi-column, source: data/companies.csv, header: false}]", "columns are required"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRegistry()
			before := len(r.List())
			_, err := LoadPack(r, writePack(t, tc.content))
			require.Error(t, err)
			assert.True(t, errs.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tc.msg)
			assert.Len(t, r.List(), before)
		})
	}
}
