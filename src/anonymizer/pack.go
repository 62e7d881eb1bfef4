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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

const (
	PACK_TYPE_ENUM         = "enum"
	PACK_TYPE_MULTI_COLUMN = "multi-column"
)

// A pack file declares sample backed anonymizers:
//
//	pack: acme
//	anonymizers:
//	  - id: city
//	    description: French cities
//	    type: enum
//	    source: data/cities.txt
//	  - id: company
//	    type: multi-column
//	    source: data/companies.csv
//	    separator: ";"
//	    unsupported_vendors: [sqlite]
//
// Sources are relative to the pack file.
type packFile struct {
	Pack        string           `yaml:"pack" validate:"required,ne=core,excludesall=. "`
	Anonymizers []packAnonymizer `yaml:"anonymizers" validate:"min=1"`
}

type packAnonymizer struct {
	ID                 string   `yaml:"id" validate:"required,excludesall=.:{}[] "`
	Description        string   `yaml:"description"`
	Type               string   `yaml:"type" validate:"required,oneof=enum multi-column"`
	Source             string   `yaml:"source" validate:"required,file"`
	Separator          string   `yaml:"separator" validate:"omitempty,len=1,excluded_unless=Type multi-column"`
	Header             *bool    `yaml:"header" validate:"excluded_unless=Type multi-column"`
	Columns            []string `yaml:"columns" validate:"excluded_unless=Type multi-column"`
	UnsupportedVendors []string `yaml:"unsupported_vendors"`
}

// LoadPack reads a pack file and registers its anonymizers in r. Nothing is
// registered when the file is invalid.
func LoadPack(r *Registry, path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.NewConfigurationError("read pack file: %s", err)
	}
	defs, err := parsePack(data, filepath.Dir(path))
	if err != nil {
		return nil, errs.AsConfigurationError(err, "", "", "").WithTarget("", "", "pack "+path)
	}
	for _, def := range defs {
		if _, err := r.Get(def.Name()); err == nil {
			return nil, errs.NewConfigurationError("pack %s: anonymizer %q is already registered", path, def.Name())
		}
	}
	for _, def := range defs {
		err = r.Register(def)
		if err != nil {
			return nil, err
		}
	}
	log.Infof("loaded pack %q from %q with %d anonymizers", defs[0].Pack, path, len(defs))
	return defs, nil
}

func parsePack(data []byte, dir string) ([]Definition, error) {
	var pf packFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	err := decoder.Decode(&pf)
	if err != nil {
		return nil, errs.NewConfigurationError("parse pack file: %s", err)
	}
	for i := range pf.Anonymizers {
		pa := &pf.Anonymizers[i]
		if pa.Source != "" && !filepath.IsAbs(pa.Source) {
			pa.Source = filepath.Join(dir, pa.Source)
		}
	}
	err = validateOptions(&pf)
	if err != nil {
		return nil, err
	}

	var defs []Definition
	seen := make(map[string]bool)
	for i, pa := range pf.Anonymizers {
		err = validateOptions(&pa)
		if err != nil {
			return nil, errs.AsConfigurationError(err, "", "", fmt.Sprintf("%s.%s (#%d)", pf.Pack, pa.ID, i+1))
		}
		if seen[pa.ID] {
			return nil, errs.NewConfigurationError("anonymizer %q is declared twice", pa.ID)
		}
		seen[pa.ID] = true
		def, err := packDefinition(pf.Pack, pa)
		if err != nil {
			return nil, errs.AsConfigurationError(err, "", "", pf.Pack+"."+pa.ID)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func packDefinition(pack string, pa packAnonymizer) (Definition, error) {
	var unsupported []sqlbuilder.Vendor
	for _, name := range pa.UnsupportedVendors {
		v, err := sqlbuilder.ParseVendor(name)
		if err != nil {
			return Definition{}, errs.NewConfigurationError("%s", err)
		}
		unsupported = append(unsupported, v)
	}
	def := Definition{
		ID:                 pa.ID,
		Pack:               pack,
		Description:        pa.Description,
		UnsupportedVendors: lo.Uniq(unsupported),
	}

	source := pa.Source
	switch pa.Type {
	case PACK_TYPE_ENUM:
		def.Shape = SHAPE_CORRELATED
		def.Factory = func(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
			err := checkKnownOptions(t.Options)
			if err != nil {
				return nil, err
			}
			return newFileEnumFrom(conn, actx, t, source)
		}
	case PACK_TYPE_MULTI_COLUMN:
		opts := csvOptions{header: pa.Header == nil || *pa.Header, columns: pa.Columns}
		if pa.Separator != "" {
			opts.separator, _ = utf8.DecodeRuneInString(pa.Separator)
		}
		if !opts.header && len(opts.columns) == 0 {
			return Definition{}, errs.NewConfigurationError("columns are required when the source has no header")
		}
		def.Shape = SHAPE_TABLE_LEVEL
		def.Factory = func(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
			return newCSVColumns(conn, actx, t, source, opts)
		}
	}
	return def, nil
}
