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
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

const CORE_PACK = "core"

// Target is what a factory builds an anonymizer for.
type Target struct {
	Table   string
	Name    string
	Options anonconfig.Options
}

// Factory validates the options of t and builds its anonymizer. It must not
// touch the database.
type Factory func(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error)

type Definition struct {
	ID          string
	Pack        string
	Description string
	Shape       Shape
	Factory     Factory
	// UnsupportedVendors lists vendors the generated SQL does not run on.
	UnsupportedVendors []sqlbuilder.Vendor
}

// Name is the id used in configurations: bare for core anonymizers,
// pack qualified otherwise.
func (d Definition) Name() string {
	if d.Pack == CORE_PACK {
		return d.ID
	}
	return d.Pack + "." + d.ID
}

func (d Definition) Supports(v sqlbuilder.Vendor) bool {
	return !lo.Contains(d.UnsupportedVendors, v)
}

type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry holding the core pack.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range coreDefinitions(r) {
		def.Pack = CORE_PACK
		err := r.Register(def)
		if err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(def Definition) error {
	if def.ID == "" || def.Pack == "" || def.Factory == nil {
		return fmt.Errorf("anonymizer definition %q of pack %q is incomplete", def.ID, def.Pack)
	}
	name := def.Name()
	if _, ok := r.defs[name]; ok {
		return fmt.Errorf("anonymizer %q is registered twice", name)
	}
	r.defs[name] = def
	log.Debugf("registered anonymizer %q", name)
	return nil
}

// Get resolves a configuration id. Core anonymizers also answer to
// "core.<id>".
func (r *Registry) Get(id string) (Definition, error) {
	if def, ok := r.defs[id]; ok {
		return def, nil
	}
	if bare, ok := strings.CutPrefix(id, CORE_PACK+"."); ok {
		if def, ok := r.defs[bare]; ok && def.Pack == CORE_PACK {
			return def, nil
		}
	}
	return Definition{}, errs.NewConfigurationError("unknown anonymizer %q", id)
}

// List returns every definition, core pack first, then by pack and id.
func (r *Registry) List() []Definition {
	defs := lo.Values(r.defs)
	sort.Slice(defs, func(i, j int) bool {
		if (defs[i].Pack == CORE_PACK) != (defs[j].Pack == CORE_PACK) {
			return defs[i].Pack == CORE_PACK
		}
		if defs[i].Pack != defs[j].Pack {
			return defs[i].Pack < defs[j].Pack
		}
		return defs[i].ID < defs[j].ID
	})
	return defs
}

// Create builds the anonymizer of one configured target. Every error is a
// *errs.ConfigurationError located at the target.
func (r *Registry) Create(conn *dbconn.Conn, actx *Context, cfg anonconfig.AnonymizerConfig) (Anonymizer, error) {
	def, err := r.Get(cfg.Anonymizer)
	if err != nil {
		return nil, errs.AsConfigurationError(err, cfg.Table, cfg.Target, cfg.Anonymizer)
	}
	if !def.Supports(conn.Vendor()) {
		return nil, errs.NewConfigurationError("not supported on %s", conn.Vendor()).WithTarget(cfg.Table, cfg.Target, cfg.Anonymizer)
	}
	a, err := def.Factory(conn, actx, Target{Table: cfg.Table, Name: cfg.Target, Options: cfg.Options})
	if err != nil {
		return nil, errs.AsConfigurationError(err, cfg.Table, cfg.Target, cfg.Anonymizer)
	}
	return a, nil
}

func coreDefinitions(r *Registry) []Definition {
	return []Definition{
		{ID: "null", Description: "Set the column to NULL", Shape: SHAPE_SINGLE, Factory: newNull},
		{ID: "constant", Description: "Set the column to a constant value", Shape: SHAPE_SINGLE, Factory: newConstant},
		{ID: "md5", Description: "Replace the value by its (salted) md5 hash", Shape: SHAPE_SINGLE, Factory: newMD5},
		{ID: "email", Description: "Replace by a hashed address on a safe domain", Shape: SHAPE_SINGLE, Factory: newEmail},
		{ID: "integer", Description: "Random integer in a range, or shift by a delta or percentage", Shape: SHAPE_SINGLE, Factory: newInteger},
		{ID: "float", Description: "Random float in a range, or shift by a delta or percentage", Shape: SHAPE_SINGLE, Factory: newFloat},
		{ID: "date", Description: "Random date in a range, or shift by an interval", Shape: SHAPE_SINGLE, Factory: newDate},
		{ID: "string", Description: "Random value from a list given in options", Shape: SHAPE_CORRELATED, Factory: newStringEnum},
		{ID: "firstname", Description: "Random first name from the embedded sample", Shape: SHAPE_CORRELATED, Factory: newEmbeddedEnum(firstnameData)},
		{ID: "lastname", Description: "Random last name from the embedded sample", Shape: SHAPE_CORRELATED, Factory: newEmbeddedEnum(lastnameData)},
		{ID: "file-enum", Description: "Random value from a text file, one value per line", Shape: SHAPE_CORRELATED, Factory: newFileEnum},
		{ID: "address", Description: "Consistent postal address spread over several columns", Shape: SHAPE_TABLE_LEVEL, Factory: newAddress},
		{ID: "file-column", Description: "Consistent rows of a CSV file spread over several columns", Shape: SHAPE_TABLE_LEVEL, Factory: newFileColumn},
		{ID: "pattern", Description: "Compose literals, ranges and other anonymizers", Shape: SHAPE_SINGLE, Factory: newPatternFactory(r)},
	}
}
