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
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/yugabyte/db-anonymizer/src/anonymizer/pattern"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// patternAnonymizer concatenates literals, random ranges and the values of
// child anonymizers into one column value. Children are created once per
// referenced id. Options of a child live under its id:
//
//	pattern: "{email} / {acme.city}"
//	email: {domain: example.org}
type patternAnonymizer struct {
	base
	tokens     []pattern.Token
	children   map[string]Anonymizer
	order      []string
	correlated bool
}

type referencedID struct {
	id      string
	bare    bool
	columns []string
}

func newPatternFactory(r *Registry) Factory {
	return func(conn *dbconn.Conn, actx *Context, t Target) (Anonymizer, error) {
		source, err := t.Options.String("pattern", "", true)
		if err != nil {
			return nil, err
		}
		tokens, err := pattern.Parse(source)
		if err != nil {
			return nil, err
		}

		var referenced []*referencedID
		byID := make(map[string]*referencedID)
		for _, ref := range pattern.References(tokens) {
			rid, ok := byID[ref.ID]
			if !ok {
				rid = &referencedID{id: ref.ID}
				byID[ref.ID] = rid
				referenced = append(referenced, rid)
			}
			if ref.Column == "" {
				rid.bare = true
			} else if !lo.Contains(rid.columns, ref.Column) {
				rid.columns = append(rid.columns, ref.Column)
			}
		}
		err = checkKnownOptions(t.Options, append([]string{"pattern"}, lo.Keys(byID)...)...)
		if err != nil {
			return nil, err
		}

		a := &patternAnonymizer{
			base:     newBase(conn, actx, t),
			tokens:   tokens,
			children: make(map[string]Anonymizer),
		}
		for _, rid := range referenced {
			child, err := newPatternChild(r, conn, actx, t, rid)
			if err != nil {
				return nil, &errs.ConfigurationError{Msg: fmt.Sprintf("reference {%s}", rid.id), Err: err}
			}
			if _, ok := child.(ColumnSampler); ok {
				a.correlated = true
			}
			a.children[rid.id] = child
			a.order = append(a.order, rid.id)
		}
		return a, nil
	}
}

func newPatternChild(r *Registry, conn *dbconn.Conn, actx *Context, t Target, rid *referencedID) (Anonymizer, error) {
	def, err := r.Get(rid.id)
	if err != nil {
		return nil, err
	}
	if def.Pack == CORE_PACK && def.ID == "pattern" {
		return nil, errs.NewConfigurationError("a pattern cannot reference another pattern")
	}
	if !def.Supports(conn.Vendor()) {
		return nil, errs.NewConfigurationError("not supported on %s", conn.Vendor())
	}
	tableLevel := def.Shape == SHAPE_TABLE_LEVEL
	if len(rid.columns) > 0 && !tableLevel {
		return nil, errs.NewConfigurationError("%q has no columns, use {%s}", def.Name(), rid.id)
	}
	if rid.bare && tableLevel {
		return nil, errs.NewConfigurationError("%q provides several columns, use {%s:<column>}", def.Name(), rid.id)
	}

	options, err := t.Options.Sub(rid.id)
	if err != nil {
		return nil, err
	}
	// referenced columns count as mapped for multi column samples
	extra := make(map[string]interface{})
	for _, col := range rid.columns {
		if !options.Has(col) {
			extra[col] = col
		}
	}
	child, err := def.Factory(conn, actx, Target{Table: t.Table, Name: t.Name, Options: options.WithAdditional(extra)})
	if err != nil {
		return nil, err
	}

	sampler, isSampler := child.(ColumnSampler)
	if isSampler {
		for _, col := range rid.columns {
			if !lo.Contains(sampler.SampleColumns(), col) {
				return nil, errs.NewConfigurationError("%q has no column %q", def.Name(), col)
			}
		}
	} else if _, ok := child.(ValueProducer); !ok {
		return nil, errs.NewConfigurationError("%q cannot be embedded in a pattern", def.Name())
	}
	return child, nil
}

func (a *patternAnonymizer) Shape() Shape {
	if a.correlated {
		return SHAPE_CORRELATED
	}
	return SHAPE_SINGLE
}

func (a *patternAnonymizer) Initialize(ctx context.Context) error {
	for _, id := range a.order {
		err := a.children[id].Initialize(ctx)
		if err != nil {
			return fmt.Errorf("initialize {%s}: %w", id, err)
		}
	}
	return nil
}

// Clean cleans every child even when some fail.
func (a *patternAnonymizer) Clean(ctx context.Context) error {
	var result error
	for _, id := range a.order {
		err := a.children[id].Clean(ctx)
		if err != nil {
			result = errors.Join(result, fmt.Errorf("clean {%s}: %w", id, err))
		}
	}
	return result
}

// ValueExpression is only available for patterns without sampled references.
func (a *patternAnonymizer) ValueExpression(ctx context.Context) (sqlbuilder.Expr, error) {
	if a.correlated {
		return nil, fmt.Errorf("pattern %q needs a join", pattern.String(a.tokens))
	}
	return a.expression(ctx, nil, nil)
}

func (a *patternAnonymizer) Anonymize(ctx context.Context, u *sqlbuilder.Update) error {
	current := u.TargetColumn(a.target)
	whens := []sqlbuilder.When{{Cond: sqlbuilder.IsNull(current), Then: current}}
	value, err := a.expression(ctx, u, &whens)
	if err != nil {
		return err
	}
	return u.Set(a.target, sqlbuilder.Case(value, whens...))
}

// expression builds the concatenation. Each sampled (id, delta) is joined
// once to u, and rows missing a sample match keep their value through
// whens.
func (a *patternAnonymizer) expression(ctx context.Context, u *sqlbuilder.Update, whens *[]sqlbuilder.When) (sqlbuilder.Expr, error) {
	joined := make(map[string]JoinedSample)
	parts := make([]sqlbuilder.Expr, 0, len(a.tokens))
	for _, token := range a.tokens {
		switch tok := token.(type) {
		case pattern.Literal:
			parts = append(parts, sqlbuilder.Value(tok.Text))
		case pattern.Range:
			parts = append(parts, sqlbuilder.RandomInt(tok.Min, tok.Max))
		case pattern.Reference:
			child := a.children[tok.ID]
			sampler, ok := child.(ColumnSampler)
			if !ok {
				e, err := child.(ValueProducer).ValueExpression(ctx)
				if err != nil {
					return nil, err
				}
				parts = append(parts, e)
				continue
			}

			key := tok.ID + "#" + strconv.Itoa(tok.Delta)
			js, ok := joined[key]
			if !ok {
				var err error
				js, err = sampler.JoinSample(ctx, u, alias(a.table, a.target, tok.ID, strconv.Itoa(tok.Delta)))
				if err != nil {
					return nil, err
				}
				joined[key] = js
				*whens = append(*whens, sqlbuilder.When{Cond: js.Missing(), Then: u.TargetColumn(a.target)})
			}
			column := tok.Column
			if column == "" {
				column = sampler.SampleColumns()[0]
			}
			e, err := js.Column(column)
			if err != nil {
				return nil, err
			}
			parts = append(parts, sqlbuilder.Coalesce(e, sqlbuilder.Value("")))
		}
	}
	return sqlbuilder.Concat(parts...), nil
}
