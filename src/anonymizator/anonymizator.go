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
// Package anonymizator runs a configuration against a database: it plans
// the tables to process, builds every anonymizer up front, then rewrites
// each table in place and removes whatever ephemeral state the run created.
package anonymizator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/anonymizer"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/joinid"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

type EventKind int

const (
	EVENT_TABLE_STARTED EventKind = iota
	// EVENT_STATEMENT_DONE follows every executed UPDATE. Targets are the
	// targets of that statement.
	EVENT_STATEMENT_DONE
	EVENT_TABLE_DONE
	EVENT_TABLE_FAILED
)

type Event struct {
	Kind    EventKind
	Table   string
	Targets []string
	Rows    int64
	Elapsed time.Duration
	Err     error
}

func (e Event) String() string {
	switch e.Kind {
	case EVENT_TABLE_STARTED:
		return fmt.Sprintf("started %q", e.Table)
	case EVENT_STATEMENT_DONE:
		return fmt.Sprintf("updated %d rows of %q (%v)", e.Rows, e.Table, e.Targets)
	case EVENT_TABLE_DONE:
		return fmt.Sprintf("done %q", e.Table)
	case EVENT_TABLE_FAILED:
		return fmt.Sprintf("failed %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("Event(%d)", int(e.Kind))
}

type ProgressFunc func(Event)

type Anonymizator struct {
	conn     *dbconn.Conn
	config   *anonconfig.Config
	registry *anonymizer.Registry
	actx     *anonymizer.Context
	joinID   joinid.Manager

	// Progress, if set, is called synchronously as tables are processed.
	Progress ProgressFunc
}

func New(conn *dbconn.Conn, config *anonconfig.Config, registry *anonymizer.Registry, actx *anonymizer.Context) *Anonymizator {
	return &Anonymizator{
		conn:     conn,
		config:   config,
		registry: registry,
		actx:     actx,
		joinID:   joinid.New(conn),
	}
}

// tableRun is a planned table with its constructed anonymizers, in target
// order.
type tableRun struct {
	TablePlan
	anonymizers []anonymizer.Anonymizer
}

func (r *tableRun) needsJoinIdentity() bool {
	return lo.SomeBy(r.anonymizers, func(a anonymizer.Anonymizer) bool {
		return a.Shape().NeedsJoinIdentity()
	})
}

func (a *Anonymizator) Plan(sel Selection) ([]TablePlan, error) {
	return Plan(a.config, sel)
}

// build constructs every anonymizer of plan. It does not touch the database.
func (a *Anonymizator) build(plan []TablePlan) ([]*tableRun, error) {
	runs := make([]*tableRun, 0, len(plan))
	for _, tp := range plan {
		run := &tableRun{TablePlan: tp}
		for _, ac := range tp.Targets {
			anon, err := a.registry.Create(a.conn, a.actx, ac)
			if err != nil {
				return nil, err
			}
			run.anonymizers = append(run.anonymizers, anon)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Check plans sel and constructs its anonymizers without running anything.
func (a *Anonymizator) Check(sel Selection) ([]TablePlan, error) {
	plan, err := a.Plan(sel)
	if err != nil {
		return nil, err
	}
	_, err = a.build(plan)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Anonymize rewrites the selected tables one after the other. The first
// failing table stops the run. Tables processed before it stay anonymized,
// the failing one is cleaned up before the error is returned.
func (a *Anonymizator) Anonymize(ctx context.Context, sel Selection) error {
	plan, err := a.Plan(sel)
	if err != nil {
		return err
	}
	runs, err := a.build(plan)
	if err != nil {
		return err
	}
	log.Infof("anonymizing %d tables (at once: %t)", len(runs), sel.AtOnce)
	for _, run := range runs {
		err = a.anonymizeTable(ctx, run, sel.AtOnce)
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Anonymizator) notify(e Event) {
	if a.Progress != nil {
		a.Progress(e)
	}
}

func (a *Anonymizator) anonymizeTable(ctx context.Context, run *tableRun, atOnce bool) (err error) {
	start := time.Now()
	table := run.Table
	targets := run.TargetNames()
	needsJoinID := run.needsJoinIdentity()
	log.Infof("anonymizing table %q: targets=%v", table, targets)
	a.notify(Event{Kind: EVENT_TABLE_STARTED, Table: table, Targets: targets})

	defer func() {
		// cleanup still runs when the caller gave up on ctx
		cleanErr := a.cleanTable(context.WithoutCancel(ctx), run, needsJoinID)
		if cleanErr != nil {
			if err != nil {
				log.Errorf("cleaning table %q after failure: %v", table, cleanErr)
			}
			err = errors.Join(err, cleanErr)
		}
		if err != nil {
			log.Errorf("anonymize table %q: %v", table, err)
			a.notify(Event{Kind: EVENT_TABLE_FAILED, Table: table, Targets: targets, Err: err, Elapsed: time.Since(start)})
			return
		}
		log.Infof("anonymized table %q in %s", table, time.Since(start).Round(time.Millisecond))
		a.notify(Event{Kind: EVENT_TABLE_DONE, Table: table, Targets: targets, Elapsed: time.Since(start)})
	}()

	for i, anon := range run.anonymizers {
		err = anon.Initialize(ctx)
		if err != nil {
			return errs.NewExecutionError(table, []string{run.Targets[i].Target}, errs.STEP_INITIALIZE, err)
		}
	}
	if needsJoinID {
		err = a.joinID.Ensure(ctx, table)
		if err != nil {
			return errs.NewExecutionError(table, targets, errs.STEP_ENSURE_JOIN_ID, err)
		}
	}

	if atOnce {
		return a.execute(ctx, table, targets, run.anonymizers)
	}
	for i, anon := range run.anonymizers {
		err = a.execute(ctx, table, targets[i:i+1], []anonymizer.Anonymizer{anon})
		if err != nil {
			return err
		}
	}
	return nil
}

// execute builds and runs one UPDATE for anonymizers.
func (a *Anonymizator) execute(ctx context.Context, table string, targets []string, anonymizers []anonymizer.Anonymizer) error {
	start := time.Now()
	u := sqlbuilder.NewUpdate(table, a.joinID.Column)
	for i, anon := range anonymizers {
		err := anon.Anonymize(ctx, u)
		if err != nil {
			return errs.NewExecutionError(table, targets[i:i+1], errs.STEP_ANONYMIZE, err)
		}
	}
	if u.IsEmpty() {
		return nil
	}
	log.Debugf("anonymizing %q: targets=%v: columns=%v", table, targets, u.Columns())
	rows, err := a.conn.ExecExpr(ctx, u)
	if err != nil {
		return errs.NewExecutionError(table, targets, errs.STEP_EXECUTE, err)
	}
	log.Infof("updated %d rows of %q: targets=%v", rows, table, targets)
	a.notify(Event{Kind: EVENT_STATEMENT_DONE, Table: table, Targets: targets, Rows: rows, Elapsed: time.Since(start)})
	return nil
}

// cleanTable cleans every anonymizer of run then removes the join identity,
// attempting each step even when an earlier one failed.
func (a *Anonymizator) cleanTable(ctx context.Context, run *tableRun, needsJoinID bool) error {
	var result error
	for i, anon := range run.anonymizers {
		err := anon.Clean(ctx)
		if err != nil {
			result = errors.Join(result, errs.NewExecutionError(run.Table, []string{run.Targets[i].Target}, errs.STEP_CLEAN, err))
		}
	}
	if needsJoinID {
		err := a.joinID.Remove(ctx, run.Table)
		if err != nil {
			result = errors.Join(result, errs.NewExecutionError(run.Table, run.TargetNames(), errs.STEP_REMOVE_JOIN_ID, err))
		}
	}
	return result
}
