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
package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	log "github.com/sirupsen/logrus"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/yugabyte/db-anonymizer/src/anonymizator"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

type tableProgress struct {
	rows    int64
	elapsed time.Duration
	failed  bool
}

// ProgressReporter shows one bar per table, advancing as the targets of the
// table are updated, and summarizes the run once it is over.
type ProgressReporter struct {
	disablePb bool
	progress  *mpb.Progress
	bar       *mpb.Bar
	tables    []string
	stats     map[string]*tableProgress
}

func NewProgressReporter(disablePb bool) *ProgressReporter {
	pr := &ProgressReporter{
		disablePb: disablePb,
		stats:     make(map[string]*tableProgress),
	}
	if !disablePb {
		pr.progress = mpb.New()
	}
	return pr
}

func (pr *ProgressReporter) Handle(e anonymizator.Event) {
	log.Debugf("progress: %s", e)
	switch e.Kind {
	case anonymizator.EVENT_TABLE_STARTED:
		pr.tables = append(pr.tables, e.Table)
		pr.stats[e.Table] = &tableProgress{}
		if pr.disablePb {
			fmt.Printf("Table %s: anonymization started\n", e.Table)
			return
		}
		pr.bar = pr.progress.AddBar(int64(len(e.Targets)),
			mpb.BarFillerClearOnComplete(),
			mpb.PrependDecorators(
				decor.Name(e.Table, decor.WCSyncSpaceR),
			),
			mpb.AppendDecorators(
				decor.OnComplete(
					decor.CountersNoUnit("%d/%d targets", decor.WCSyncSpaceR), "completed",
				),
			),
		)
	case anonymizator.EVENT_STATEMENT_DONE:
		pr.stats[e.Table].rows += e.Rows
		if pr.bar != nil {
			pr.bar.IncrBy(len(e.Targets))
		}
	case anonymizator.EVENT_TABLE_DONE:
		pr.stats[e.Table].elapsed = e.Elapsed
		if pr.disablePb {
			utils.PrintAndLog("Table %s: anonymization completed", e.Table)
			return
		}
		pr.bar.SetTotal(-1, true)
		pr.bar = nil
	case anonymizator.EVENT_TABLE_FAILED:
		pr.stats[e.Table].elapsed = e.Elapsed
		pr.stats[e.Table].failed = true
		if pr.bar != nil {
			pr.bar.Abort(false)
			pr.bar = nil
		}
	}
}

// Finish waits for the bars to render and prints the row counts per table.
func (pr *ProgressReporter) Finish() {
	if pr.progress != nil {
		pr.progress.Wait()
	}
	if len(pr.tables) == 0 {
		return
	}
	table := uitable.New()
	headerfmt := color.New(color.FgGreen, color.Underline).SprintFunc()
	table.AddRow(headerfmt("TABLE"), headerfmt("UPDATED ROWS"), headerfmt("DURATION"), headerfmt("STATUS"))
	for _, name := range pr.tables {
		st := pr.stats[name]
		status := color.GreenString("DONE")
		if st.failed {
			status = color.RedString("FAILED")
		}
		table.AddRow(name, humanize.Comma(st.rows), st.elapsed.Round(time.Millisecond), status)
	}
	fmt.Println()
	fmt.Println(table)
}
