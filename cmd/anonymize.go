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
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yugabyte/db-anonymizer/src/anonymizator"
	"github.com/yugabyte/db-anonymizer/src/anonymizer"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

var (
	salt      string
	atOnce    bool
	dryRun    bool
	disablePb bool
)

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize",
	Short: "Anonymize the configured tables in place",
	Long: `Anonymize the configured tables in place. Tables are processed one after the other
and every anonymizer of a table is validated before any data is touched. The objects
created while anonymizing a table are removed even when the table fails.`,

	Run: func(cmd *cobra.Command, args []string) {
		err := anonymizeDatabase(cmd.Context())
		if err != nil {
			exitOnError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(anonymizeCmd)
	registerDBFlags(anonymizeCmd)
	registerConfigFlags(anonymizeCmd)
	registerSelectionFlags(anonymizeCmd)

	anonymizeCmd.Flags().StringVar(&salt, "salt", "",
		"salt mixed into hashes, random when empty (fix it to get reproducible hashes across runs)")
	anonymizeCmd.Flags().BoolVar(&atOnce, "at-once", true,
		"update all the targets of a table with a single statement instead of one statement per target")
	anonymizeCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"validate the configuration and print the plan without changing the database")
	anonymizeCmd.Flags().BoolVar(&disablePb, "disable-pb", false,
		"print plain progress lines instead of progress bars")
}

func anonymizeDatabase(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, registry, err := loadConfig()
	if err != nil {
		return err
	}
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	a := anonymizator.New(conn, cfg, registry, anonymizer.NewContext(salt, cfg.BasePath))
	sel := selection()
	sel.AtOnce = atOnce

	plan, err := a.Check(sel)
	if err != nil {
		return err
	}
	if len(plan) == 0 {
		utils.PrintAndLog("Nothing to anonymize")
		return nil
	}
	printPlan(plan)
	if dryRun {
		return nil
	}
	if !utils.AskPrompt(fmt.Sprintf("Anonymize %d table(s) of %s %q in place", len(plan), conn.Vendor(), conn.Schema())) {
		fmt.Println("Aborting.")
		return nil
	}

	reporter := NewProgressReporter(disablePb || !term.IsTerminal(int(os.Stdout.Fd())))
	a.Progress = reporter.Handle
	err = a.Anonymize(ctx, sel)
	reporter.Finish()
	if err != nil {
		return err
	}
	log.Infof("anonymized %d tables", len(plan))
	color.Green("Anonymization completed.")
	return nil
}
