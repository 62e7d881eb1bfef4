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

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/yugabyte/db-anonymizer/src/gc"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove objects left behind by interrupted anonymizations",
	Long: `Look for the sample tables, counters, join identity columns and indexes an
interrupted anonymization may have left in the schema, and drop them once confirmed.`,

	Run: func(cmd *cobra.Command, args []string) {
		err := cleanDatabase(cmd.Context())
		if err != nil {
			exitOnError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	registerDBFlags(cleanCmd)
	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"only list the leftover objects")
}

func cleanDatabase(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	collector := gc.New(conn)
	items, err := collector.Collect(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		utils.PrintAndLog("No leftover objects found in %s %q", conn.Vendor(), conn.Schema())
		return nil
	}

	table := uitable.New()
	headerfmt := color.New(color.FgGreen, color.Underline).SprintFunc()
	table.AddRow(headerfmt("KIND"), headerfmt("TABLE"), headerfmt("NAME"))
	for _, item := range items {
		table.AddRow(item.Kind, item.Table, item.Name)
	}
	fmt.Println(table)
	if dryRun {
		return nil
	}
	if !utils.AskPrompt(fmt.Sprintf("Drop these %d object(s)", len(items))) {
		fmt.Println("Aborting.")
		return nil
	}
	err = collector.Delete(ctx, items)
	if err != nil {
		return err
	}
	utils.PrintAndLog("Dropped %d leftover object(s)", len(items))
	return nil
}
