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

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yugabyte/db-anonymizer/src/anonymizator"
	"github.com/yugabyte/db-anonymizer/src/anonymizer"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the anonymization configuration against the database",
	Long: `Validate the anonymization configuration: every configured anonymizer is built
with its options for the vendor of the database, without changing any data.`,

	Run: func(cmd *cobra.Command, args []string) {
		err := checkConfig(cmd.Context())
		if err != nil {
			exitOnError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	registerDBFlags(checkCmd)
	registerConfigFlags(checkCmd)
	registerSelectionFlags(checkCmd)
}

func checkConfig(ctx context.Context) error {
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

	a := anonymizator.New(conn, cfg, registry, anonymizer.NewContext("", cfg.BasePath))
	plan, err := a.Check(selection())
	if err != nil {
		return err
	}
	printPlan(plan)
	color.Green("Configuration is valid.")
	return nil
}
