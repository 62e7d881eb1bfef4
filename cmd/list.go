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
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/yugabyte/db-anonymizer/src/anonymizer"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available anonymizers",

	Run: func(cmd *cobra.Command, args []string) {
		registry, err := loadRegistry(packFiles)
		if err != nil {
			exitOnError(err)
		}
		printAnonymizers(registry.List())
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	registerPackFlag(listCmd)
}

func printAnonymizers(defs []anonymizer.Definition) {
	table := uitable.New()
	table.Wrap = true
	table.MaxColWidth = 60
	headerfmt := color.New(color.FgGreen, color.Underline).SprintFunc()
	table.AddRow(headerfmt("ANONYMIZER"), headerfmt("PACK"), headerfmt("KIND"), headerfmt("UNSUPPORTED ON"), headerfmt("DESCRIPTION"))
	for _, def := range defs {
		unsupported := lo.Map(def.UnsupportedVendors, func(v sqlbuilder.Vendor, _ int) string { return string(v) })
		table.AddRow(def.Name(), def.Pack, def.Shape, strings.Join(unsupported, ","), def.Description)
	}
	fmt.Println(table)
}
