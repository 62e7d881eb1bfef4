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
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yugabyte/db-anonymizer/src/anonconfig"
	"github.com/yugabyte/db-anonymizer/src/anonymizator"
	"github.com/yugabyte/db-anonymizer/src/anonymizer"
	"github.com/yugabyte/db-anonymizer/src/errs"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

var (
	configFile  string
	packFiles   []string
	onlyList    []string
	excludeList []string
)

func registerConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "",
		"anonymization configuration file (.yaml, .yml or .toml)")
	cmd.Flags().StringSliceVar(&packFiles, "pack", nil,
		"additional anonymizer pack files, on top of the packs declared by the configuration")
}

func registerPackFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&packFiles, "pack", nil,
		"anonymizer pack files to load")
}

func registerSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&onlyList, "only", nil,
		"anonymize only these tables or table.target entries")
	cmd.Flags().StringSliceVar(&excludeList, "exclude", nil,
		"skip these tables or table.target entries")
}

func loadRegistry(packs []string) (*anonymizer.Registry, error) {
	registry := anonymizer.NewRegistry()
	for _, path := range packs {
		_, err := anonymizer.LoadPack(registry, path)
		if err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// loadConfig reads the anonymization configuration and the registry holding
// the core anonymizers plus every pack it needs.
func loadConfig() (*anonconfig.Config, *anonymizer.Registry, error) {
	if configFile == "" {
		return nil, nil, fmt.Errorf(`required flag "config" not set`)
	}
	cfg, err := anonconfig.LoadFile(configFile)
	if err != nil {
		return nil, nil, err
	}
	registry, err := loadRegistry(append(append([]string(nil), cfg.Packs...), packFiles...))
	if err != nil {
		return nil, nil, err
	}
	return cfg, registry, nil
}

func selection() anonymizator.Selection {
	return anonymizator.Selection{Only: onlyList, Excluded: excludeList}
}

func printPlan(plan []anonymizator.TablePlan) {
	table := uitable.New()
	headerfmt := color.New(color.FgGreen, color.Underline).SprintFunc()
	table.AddRow(headerfmt("TABLE"), headerfmt("TARGET"), headerfmt("ANONYMIZER"), headerfmt("OPTIONS"))
	for _, tp := range plan {
		for _, ac := range tp.Targets {
			table.AddRow(tp.Table, ac.Target, ac.Anonymizer, formatOptions(ac.Options))
		}
	}
	fmt.Println(table)
}

func formatOptions(o anonconfig.Options) string {
	parts := make([]string, 0, o.Len())
	for _, k := range o.Keys() {
		v, _ := o.Raw(k)
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}

// exitOnError terminates the command. Mistakes in the configuration or the
// selection exit with EXIT_INVALID_INPUT, anything else with EXIT_FAILURE.
func exitOnError(err error) {
	code := utils.EXIT_FAILURE
	if errs.IsConfigurationError(err) || errs.IsSelectionError(err) {
		code = utils.EXIT_INVALID_INPUT
	}
	utils.ErrExitWithCode(code, "%s", describeError(err))
}

// describeError turns engine errors into a single user facing line.
func describeError(err error) string {
	switch {
	case errs.IsConfigurationError(err):
		return color.RedString("Invalid configuration: ") + err.Error()
	case errs.IsSelectionError(err):
		return color.RedString("Invalid selection: ") + err.Error()
	case errs.IsExecutionError(err):
		return color.RedString("Anonymization failed: ") + err.Error()
	}
	log.Debugf("unclassified error %T", err)
	return color.RedString("Error: ") + err.Error()
}
