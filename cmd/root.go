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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yugabyte/db-anonymizer/src/config"
	"github.com/yugabyte/db-anonymizer/src/dbconn"
	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
	"github.com/yugabyte/db-anonymizer/src/utils"
)

const ENV_PREFIX = "DB_ANONYMIZER"

var (
	settingsFile string
	logDir       string
	dbVendor     string
	dbDSN        string
	dbSchema     string
)

var rootCmd = &cobra.Command{
	Use:   "db-anonymizer",
	Short: "Anonymize the data of a database in place",
	Long: `Anonymize the data of a database in place, following a configuration that binds
anonymizers to the columns of each table. Supported databases are PostgreSQL, MySQL,
MariaDB, SQL Server and SQLite.`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := initSettings(cmd)
		if err != nil {
			return err
		}
		err = config.ApplyLogLevel()
		if err != nil {
			return err
		}
		InitLogging(logDir, cmd.Name())
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(0)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVar(&settingsFile, "settings", "",
		"settings file providing default values for the flags (default $HOME/.db-anonymizer.yaml)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"directory receiving the log file (logging is disabled when empty)")
	rootCmd.PersistentFlags().StringVarP(&config.LogLevel, "log-level", "l", config.INFO,
		"log level, one of trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().BoolVarP(&utils.DoNotPrompt, "yes", "y", false,
		"assume answer as yes for all questions")
}

func registerDBFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&dbVendor, "db-type", "",
		fmt.Sprintf("database vendor, one of %v", sqlbuilder.AllVendors))
	cmd.Flags().StringVar(&dbDSN, "db-dsn", "",
		"connection string handed to the database driver (a file path for sqlite)")
	cmd.Flags().StringVar(&dbSchema, "db-schema", "",
		"schema (database for mysql) holding the tables, defaults to the connection's current one")
}

/*
initSettings binds the settings file and the DB_ANONYMIZER_* environment to the
flags of cmd. A flag given on the command line wins over the environment,
which wins over the settings file.
*/
func initSettings(cmd *cobra.Command) error {
	v := viper.New()
	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
	} else if os.Getenv(ENV_PREFIX+"_SETTINGS") != "" {
		v.SetConfigFile(os.Getenv(ENV_PREFIX + "_SETTINGS"))
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(home)
		v.SetConfigName(".db-anonymizer")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using settings file:", v.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return fmt.Errorf("read settings file: %w", err)
	}

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || f.Name == "settings" {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		err := cmd.Flags().Set(f.Name, v.GetString(f.Name))
		if err != nil {
			bindErr = fmt.Errorf("set flag %q from settings: %w", f.Name, err)
		}
	})
	return bindErr
}

func connect(ctx context.Context) (*dbconn.Conn, error) {
	if dbVendor == "" {
		return nil, fmt.Errorf(`required flag "db-type" not set`)
	}
	if dbDSN == "" {
		return nil, fmt.Errorf(`required flag "db-dsn" not set`)
	}
	vendor, err := sqlbuilder.ParseVendor(dbVendor)
	if err != nil {
		return nil, err
	}
	return dbconn.Open(ctx, &dbconn.Source{Vendor: vendor, DSN: dbDSN, Schema: dbSchema})
}
