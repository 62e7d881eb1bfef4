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
package dbconn

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// Oldest releases providing everything the generated SQL relies on: window
// functions, UPDATE with joins, sequences and DROP ... IF EXISTS.
var minimumVersions = map[sqlbuilder.Vendor]string{
	sqlbuilder.POSTGRESQL: "10",
	sqlbuilder.MYSQL:      "8.0",
	sqlbuilder.MARIADB:    "10.2",
	sqlbuilder.SQLSERVER:  "13.0",
	sqlbuilder.SQLITE:     "3.33.0",
}

var leadingVersion = regexp.MustCompile(`^\d+(\.\d+)*`)

// ParseServerVersion extracts the numeric part of a version banner such as
// "15.3 (Debian 15.3-1)" or "10.6.12-MariaDB-1:10.6.12".
func ParseServerVersion(banner string) (*version.Version, error) {
	s := leadingVersion.FindString(strings.TrimSpace(banner))
	if s == "" {
		return nil, fmt.Errorf("unrecognized server version %q", banner)
	}
	return version.NewVersion(s)
}

func (c *Conn) versionQuery() string {
	switch c.Vendor() {
	case sqlbuilder.POSTGRESQL:
		return "SHOW server_version"
	case sqlbuilder.MYSQL, sqlbuilder.MARIADB:
		return "SELECT VERSION()"
	case sqlbuilder.SQLSERVER:
		return "SELECT CAST(SERVERPROPERTY('ProductVersion') AS nvarchar(128))"
	default:
		return "SELECT sqlite_version()"
	}
}

// CheckVersion fails when the server is older than the oldest release the
// engine supports. A MySQL connection to a MariaDB server switches to the
// MariaDB vendor.
func (c *Conn) CheckVersion(ctx context.Context) error {
	banner, err := c.QueryStrings(ctx, c.versionQuery())
	if err != nil {
		return err
	}
	if len(banner) == 0 {
		return fmt.Errorf("server did not report its version")
	}
	c.version = banner[0]
	if c.Vendor() == sqlbuilder.MYSQL && strings.Contains(strings.ToLower(c.version), "mariadb") {
		log.Infof("server %q is MariaDB", c.version)
		c.dialect, _ = sqlbuilder.NewDialect(sqlbuilder.MARIADB)
	}

	current, err := ParseServerVersion(c.version)
	if err != nil {
		return err
	}
	minimum := version.Must(version.NewVersion(minimumVersions[c.Vendor()]))
	if current.LessThan(minimum) {
		return fmt.Errorf("%s %s is not supported: %s or newer is required", c.Vendor(), current, minimum)
	}
	return nil
}
