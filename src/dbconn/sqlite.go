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
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// SQLITE_DRIVER is go-sqlite3 with the SQL functions the engine expects
// from server vendors.
const SQLITE_DRIVER = "sqlite3_anonymizer"

func init() {
	sql.Register(SQLITE_DRIVER, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("md5", sqliteMD5, true)
		},
	})
}

func sqliteMD5(v interface{}) interface{} {
	var data []byte
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		// NULL arrives as a nil slice
		if v == nil {
			return nil
		}
		data = v
	default:
		data = []byte(fmt.Sprint(v))
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
