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
package joinid

import (
	"context"

	"github.com/yugabyte/db-anonymizer/src/sqlbuilder"
)

// rowAddress uses the rowid every ordinary SQLite table has. Rowids are
// not dense after deletes, which only affects how evenly samples spread.
type rowAddress struct{}

func (rowAddress) Ensure(context.Context, string) error { return nil }

func (rowAddress) Remove(context.Context, string) error { return nil }

func (rowAddress) Column(tableOrAlias string) sqlbuilder.Expr {
	return sqlbuilder.Col(tableOrAlias, "rowid")
}
