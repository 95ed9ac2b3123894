// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package schema holds the table and column names of the Onnanoko database.

Repositories build SQL with these definitions instead of string literals so a
renamed column is a compile error, not a runtime one. The DDL lives in
data/migrations.
*/
package schema
