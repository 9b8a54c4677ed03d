// Package all registers every built-in storage backend. Import it for side
// effects:
//
//	import _ "tabclean/internal/storage/all"
//
// which makes the "sqlite", "postgres", "mssql" and "mysql" kinds available
// to storage.New and storage.EnsureTable.
package all

import (
	_ "tabclean/internal/storage/mssql"
	_ "tabclean/internal/storage/mysql"
	_ "tabclean/internal/storage/postgres"
	_ "tabclean/internal/storage/sqlite"
)
