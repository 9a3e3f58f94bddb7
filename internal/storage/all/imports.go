// Package all wires every built-in storage backend into the storage factory.
//
// Importing it for side effects makes the kinds "postgres" ("postgresql"),
// "mssql" ("sqlserver"), "mysql" and "sqlite" available to storage.New and
// storage.ApplyAll:
//
//	import _ "file2ddl/internal/storage/all"
package all

import (
	_ "file2ddl/internal/storage/mssql"
	_ "file2ddl/internal/storage/mysql"
	_ "file2ddl/internal/storage/postgres"
	_ "file2ddl/internal/storage/sqlite"
)
