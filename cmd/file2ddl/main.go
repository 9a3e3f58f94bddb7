// Command file2ddl normalizes delimited text files, infers a column schema
// from their contents and renders it as CREATE TABLE DDL.
//
//	file2ddl parse    data.csv -o clean.csv.gz
//	file2ddl describe data.csv --ddl --database mssql
//	file2ddl diagnose data.csv --fields 12
//
// Every flag may also be set in a config file (--config) or through a
// FILE2DDL_<FLAG> environment variable; a .env file in the working directory
// is loaded first when present.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"file2ddl/internal/badrow"

	"github.com/joho/godotenv"

	// register every storage backend for --apply.
	_ "file2ddl/internal/storage/all"
)

// Exit statuses.
const (
	exitOK    = 0
	exitBad   = 1 // bad rows were seen (tolerated or not)
	exitFatal = 2
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := newApp(os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	os.Exit(a.finish(err))
}

// exitCode maps the outcome of a command to the process exit status.
// Configuration, IO and header failures are fatal; bad rows, tolerated or
// not, yield exitBad.
func exitCode(err error, badRows int) int {
	switch {
	case errors.Is(err, badrow.ErrAbort):
		return exitBad
	case err != nil:
		return exitFatal
	case badRows > 0:
		return exitBad
	}
	return exitOK
}
