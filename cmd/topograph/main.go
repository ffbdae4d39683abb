// Command topograph manages topograph databases.
//
// Usage:
//
//	topograph [--config FILE] init
//	topograph [--config FILE] transact FILE
//	topograph [--config FILE] schema [--format text|json|yaml]
//	topograph [--config FILE] export [--format json|yaml] FILE
//	topograph [--config FILE] log TX
//	topograph [--config FILE] stats
package main

import (
	"os"

	"github.com/dball/topograph/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args[1:]))
}
