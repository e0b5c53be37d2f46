// Command dtrace records and queries decision traces.
package main

import (
	"os"

	"github.com/roach88/dtrace/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
