// Command groupwire validates, compiles, and wires plugin-group catalogs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/groupwire/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
