// Command rgraph runs and inspects the reactive graph behaviour runtime.
package main

import (
	"fmt"
	"os"

	"github.com/reactive-graph/reactive-graph-sub007/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
