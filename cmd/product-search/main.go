// Command product-search browses, pages and exports product search results.
package main

import (
	"fmt"
	"os"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := newRootCmd(os.LookupEnv)
	cmd.SetArgs(args)
	return cmd.Execute()
}
