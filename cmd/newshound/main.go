// The main package for the newshound executable.
package main

import (
	"os"

	"github.com/mkaradag/newshound/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
