// ./main.go
package main

import (
	"github.com/artgru/eduvulcan-for-ha/cmd"
)

// main is the entry point for the eduvulcan-for-ha CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
