package main

import (
	"github.com/revu-dev/revu/cmd"
)

// main is the entry point for the RevU CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
