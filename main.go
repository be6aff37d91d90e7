// The main package for the slangcrawler executable.
package main

import (
	"github.com/slangwatch/slangcrawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
