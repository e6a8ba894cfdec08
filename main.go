// The main package for the trailhound executable.
package main

import (
	"github.com/osintworks/trailhound/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
