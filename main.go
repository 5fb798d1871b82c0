package main

import (
	// Business hours are evaluated in an IANA zone, which must resolve in
	// minimal containers too.
	_ "time/tzdata"

	"github.com/teemow/autoagenda/cmd"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	// Set the version from build-time variable
	cmd.SetVersion(version)

	// Execute the root command
	cmd.Execute()
}
