package main

import (
	"fmt"

	"github.com/petems/airpods-monitor/internal/cmd"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
	// Commit is set via ldflags at build time
	Commit = "unknown"
)

func main() {
	cmd.Execute(fmt.Sprintf("%s (%s)", Version, Commit))
}
