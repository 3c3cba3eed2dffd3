// Package main is the single-binary entrypoint for timecard.
package main

import "github.com/timecard-io/timecard/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
