// Command jirareporter generates plain-text Jira issue reports.
//
// It runs as an MCP server exposing the generate_report and
// find_delayed_issues tools (serve), as an A2A agent (a2a), or prints a
// single report to stdout (report). Configuration comes from the
// environment, an optional .env file and an optional --config file.
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
