// Command summit runs the tutoring backend.
//
// Usage:
//
//	summit serve                  run the HTTP API and the turn pipeline
//	summit migrate                apply the database schema
//	summit respond --thread <id>  re-drive the pipeline for a thread's newest user message
//
// Configuration comes from CONFIG_FILE (or --config) and the environment.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
