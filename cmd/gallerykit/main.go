// Command gallerykit serves the upload endpoints a gallery block posts to and
// drives the block from the terminal.
package main

import (
	"fmt"
	"os"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
