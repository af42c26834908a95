// Command rosidctl is the command-line entry point for the versioned RDF
// resource store: it initializes partitions, reads and writes individual
// resources, and runs the storage engine as a long-lived process.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
