package cli

import (
	"fmt"
	"os"
)

// Execute runs the command line and returns the process exit code.
func Execute(version string) int {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
