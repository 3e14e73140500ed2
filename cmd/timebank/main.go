// Command timebank computes flex balance, fagtimer usage, work pattern and
// lottery eligibility from a time-tracking provider export.
//
//	timebank --entries export.json balance --from 2024-01-01 --to 2024-03-31
//	timebank --entries export.json eligibility --friday 2024-03-08 --json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
