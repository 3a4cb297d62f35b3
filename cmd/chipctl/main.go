// =================================
// File: cmd/chipctl/main.go
// =================================
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, warningStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
