// Package main provides the entry point for the PCB Annotator application.
package main

import (
	"fmt"
	"os"

	"pcb-annotator/internal/cli"
	"pcb-annotator/ui/mainwindow"
)

func main() {
	if err := cli.NewRootCommand(mainwindow.Run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
