// Package main is the entry point for the mailbot CLI/TUI.
package main

import (
	"os"

	"github.com/mailbot-io/mailbot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
