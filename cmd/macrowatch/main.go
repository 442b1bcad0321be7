package main

import (
	"os"

	"github.com/wonny/macrowatch/cmd/macrowatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
