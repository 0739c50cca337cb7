package main

import (
	"os"

	"github.com/pagestage/pagestage"
	"github.com/pagestage/pagestage/cmd/pagestage/command"
)

func main() {
	if err := command.RootCmd.Execute(); err != nil {
		os.Exit(pagestage.ExitCode(err))
	}
}
