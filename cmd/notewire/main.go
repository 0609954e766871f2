package main

import (
	"os"

	"notewire/cmd/notewire/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
