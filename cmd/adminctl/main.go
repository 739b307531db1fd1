package main

import (
	"os"

	"sos-expat/backend/cmd/adminctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
