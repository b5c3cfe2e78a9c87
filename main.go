package main

import (
	"os"

	"github.com/evopti/chargepilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
