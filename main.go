package main

import (
	"os"

	"github.com/anzway/learnterm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
