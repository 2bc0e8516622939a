package main

import (
	"os"

	"github.com/spigell/arxiv-digest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
