package main

import (
	"os"

	anglercmder "github.com/papercomputeco/angler/cmd/angler"
)

func main() {
	cmd := anglercmder.NewAnglerCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
