package main

import (
	"os"

	"github.com/parisxmas/OxiEnroll/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
