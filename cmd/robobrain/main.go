package main

import (
	"os"

	"github.com/YasiruDEX/Robobrain-2.0/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
