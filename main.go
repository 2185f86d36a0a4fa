package main

import (
	"os"

	"github.com/mtb-build/mtb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
