package main

import (
	"os"

	"github.com/tabhome/tabhome/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
