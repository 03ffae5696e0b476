package main

import (
	"os"

	"github.com/gridshift/hpwhctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
