package main

import (
	"os"

	"github.com/octobees/mapleads/cmd/leadsctl/tool/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
